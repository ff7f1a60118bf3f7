package llm

import (
	"context"
	"fmt"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

func ModelMessage(text string) Message {
	return Message{Role: RoleModel, Text: text}
}

// Client sends a full conversation to a hosted chat model and returns the
// text of its next turn.
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

type GenerationConfig struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}

var DefaultGenerationConfig = GenerationConfig{
	Temperature:     0.3,
	TopP:            1,
	TopK:            1,
	MaxOutputTokens: 2048,
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type ClientConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Config   GenerationConfig
}

func NewClient(ctx context.Context, cfg ClientConfig) (Client, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.Config)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Config), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider '%s'", cfg.Provider)
	}
}
