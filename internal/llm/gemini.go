package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

const DefaultGeminiModel = "gemini-1.5-flash-latest"

type GeminiClient struct {
	llm     *googleai.GoogleAI
	model   string
	options []llms.CallOption
}

func NewGeminiClient(ctx context.Context, apiKey, model string, cfg GenerationConfig) (*GeminiClient, error) {
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(model))
	if err != nil {
		return nil, fmt.Errorf("could not create Gemini client: %w", err)
	}

	return &GeminiClient{
		llm:   client,
		model: model,
		options: []llms.CallOption{
			llms.WithModel(model),
			llms.WithTemperature(cfg.Temperature),
			llms.WithTopP(cfg.TopP),
			llms.WithTopK(cfg.TopK),
			llms.WithMaxTokens(cfg.MaxOutputTokens),
		},
	}, nil
}

func toMessageContent(messages []Message) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		msgType := llms.ChatMessageTypeHuman
		if msg.Role == RoleModel {
			msgType = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(msgType, msg.Text))
	}
	return content
}

func (c *GeminiClient) Generate(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.llm.GenerateContent(ctx, toMessageContent(messages), c.options...)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("gemini returned no choices")
	}

	return resp.Choices[0].Content, nil
}
