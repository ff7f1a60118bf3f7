package llm

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient talks to any endpoint implementing the OpenAI chat completions
// API, including Gemini's OpenAI compatible endpoint.
type OpenAIClient struct {
	client openai.Client
	model  string
	cfg    GenerationConfig
}

func NewOpenAIClient(apiKey, model, baseURL string, cfg GenerationConfig) *OpenAIClient {
	if model == "" {
		model = DefaultOpenAIModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
		cfg:    cfg,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, messages []Message) (string, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleModel {
			params = append(params, openai.AssistantMessage(msg.Text))
		} else {
			params = append(params, openai.UserMessage(msg.Text))
		}
	}

	req := openai.ChatCompletionNewParams{
		Model:               c.model,
		Messages:            params,
		Temperature:         openai.Float(c.cfg.Temperature),
		TopP:                openai.Float(c.cfg.TopP),
		MaxCompletionTokens: openai.Int(int64(c.cfg.MaxOutputTokens)),
	}

	res, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai generation failed: %w", err)
	}

	if len(res.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return res.Choices[0].Message.Content, nil
}
