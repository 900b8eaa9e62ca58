package openai

import (
	"context"
	"fmt"

	"ai-deskmate-be/pkg/llm"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider speaks the OpenAI chat completions API through the official
// SDK. It also covers OpenAI-compatible gateways (vLLM, LiteLLM) via BaseURL.
type OpenAIProvider struct {
	client openaisdk.Client
	model  string
}

var _ llm.LLMProvider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{
		client: openaisdk.NewClient(opts...),
		model:  model,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{
		Temperature: 0.7, // Default
		Model:       p.model,
	}
	for _, opt := range opts {
		opt(options)
	}

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case "system":
			messages = append(messages, openaisdk.SystemMessage(msg.Content))
		case "assistant", "model":
			messages = append(messages, openaisdk.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openaisdk.UserMessage(msg.Content))
		}
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(options.Model),
		Messages:    messages,
		Temperature: openaisdk.Float(options.Temperature),
	}
	if options.MaxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(options.MaxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}
