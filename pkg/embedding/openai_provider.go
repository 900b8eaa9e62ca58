package embedding

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIEmbeddingProvider uses the official SDK's embedding service. It also
// works against OpenAI-compatible embedding servers via BaseURL.
type OpenAIEmbeddingProvider struct {
	client     openaisdk.EmbeddingService
	model      string
	dimensions int
}

func NewOpenAIEmbeddingProvider(apiKey, baseURL, model string, dimensions int) EmbeddingProvider {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIEmbeddingProvider{
		client:     openaisdk.NewEmbeddingService(opts...),
		model:      model,
		dimensions: dimensions,
	}
}

func (p *OpenAIEmbeddingProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	// The OpenAI API has no task type; asymmetric query/document prompting
	// is a provider detail we do not replicate here.
	params := openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
		Model: openaisdk.EmbeddingModel(p.model),
	}
	if p.dimensions > 0 {
		params.Dimensions = openaisdk.Int(int64(p.dimensions))
	}

	res, err := p.client.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embedding error: %w", err)
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("openai returned no embeddings")
	}

	values := make([]float32, len(res.Data[0].Embedding))
	for i, v := range res.Data[0].Embedding {
		values[i] = float32(v)
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			Values: Normalize(values),
		},
	}, nil
}
