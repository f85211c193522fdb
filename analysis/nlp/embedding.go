package nlp

import (
	"context"
	"math"

	apperrors "telegram-intent-analyzer/backend/pkg/errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"gonum.org/v1/gonum/floats"
)

// EmbeddingProvider maps text to fixed-length vectors. Implementations must
// be safe for concurrent use; the analyzer embeds from multiple in-flight
// pipeline runs.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// OpenAIEmbedder produces sentence embeddings through the OpenAI API. The
// model is pinned via configuration: intent confidences are only comparable
// across runs embedded with the same model.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbedder(apiKey, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, apperrors.NewNotConfigured("OPENAI_API_KEY is not set; embedding provider unavailable")
	}

	cl := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIEmbedder{
		client: &cl,
		model:  openai.EmbeddingModel(model),
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: e.model,
	})
	if err != nil {
		return nil, apperrors.NewRemoteService("embedding request failed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, apperrors.NewRemoteService("embedding response is missing vectors", nil)
	}

	vectors := make([][]float64, len(resp.Data))
	for _, d := range resp.Data {
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector is zero-length or zero-magnitude.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na := math.Sqrt(floats.Dot(a, a))
	nb := math.Sqrt(floats.Dot(b, b))
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
