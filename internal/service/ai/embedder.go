package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"

	"counselgo/internal/config"
)

const defaultEmbeddingModel = "gemini-embedding-001"

// geminiEmbedder implements eino's embedding.Embedder over the Gemini
// EmbedContent API.
type geminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewEmbedder builds the embedder backing the resume index.
func NewEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	if cfg.Embedding.APIKey == "" {
		return nil, errors.New("embedding api key not configured")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.Embedding.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("new embedding client: %w", err)
	}
	modelName := cfg.Embedding.Model
	if modelName == "" {
		modelName = defaultEmbeddingModel
	}
	return &geminiEmbedder{client: client, model: modelName}, nil
}

func (e *geminiEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.Text(text)...)
	}
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: want %d got %d", len(texts), len(resp.Embeddings))
	}
	vectors := make([][]float64, 0, len(resp.Embeddings))
	for _, emb := range resp.Embeddings {
		vec := make([]float64, len(emb.Values))
		for i, v := range emb.Values {
			vec[i] = float64(v)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}
