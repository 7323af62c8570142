package embed

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GenAIEngine calls the Gemini embedContent API with the
// SEMANTIC_SIMILARITY task type.
type GenAIEngine struct {
	client *genai.Client
	model  string
}

func NewGenAIEngine(ctx context.Context, cfg Config) (*GenAIEngine, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY not set")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, unavailable("genai client", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel(ProviderGenAI)
	}

	return &GenAIEngine{client: client, model: model}, nil
}

func (e *GenAIEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *GenAIEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	})
	if err != nil {
		return nil, unavailable("genai embed", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, unavailable("genai embed", fmt.Errorf("got %d vectors for %d inputs", len(result.Embeddings), len(texts)))
	}

	out := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		out[i] = emb.Values
	}

	return out, nil
}

func (e *GenAIEngine) Name() string {
	return fmt.Sprintf("genai:%s", e.model)
}
