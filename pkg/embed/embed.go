// Package embed turns text into fixed-length vectors for semantic matching.
// Backends: OpenAI embeddings, Google Gemini and a local Ollama server.
package embed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
)

var (
	// ErrUnavailable wraps every failure to build or call a backend.
	ErrUnavailable = errors.New("embedding backend unavailable")
	// ErrDimension is returned when two vectors differ in length.
	ErrDimension = errors.New("vector dimension mismatch")
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

const (
	ProviderOpenAI = "openai"
	ProviderGenAI  = "genai"
	ProviderOllama = "ollama"
	ProviderNone   = "none"
)

type Config struct {
	Provider string
	Model    string
	APIKey   string
	// Endpoint overrides the provider base URL.
	Endpoint   string
	HTTPClient *http.Client
}

// DefaultModel is the model used when Config.Model is empty.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "text-embedding-3-small"
	case ProviderGenAI:
		return "gemini-embedding-001"
	case ProviderOllama:
		return "embeddinggemma"
	default:
		return ""
	}
}

// NewEngine builds the backend named by cfg.Provider.
func NewEngine(ctx context.Context, cfg Config) (Embedder, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel(cfg.Provider)
	}

	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case ProviderOpenAI:
		e, err = NewOpenAIEngine(cfg)
	case ProviderGenAI:
		e, err = NewGenAIEngine(ctx, cfg)
	case ProviderOllama:
		e, err = NewOllamaEngine(cfg)
	case ProviderNone:
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q (use openai, genai, ollama or none)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Disabled is a backend that is never available. Resolution runs on rules only.
type Disabled struct{}

func (Disabled) Embed(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("%w: disabled by configuration", ErrUnavailable)
}

func (Disabled) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, fmt.Errorf("%w: disabled by configuration", ErrUnavailable)
}

func (Disabled) Name() string { return ProviderNone }

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// A zero vector has similarity 0 with anything.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimension, len(a), len(b))
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// Rescale maps a cosine similarity from [-1, 1] onto [0, 1].
func Rescale(score float64) float64 {
	s := (score + 1) / 2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// Nearest returns the index and similarity of the corpus vector closest to
// query. Ties go to the earliest index. NaN scores are skipped; a query with
// no finite score against any vector is ErrUnavailable.
func Nearest(query []float32, corpus [][]float32) (int, float64, error) {
	if len(corpus) == 0 {
		return -1, 0, errors.New("empty corpus")
	}

	best, bestScore := -1, math.Inf(-1)
	for i, vec := range corpus {
		score, err := Cosine(query, vec)
		if err != nil {
			return -1, 0, fmt.Errorf("corpus vector %d: %w", i, err)
		}
		if math.IsNaN(score) {
			continue
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best == -1 {
		return -1, 0, fmt.Errorf("%w: no finite similarity", ErrUnavailable)
	}

	return best, bestScore, nil
}
