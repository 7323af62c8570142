package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedBatch(t *testing.T) {
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req ollamaEmbedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)
		prompts = append(prompts, req.Prompt)

		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embedding: []float32{float32(len(req.Prompt)), 1},
		})
	}))
	defer srv.Close()

	e, err := NewOllamaEngine(Config{Endpoint: srv.URL + "/", Model: "all-minilm"})
	require.NoError(t, err)

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "abc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {3, 1}}, vecs)
	assert.Equal(t, []string{"a", "abc"}, prompts)
}

func TestOllamaEmbedStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e, err := NewOllamaEngine(Config{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "model not found")
}

func TestOllamaEmbedEmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[]}`))
	}))
	defer srv.Close()

	e, err := NewOllamaEngine(Config{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOllamaEndpointWithoutScheme(t *testing.T) {
	e, err := NewOllamaEngine(Config{Endpoint: "gpu-box:11434"})
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", e.endpoint)

	e, err = NewOllamaEngine(Config{})
	require.NoError(t, err)
	assert.Equal(t, defaultOllamaEndpoint, e.endpoint)
}
