package embed

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Cosine(tc.a, tc.b)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestCosineDimensionMismatch(t *testing.T) {
	_, err := Cosine([]float32{1}, []float32{1, 2})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestRescale(t *testing.T) {
	assert.Equal(t, 0.0, Rescale(-1))
	assert.Equal(t, 1.0, Rescale(1))
	assert.Equal(t, 0.5, Rescale(0))
	assert.InDelta(t, 0.6, Rescale(0.2), 1e-12)

	for s := -1.0; s <= 1.0; s += 0.05 {
		r := Rescale(s)
		assert.GreaterOrEqual(t, r, 0.0)
		assert.LessOrEqual(t, r, 1.0)
	}
	assert.Equal(t, 1.0, Rescale(1.0000001))
}

func TestNearestPrefersEarliestOnTie(t *testing.T) {
	corpus := [][]float32{
		{0, 1},
		{1, 0},
		{1, 0},
	}
	idx, score, err := Nearest([]float32{1, 0}, corpus)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestNearestErrors(t *testing.T) {
	_, _, err := Nearest([]float32{1}, nil)
	assert.Error(t, err)

	_, _, err = Nearest([]float32{1, 0}, [][]float32{{1, 0}, {1}})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestNearestNonFinite(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	_, _, err := Nearest([]float32{nan, nan}, [][]float32{{1, 0}, {0, 1}})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, _, err = Nearest([]float32{inf, 0}, [][]float32{{1, 0}, {1, 1}})
	assert.ErrorIs(t, err, ErrUnavailable)

	idx, _, err := Nearest([]float32{1, 0}, [][]float32{{nan, 0}, {1, 0}})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestNewEngine(t *testing.T) {
	ctx := context.Background()

	e, err := NewEngine(ctx, Config{Provider: ProviderNone})
	require.NoError(t, err)
	_, err = e.Embed(ctx, "hello")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = e.EmbedBatch(ctx, []string{"hello"})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewEngine(ctx, Config{Provider: "word2vec"})
	assert.Error(t, err)

	_, err = NewEngine(ctx, Config{Provider: ProviderOpenAI})
	assert.Error(t, err, "missing api key")

	_, err = NewEngine(ctx, Config{Provider: ProviderGenAI})
	assert.Error(t, err, "missing api key")

	e, err = NewEngine(ctx, Config{Provider: ProviderOllama})
	require.NoError(t, err)
	assert.Equal(t, "ollama:embeddinggemma", e.Name())
}

func TestUnavailableWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := unavailable("dial", cause)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dial")
}
