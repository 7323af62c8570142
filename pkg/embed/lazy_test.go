package embed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constEngine struct{ vec []float32 }

func (c constEngine) Embed(context.Context, string) ([]float32, error) { return c.vec, nil }

func (c constEngine) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = c.vec
	}
	return out, nil
}

func (constEngine) Name() string { return "const" }

func TestLazyBuildsOnce(t *testing.T) {
	var builds atomic.Int32
	lazy := NewLazy(func(context.Context) (Embedder, error) {
		builds.Add(1)
		return constEngine{vec: []float32{1, 2}}, nil
	})
	assert.Equal(t, "lazy", lazy.Name())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vec, err := lazy.Embed(context.Background(), "hello")
			assert.NoError(t, err)
			assert.Equal(t, []float32{1, 2}, vec)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	assert.Equal(t, "const", lazy.Name())
}

func TestLazyRetriesAfterFailure(t *testing.T) {
	var builds atomic.Int32
	lazy := NewLazy(func(context.Context) (Embedder, error) {
		if builds.Add(1) == 1 {
			return nil, errors.New("weights download failed")
		}
		return constEngine{vec: []float32{1}}, nil
	})

	_, err := lazy.EmbedBatch(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrUnavailable)

	vecs, err := lazy.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, int32(2), builds.Load())
}

func TestLazyBuildSurvivesCallerCancel(t *testing.T) {
	var builds atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	buildErr := make(chan error, 1)

	lazy := NewLazy(func(ctx context.Context) (Embedder, error) {
		builds.Add(1)
		close(started)
		<-release
		buildErr <- ctx.Err()
		return constEngine{vec: []float32{3}}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := lazy.Load(ctx)
		first <- err
	}()

	<-started
	cancel()
	err := <-first
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)

	second := make(chan error, 1)
	go func() {
		_, err := lazy.Load(context.Background())
		second <- err
	}()
	close(release)

	require.NoError(t, <-second)
	assert.NoError(t, <-buildErr, "build context must not inherit the caller's cancel")
	assert.Equal(t, int32(1), builds.Load())
	assert.Equal(t, "const", lazy.Name())
}
