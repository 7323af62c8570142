package embed

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// BuildTimeout bounds one backend build, independent of any caller.
const BuildTimeout = 2 * time.Minute

// Factory builds a backend. It may be slow (model download, network dial).
type Factory func(ctx context.Context) (Embedder, error)

// Lazy defers building its backend until the first call and reuses it for
// the rest of the process. Concurrent first callers share one build; a
// failed build is retried on the next call. The build is detached from the
// caller's cancellation, so a caller giving up early stops waiting without
// failing the build for the others.
type Lazy struct {
	factory Factory
	timeout time.Duration
	group   singleflight.Group

	mu     sync.Mutex
	engine Embedder
}

func NewLazy(factory Factory) *Lazy {
	return &Lazy{factory: factory, timeout: BuildTimeout}
}

func (l *Lazy) loaded() Embedder {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine
}

// Load returns the backend, building it if needed.
func (l *Lazy) Load(ctx context.Context) (Embedder, error) {
	if e := l.loaded(); e != nil {
		return e, nil
	}

	ch := l.group.DoChan("load", func() (any, error) {
		if e := l.loaded(); e != nil {
			return e, nil
		}

		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		e, err := l.factory(buildCtx)
		if err != nil {
			return nil, unavailable("load backend", err)
		}

		l.mu.Lock()
		l.engine = e
		l.mu.Unlock()

		log.Info("Loaded embedding backend", "name", e.Name())
		return e, nil
	})

	select {
	case <-ctx.Done():
		return nil, unavailable("load backend", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Embedder), nil
	}
}

func (l *Lazy) Embed(ctx context.Context, text string) ([]float32, error) {
	e, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return e.Embed(ctx, text)
}

func (l *Lazy) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return e.EmbedBatch(ctx, texts)
}

func (l *Lazy) Name() string {
	if e := l.loaded(); e != nil {
		return e.Name()
	}
	return "lazy"
}
