// Package nlu maps free-form utterances to macros. Semantic matching against
// intent templates runs first; keyword rules take over when the embedding
// backend is unavailable or not confident.
package nlu

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"vocmd/internal/macro"
	"vocmd/internal/platform"
	"vocmd/pkg/embed"
)

const (
	DefaultThreshold = 0.6
	DefaultTimeout   = 10 * time.Second
)

// Status tells how a Result was reached.
type Status int

const (
	// NoMatch: neither tier produced a macro.
	NoMatch Status = iota
	// Matched: the semantic tier cleared the threshold.
	Matched
	// Degraded: the keyword rules produced the macro.
	Degraded
)

func (s Status) String() string {
	switch s {
	case Matched:
		return "matched"
	case Degraded:
		return "degraded"
	default:
		return "no_match"
	}
}

type Result struct {
	Status Status
	Macro  *macro.Macro
	// Reason explains a Degraded or NoMatch result.
	Reason string
}

func (r Result) OK() bool { return r.Macro != nil }

type Options struct {
	Threshold float64
	// Timeout bounds every call into the embedding backend. Zero disables it.
	Timeout            time.Duration
	GOOS               string
	Triggers           *Triggers
	ConfirmLiteralApps bool
}

func DefaultOptions() Options {
	return Options{
		Threshold:          DefaultThreshold,
		Timeout:            DefaultTimeout,
		GOOS:               platform.Current(),
		ConfirmLiteralApps: true,
	}
}

// Resolver is safe for concurrent use when its backend is.
type Resolver struct {
	backend embed.Embedder
	opts    Options
	ex      *Extractor
	gen     *Generator

	mu           sync.Mutex
	templateVecs [][]float32
}

func New(backend embed.Embedder, opts Options) *Resolver {
	if opts.Triggers == nil {
		opts.Triggers = DefaultTriggers()
	}
	if opts.GOOS == "" {
		opts.GOOS = platform.Current()
	}

	ex := NewExtractor(opts.Triggers, opts.GOOS)
	return &Resolver{
		backend: backend,
		opts:    opts,
		ex:      ex,
		gen:     NewGenerator(ex, opts.GOOS, opts.ConfirmLiteralApps),
	}
}

func (r *Resolver) Generator() *Generator { return r.gen }
func (r *Resolver) Extractor() *Extractor { return r.ex }

// Resolve uses the configured threshold.
func (r *Resolver) Resolve(ctx context.Context, text string) Result {
	return r.ResolveThreshold(ctx, text, r.opts.Threshold)
}

// ResolveThreshold never fails: backend errors degrade to keyword rules.
func (r *Resolver) ResolveThreshold(ctx context.Context, text string, threshold float64) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Status: NoMatch, Reason: "empty input"}
	}

	var reason string
	m, err := r.Semantic(ctx, text, threshold)
	switch {
	case err != nil:
		log.Warn("Semantic matching failed, falling back to rules", "err", err)
		reason = fmt.Sprintf("backend unavailable: %v", err)
	case m != nil:
		return Result{Status: Matched, Macro: m}
	default:
		reason = "no confident intent"
	}

	if fb := r.Fallback(text); fb != nil {
		log.Debug("Resolved by rules", "reason", reason)
		return Result{Status: Degraded, Macro: fb, Reason: reason}
	}

	return Result{Status: NoMatch, Reason: reason}
}

// Semantic returns (nil, nil) when no template clears threshold or the
// matched intent lacks a parameter. Errors come only from the backend.
func (r *Resolver) Semantic(ctx context.Context, text string, threshold float64) (*macro.Macro, error) {
	templates, err := r.templateVectors(ctx)
	if err != nil {
		return nil, err
	}

	query, err := r.call(ctx, func(ctx context.Context) ([][]float32, error) {
		v, err := r.backend.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		return [][]float32{v}, nil
	})
	if err != nil {
		return nil, err
	}

	idx, score, err := embed.Nearest(query[0], templates)
	if err != nil {
		if errors.Is(err, embed.ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", embed.ErrUnavailable, err)
	}

	intent := intentTemplates[idx].Name
	sim := embed.Rescale(score)
	log.Debug("Nearest intent", "intent", intent, "similarity", sim, "threshold", threshold)

	if sim < threshold {
		return nil, nil
	}

	m := r.gen.Generate(intent, text)
	if m == nil {
		log.Debug("Intent matched without required parameters", "intent", intent)
		return nil, nil
	}

	return m.WithMatch(string(intent), sim), nil
}

// Fallback is the keyword tier. Installs always go through pip here.
func (r *Resolver) Fallback(text string) *macro.Macro {
	if req, ok := r.ex.ParseInstall(text); ok {
		return macro.New(macro.Shell(InstallerPip.Command(req.Package)))
	}
	if r.opts.Triggers.Mentions(text, TokenGoogle) {
		return macro.New(macro.Open(GoogleURL))
	}
	if r.opts.Triggers.Mentions(text, TokenScan) {
		return macro.New(ScanBookSteps()...)
	}
	return nil
}

func (r *Resolver) templateVectors(ctx context.Context) ([][]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.templateVecs != nil {
		return r.templateVecs, nil
	}

	phrases := templatePhrases()
	vecs, err := r.call(ctx, func(ctx context.Context) ([][]float32, error) {
		return r.backend.EmbedBatch(ctx, phrases)
	})
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(phrases) {
		return nil, fmt.Errorf("%w: got %d template vectors, want %d", embed.ErrUnavailable, len(vecs), len(phrases))
	}

	r.templateVecs = vecs
	return vecs, nil
}

// call runs fn with the configured deadline and returns once it passes even
// if the backend ignores its context.
func (r *Resolver) call(ctx context.Context, fn func(context.Context) ([][]float32, error)) ([][]float32, error) {
	if r.backend == nil {
		return nil, fmt.Errorf("%w: no backend configured", embed.ErrUnavailable)
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	type outcome struct {
		vecs [][]float32
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("%w: backend panic: %v", embed.ErrUnavailable, p)}
			}
		}()
		vecs, err := fn(ctx)
		done <- outcome{vecs: vecs, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && !errors.Is(out.err, embed.ErrUnavailable) {
			out.err = fmt.Errorf("%w: %w", embed.ErrUnavailable, out.err)
		}
		if out.err == nil && len(out.vecs) == 0 {
			out.err = fmt.Errorf("%w: empty response", embed.ErrUnavailable)
		}
		return out.vecs, out.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", embed.ErrUnavailable, ctx.Err())
	}
}
