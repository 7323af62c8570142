// Package assistant wires the resolver, alias store and executor together and
// serves control requests from vocmd-ctl.
package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"vocmd/internal/aliases"
	"vocmd/internal/config"
	"vocmd/internal/executor"
	"vocmd/internal/ipc"
	"vocmd/internal/macro"
	"vocmd/internal/nlu"
	"vocmd/internal/platform"
	"vocmd/internal/proxy"
	"vocmd/internal/safety"
	"vocmd/internal/tts"
	"vocmd/pkg/embed"
)

// RunTimeout bounds the execution of one macro.
const RunTimeout = 10 * time.Minute

type Assistant struct {
	resolver *nlu.Resolver
	aliases  *aliases.Store
	executor *executor.Executor
}

func New(resolver *nlu.Resolver, store *aliases.Store, exec *executor.Executor) *Assistant {
	return &Assistant{resolver: resolver, aliases: store, executor: exec}
}

// Build constructs the backend, resolver, alias store and executor described
// by cfg. The embedding backend is built on first use.
func Build(cfg *config.Config) (*Assistant, *embed.Lazy, error) {
	triggers, err := loadTriggers(cfg.Resolver)
	if err != nil {
		return nil, nil, err
	}

	httpClient, err := proxy.NewClient(cfg.Embedding.Proxy, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("proxy %s: %w", cfg.Embedding.Proxy, err)
	}

	ec := cfg.EmbedConfig()
	ec.HTTPClient = httpClient
	backend := embed.NewLazy(func(ctx context.Context) (embed.Embedder, error) {
		return embed.NewEngine(ctx, ec)
	})

	goos := platform.Current()
	resolver := nlu.New(backend, nlu.Options{
		Threshold:          cfg.Resolver.Threshold,
		Timeout:            cfg.Resolver.Timeout,
		GOOS:               goos,
		Triggers:           triggers,
		ConfirmLiteralApps: cfg.Resolver.ConfirmLiteralApps,
	})

	store := aliases.NewStore(cfg.Aliases.File, nil)
	if err := store.Load(); err != nil {
		return nil, nil, fmt.Errorf("aliases: %w", err)
	}

	exec := executor.New(
		executor.ShellRunner{GOOS: goos},
		tts.NewEspeak(cfg.Executor.TTSBinary, cfg.Executor.Voice),
		executor.WithGOOS(goos),
		executor.WithSearchURL(cfg.Executor.SearchURL),
	)

	return New(resolver, store, exec), backend, nil
}

func loadTriggers(cfg config.ResolverConfig) (*nlu.Triggers, error) {
	if cfg.TriggersFile != "" {
		t, err := nlu.LoadTriggers(cfg.TriggersFile, cfg.SecondaryLanguage)
		if err != nil {
			return nil, fmt.Errorf("triggers: %w", err)
		}
		return t, nil
	}

	t, err := nlu.NewTriggers(nlu.DefaultTriggerTable(), cfg.SecondaryLanguage)
	if err != nil {
		return nil, fmt.Errorf("triggers: %w", err)
	}
	return t, nil
}

func (a *Assistant) Aliases() *aliases.Store { return a.aliases }

// Resolve checks the aliases first, then the resolver.
func (a *Assistant) Resolve(ctx context.Context, text string) nlu.Result {
	if a.aliases != nil {
		if m, err := a.aliases.Lookup(text); err == nil {
			log.Debug("Matched alias", "phrase", m.Phrase, "exact", m.Exact)
			return nlu.Result{Status: nlu.Matched, Macro: m.Macro()}
		}
	}
	return a.resolver.Resolve(ctx, text)
}

// Handler serves control requests. ctx bounds every request.
func (a *Assistant) Handler(ctx context.Context) ipc.Handler {
	return func(req ipc.Request) ipc.Reply {
		log.Debug("Control request", "id", req.ID, "cmd", req.Cmd)

		switch req.Cmd {
		case ipc.CmdResolve:
			return a.handleResolve(ctx, req)
		case ipc.CmdRun:
			return a.handleRun(ctx, req)
		case ipc.CmdReload:
			if err := a.aliases.Load(); err != nil {
				return errorReply(err)
			}
			return ipc.Reply{Status: ipc.StatusOK, Message: "aliases reloaded"}
		case ipc.CmdAliases:
			return ipc.Reply{Status: ipc.StatusOK, Aliases: a.aliases.All()}
		case ipc.CmdAlias:
			if err := a.aliases.Set(req.Text, req.Command); err != nil {
				return errorReply(err)
			}
			if err := a.aliases.Save(); err != nil {
				return errorReply(err)
			}
			return ipc.Reply{Status: ipc.StatusOK, Message: fmt.Sprintf("alias %q saved", strings.TrimSpace(req.Text))}
		case ipc.CmdUnalias:
			if err := a.aliases.Remove(req.Text); err != nil {
				return errorReply(err)
			}
			if err := a.aliases.Save(); err != nil {
				return errorReply(err)
			}
			return ipc.Reply{Status: ipc.StatusOK, Message: fmt.Sprintf("alias %q removed", strings.TrimSpace(req.Text))}
		default:
			log.Warn("Unknown command", "cmd", req.Cmd)
			return ipc.Reply{Status: ipc.StatusError, Message: fmt.Sprintf("unknown command %q", req.Cmd)}
		}
	}
}

func (a *Assistant) handleResolve(ctx context.Context, req ipc.Request) ipc.Reply {
	res := a.Resolve(ctx, req.Text)
	if res.Macro == nil {
		return ipc.Reply{Status: ipc.StatusNoMatch, Message: res.Reason}
	}
	return ipc.Reply{Status: ipc.StatusOK, Macro: res.Macro, Message: describe(res)}
}

func (a *Assistant) handleRun(ctx context.Context, req ipc.Request) ipc.Reply {
	res := a.Resolve(ctx, req.Text)
	if res.Macro == nil {
		return ipc.Reply{Status: ipc.StatusNoMatch, Message: res.Reason}
	}

	m := res.Macro
	if req.Approved != nil && !req.Approved.Equal(m) {
		log.Warn("Resolved macro differs from the approved one", "text", req.Text)
		return ipc.Reply{Status: ipc.StatusConfirm, Macro: m, Message: "macro changed since approval; " + confirmReason(m)}
	}

	confirmed := req.Confirmed || req.Approved != nil
	if m.RequiresConfirmation && !confirmed {
		return ipc.Reply{Status: ipc.StatusConfirm, Macro: m, Message: confirmReason(m)}
	}

	var confirm executor.ConfirmFunc
	if confirmed {
		confirm = executor.Yes
	}

	runCtx, cancel := context.WithTimeout(ctx, RunTimeout)
	defer cancel()

	log.Info("Running macro", "text", req.Text, "status", res.Status, "steps", len(m.Steps))
	if err := a.executor.Run(runCtx, m, confirm); err != nil {
		log.Error("Failed to run macro", "err", err)
		return ipc.Reply{Status: ipc.StatusError, Macro: m, Message: err.Error()}
	}

	return ipc.Reply{Status: ipc.StatusOK, Macro: m, Message: describe(res)}
}

func describe(res nlu.Result) string {
	if res.Reason == "" {
		return res.Status.String()
	}
	return fmt.Sprintf("%s: %s", res.Status, res.Reason)
}

// confirmReason lists the safety rules the macro trips, or notes that it
// runs an unrecognised command verbatim.
func confirmReason(m *macro.Macro) string {
	var reasons []string
	for _, cmd := range m.ShellCommands() {
		reasons = append(reasons, safety.Reasons(cmd)...)
	}
	if len(reasons) == 0 {
		return "runs an unrecognised command verbatim"
	}
	return strings.Join(reasons, "; ")
}

func errorReply(err error) ipc.Reply {
	if errors.Is(err, aliases.ErrNotFound) {
		return ipc.Reply{Status: ipc.StatusNoMatch, Message: err.Error()}
	}
	return ipc.Reply{Status: ipc.StatusError, Message: err.Error()}
}
