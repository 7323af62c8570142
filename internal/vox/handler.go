package vox

import (
	"context"
	"encoding/json"
	"errors"
	log "log/slog"

	"github.com/google/uuid"

	"vocmd/internal/nlu"
)

type Resolver interface {
	Resolve(ctx context.Context, text string) nlu.Result
}

// Shard answers utterances posted on the bus with resolved macros.
type Shard struct {
	name     string
	bus      *Bus
	resolver Resolver
}

func NewShard(name string, bus *Bus, resolver Resolver) *Shard {
	return &Shard{name: name, bus: bus, resolver: resolver}
}

// Run serves the bus until ctx is done, redialing whenever the connection drops.
func (s *Shard) Run(ctx context.Context) error {
	log.Info("Shard ready", "name", s.name)

	// unblock Read on shutdown
	stop := context.AfterFunc(ctx, func() { s.bus.Close() })
	defer stop()

	for {
		msg, err := s.bus.Read()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrBadMessage) {
			log.Warn("Dropping bus message", "err", err)
			continue
		}
		if err != nil {
			if IsClosed(err) {
				log.Warn("Bus closed the connection", "err", err)
			} else {
				log.Error("Bus read failed", "err", err)
			}
			if err := s.bus.Reconnect(ctx); err != nil {
				return err
			}
			continue
		}

		if msg.Kind != KindUtterance || (msg.To != "" && msg.To != s.name) {
			continue
		}

		reply := s.Handle(ctx, msg)
		if err := s.bus.Write(reply); err != nil {
			log.Error("Failed to send reply", "to", msg.From, "err", err)
		}
	}
}

// Handle resolves one utterance into a macro or no_match reply.
func (s *Shard) Handle(ctx context.Context, msg *BusMessage) *BusMessage {
	res := s.resolver.Resolve(ctx, msg.Content)

	reply := &BusMessage{
		ID:     msg.ID,
		From:   s.name,
		To:     msg.From,
		Kind:   KindNoMatch,
		Status: res.Status.String(),
	}
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}

	if res.Macro == nil {
		reply.Content = res.Reason
		log.Info("No macro for utterance", "text", msg.Content, "reason", res.Reason)
		return reply
	}

	data, err := json.Marshal(res.Macro)
	if err != nil {
		log.Error("Failed to encode macro", "err", err)
		reply.Content = err.Error()
		return reply
	}

	reply.Kind = KindMacro
	reply.Content = string(data)
	log.Info("Resolved utterance", "text", msg.Content, "status", reply.Status, "steps", len(res.Macro.Steps))
	return reply
}
