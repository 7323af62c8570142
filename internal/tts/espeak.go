package tts

import (
	"bytes"
	"context"
	"fmt"
	log "log/slog"
	"os/exec"
	"strings"
)

// Speaker voices the text of speak steps.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Espeak runs the espeak-ng command line synthesizer.
type Espeak struct {
	Binary string
	Voice  string
}

func NewEspeak(binary, voice string) *Espeak {
	if binary == "" {
		binary = "espeak-ng"
	}
	return &Espeak{Binary: binary, Voice: voice}
}

func (e *Espeak) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Binary, e.args(text)...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", e.Binary, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (e *Espeak) args(text string) []string {
	var args []string
	if e.Voice != "" {
		args = append(args, "-v", e.Voice)
	}
	return append(args, "--", text)
}

// Log only logs what would have been spoken.
type Log struct{}

func (Log) Speak(_ context.Context, text string) error {
	log.Info("Speak", "text", text)
	return nil
}
