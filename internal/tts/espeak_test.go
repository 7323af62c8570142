package tts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEspeakArgs(t *testing.T) {
	assert.Equal(t, []string{"-v", "fa", "--", "سلام"}, NewEspeak("", "fa").args("سلام"))
	assert.Equal(t, []string{"--", "-rf"}, (&Espeak{Binary: "espeak-ng"}).args("-rf"))
}

func TestEspeakDefaults(t *testing.T) {
	e := NewEspeak("", "en")
	assert.Equal(t, "espeak-ng", e.Binary)
}

func TestEspeakEmptyTextIsNoop(t *testing.T) {
	e := NewEspeak("/nonexistent/espeak", "en")
	require.NoError(t, e.Speak(context.Background(), "  "))
}

func TestEspeakMissingBinary(t *testing.T) {
	e := NewEspeak("/nonexistent/espeak", "en")
	err := e.Speak(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/espeak failed")
}

func TestLogSpeaker(t *testing.T) {
	var s Speaker = Log{}
	require.NoError(t, s.Speak(context.Background(), "hello"))
}
