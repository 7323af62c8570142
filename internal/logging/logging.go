package logging

import (
	"io"
	log "log/slog"
	"strings"

	"github.com/lmittmann/tint"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Level parses name, falling back to info.
func Level(name string) log.Level {
	if lvl, ok := logLevelMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lvl
	}
	return log.LevelInfo
}

// Setup installs a tint logger writing to w as the process default.
func Setup(level string, w io.Writer) *log.Logger {
	logger := log.New(tint.NewHandler(w, &tint.Options{
		Level:      Level(level),
		TimeFormat: "15:04:05.000",
	}))
	log.SetDefault(logger)
	return logger
}
