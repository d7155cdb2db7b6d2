// Package logger holds the process-wide structured logger used outside the Nakama runtime.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the global logger. It writes through slog.Default until Init is called.
var Logger = slog.Default()

// Init replaces the global logger with a JSON logger on stderr at the level named by LOG_LEVEL.
func Init() {
	InitWith(os.Stderr, os.Getenv("LOG_LEVEL"))
}

// InitWith replaces the global logger with a JSON logger writing to w.
func InitWith(w io.Writer, level string) {
	Logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	slog.SetDefault(Logger)
}

// ParseLevel maps debug, info, warn/warning and error to slog levels. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debug(msg string, args ...any) { Logger.Debug(msg, args...) }

func Info(msg string, args ...any) { Logger.Info(msg, args...) }

func Warn(msg string, args ...any) { Logger.Warn(msg, args...) }

func Error(msg string, args ...any) { Logger.Error(msg, args...) }
