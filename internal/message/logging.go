package message

import (
	"io"
	"log/slog"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig configures where/how messages are additionally logged, grounded
// on tchow-twistedxcom-agent-deck's internal/logging.Config shape (LogDir +
// lumberjack rotation knobs, JSON by default).
type LogConfig struct {
	LogDir     string
	Level      string // "debug", "info", "warn", "error"
	Format     string // "json" (default) or "text"
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewLogger builds a slog.Logger per cfg. When LogDir is empty, logs are
// discarded — this is the CLI's default unless a log directory is
// configured.
func NewLogger(cfg LogConfig) *slog.Logger {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 5
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 10
	}

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var out io.Writer = io.Discard
	if cfg.LogDir != "" {
		out = &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogDir, "cuba.log"),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler)
}

// LogSubscriber subscribes to bus and, from a goroutine it starts itself,
// writes every message to logger until the returned cancel function is
// called.
func LogSubscriber(bus *Bus, logger *slog.Logger) func() {
	ch, cancel := bus.Subscribe()
	go func() {
		for msg := range ch {
			logMessage(logger, msg)
		}
	}()
	return cancel
}

func logMessage(logger *slog.Logger, msg Message) {
	switch m := msg.(type) {
	case *TaskMessage:
		if m.Err != nil {
			logger.Error("task", "rel_path", m.RelPath, "thread", m.Thread, "kind", m.Err.String(), "cause", errString(m.Cause))
		} else if m.Info != nil {
			logger.Debug("task", "rel_path", m.RelPath, "thread", m.Thread, "kind", m.Info.String())
		}
	case *CleanMessage:
		if m.Err != nil {
			logger.Error("clean", "rel_path", m.RelPath, "kind", m.Err.String(), "cause", errString(m.Cause))
		} else if m.Info != nil {
			logger.Info("clean", "rel_path", m.RelPath, "kind", m.Info.String())
		}
	case ProgressMessage:
		if m.IsTick {
			logger.Debug("progress", "ticks", m.Ticks)
		} else {
			logger.Info("progress", "duration", m.Duration)
		}
	case InfoMessage:
		logger.Info(m.Text)
	case WarnMessage:
		logger.Warn(m.Text)
	case ErrorMessage:
		logger.Error(m.Text, "cause", errString(m.Err))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
