package main

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/natefinch/lumberjack"
	"github.com/revelaction/dragnn-infer/config"
)

// newLogger returns a text logger on stderr, teed into a rotating file when
// cfg.File is set. w is the same destination, for the bridge stderr.
func newLogger(cfg config.LogConfig, stderr io.Writer) (logger *slog.Logger, w io.Writer, closeFn func() error, err error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	w = stderr
	closeFn = noop

	if cfg.File != "" {
		fileLogger := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = io.MultiWriter(stderr, fileLogger)
		closeFn = fileLogger.Close
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), w, closeFn, nil
}

// lockedWriter serializes writes of concurrent goroutines to w.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newLockedWriter(w io.Writer) *lockedWriter {
	return &lockedWriter{w: w}
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
