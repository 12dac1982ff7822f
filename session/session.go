// Package session runs the per-line parse loop: encode the line, run the
// engine, decode the annotated sentence and render it.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/revelaction/dragnn-infer/engine"
	"github.com/revelaction/dragnn-infer/render"
	sent "github.com/revelaction/dragnn-infer/sentence"
	"github.com/revelaction/dragnn-infer/stat"
	"github.com/revelaction/dragnn-infer/storage"
	"golang.org/x/text/unicode/norm"
)

type Handler struct {
	Engine   engine.Engine
	Renderer render.Renderer

	// Store receives every parsed sentence when not nil.
	Store storage.DocWriter

	Trace bool
	// TraceDir receives the raw trace payloads when not empty.
	TraceDir string

	// InferTimeout bounds each engine call. Zero waits forever.
	InferTimeout time.Duration

	NFC bool

	// OnLine is called after each line read, blank or not.
	OnLine func()

	Logger *slog.Logger

	stats *stat.Handler
}

func NewHandler(e engine.Engine, r render.Renderer, logger *slog.Logger) *Handler {
	return &Handler{
		Engine:   e,
		Renderer: r,
		Logger:   logger,
		stats:    stat.NewHandler(),
	}
}

type readResult struct {
	line string
	err  error
}

// Run processes the lines of r in order until EOF or until ctx is done.
// Both end the session normally. Any failure processing a line is returned
// wrapped with its 1-based line number.
func (h *Handler) Run(ctx context.Context, r LineReader) (stat.Stats, error) {
	if h.stats == nil {
		h.stats = stat.NewHandler()
	}
	if h.Logger == nil {
		h.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	lines := make(chan readResult)
	done := make(chan struct{})
	defer close(done)

	// ReadLine cannot be interrupted, the goroutine is left behind on a
	// cancelled session.
	go func() {
		for {
			line, err := r.ReadLine()
			select {
			case lines <- readResult{line: line, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	num := 0
	for {
		var res readResult
		select {
		case <-ctx.Done():
			h.Logger.Info("session interrupted", "lines", num)
			return h.stats.Get(), nil
		case res = <-lines:
		}

		if errors.Is(res.err, io.EOF) {
			return h.stats.Get(), nil
		}
		if res.err != nil {
			return h.stats.Get(), fmt.Errorf("read line %d: %w", num+1, res.err)
		}

		num++
		h.stats.Line()

		err := h.process(ctx, num, res.line)
		if h.OnLine != nil {
			h.OnLine()
		}
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				h.Logger.Info("session interrupted during inference", "line", num)
				return h.stats.Get(), nil
			}
			return h.stats.Get(), fmt.Errorf("line %d: %w", num, err)
		}
	}
}

func (h *Handler) process(ctx context.Context, num int, line string) error {
	if h.NFC {
		line = norm.NFC.String(line)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		h.Logger.Debug("skipping blank line", "line", num)
		return nil
	}

	s := sent.FromText(line)
	payload := sent.Marshal(s)

	if h.InferTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.InferTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := h.Engine.Infer(ctx, [][]byte{payload}, h.Trace)
	if err != nil {
		return fmt.Errorf("inference: %w", err)
	}
	if err := engine.Check(res, 1, h.Trace); err != nil {
		return err
	}
	h.Logger.Debug("inference done", "line", num, "tokens", len(s.Tokens), "elapsed", time.Since(start))

	parsed, err := sent.Unmarshal(res.Annotations[0])
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if parsed.Text == "" {
		parsed.Text = line
	}

	if err := h.Renderer.Render(line, parsed); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	h.stats.Aggregate(parsed)

	if h.Store != nil {
		if err := h.Store.Add(parsed); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}

	if h.Trace && h.TraceDir != "" {
		if err := h.writeTraces(num, res.Traces); err != nil {
			return err
		}
	}

	return nil
}

func (h *Handler) writeTraces(num int, traces [][]byte) error {
	for i, t := range traces {
		path := filepath.Join(h.TraceDir, fmt.Sprintf("%d-%d.trace", num, i))
		if err := os.WriteFile(path, t, 0o644); err != nil {
			return fmt.Errorf("trace: %w", err)
		}
	}
	return nil
}
