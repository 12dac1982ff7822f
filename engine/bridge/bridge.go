// Package bridge runs the trained parser graph in a Python child process
// and talks to it over line delimited JSON on stdin and stdout.
//
// The first line sent is the model configuration. The child restores the
// checkpoint and answers with a status line, "ready" or "error". Each
// request then carries a batch of serialized sentences and is answered by a
// response with the same id.
package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/revelaction/dragnn-infer/config"
	"github.com/revelaction/dragnn-infer/engine"
)

const (
	protocolVersion = 1

	statusReady = "ready"
	statusError = "error"

	// largest response line accepted from the child
	maxLineSize = 64 << 20
)

var ErrExited = errors.New("bridge process exited")

// Hello is the configuration line sent to the child at startup.
type Hello struct {
	DragnnSpec         string `json:"dragnn_spec"`
	ResourcePath       string `json:"resource_path"`
	CheckpointFilename string `json:"checkpoint_filename"`
	EnableTracing      bool   `json:"enable_tracing"`
	Version            int    `json:"version"`
}

type status struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Version int    `json:"version"`
}

type request struct {
	ID            string   `json:"id"`
	InputBatch    [][]byte `json:"input_batch"`
	EnableTracing bool     `json:"enable_tracing"`
}

type response struct {
	ID          string   `json:"id"`
	Annotations [][]byte `json:"annotations"`
	Traces      [][]byte `json:"traces,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Engine is an engine.Engine backed by a child process.
type Engine struct {
	logger *slog.Logger
	cmd    *exec.Cmd
	stdin  io.WriteCloser

	lines   chan []byte
	quit    chan struct{}
	done    chan struct{}
	readErr error
	waitErr error

	shutdownTimeout time.Duration
	cleanup         func()

	mu     sync.Mutex
	closed bool
	broken error
}

var _ engine.Engine = (*Engine)(nil)

// New starts the bridge script described by cfg and waits until the model
// is restored.
func New(ctx context.Context, logger *slog.Logger, cfg *config.Config, stderr io.Writer) (*Engine, error) {
	script, cleanup, err := scriptPath(cfg.Bridge.Script)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(cfg.Bridge.Python, script)
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")
	cmd.Stderr = stderr

	logger.Info("starting bridge", slog.String("python", cfg.Bridge.Python), slog.String("script", script))

	e, err := Start(ctx, logger, cmd, HelloFor(cfg), cfg.Bridge.StartupTimeout, cfg.Bridge.ShutdownTimeout)
	if err != nil {
		cleanup()
		return nil, err
	}
	e.cleanup = cleanup

	return e, nil
}

// HelloFor returns the startup line for the model of cfg.
func HelloFor(cfg *config.Config) Hello {
	return Hello{
		DragnnSpec:         cfg.Model.DragnnSpec,
		ResourcePath:       cfg.Model.ResourcePath,
		CheckpointFilename: cfg.Model.CheckpointFilename,
		EnableTracing:      cfg.Model.EnableTracing,
		Version:            protocolVersion,
	}
}

// Start runs cmd, sends hello and waits up to startupTimeout for the ready
// status. cmd must not have its Stdin or Stdout set.
func Start(ctx context.Context, logger *slog.Logger, cmd *exec.Cmd, hello Hello, startupTimeout, shutdownTimeout time.Duration) (*Engine, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	isolate(cmd)

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("start process: %w", err)
	}

	e := &Engine{
		logger:          logger,
		cmd:             cmd,
		stdin:           stdin,
		lines:           make(chan []byte),
		quit:            make(chan struct{}),
		done:            make(chan struct{}),
		shutdownTimeout: shutdownTimeout,
		cleanup:         func() {},
	}
	go e.read(stdout)

	if err := e.handshake(ctx, hello, startupTimeout); err != nil {
		e.Close()
		return nil, err
	}

	logger.Info("bridge ready", slog.Int("pid", cmd.Process.Pid))
	return e, nil
}

func (e *Engine) handshake(ctx context.Context, hello Hello, timeout time.Duration) error {
	if err := e.send(hello); err != nil {
		return fmt.Errorf("send config: %w", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	line, err := e.next(ctx)
	if err != nil {
		return fmt.Errorf("failed to read ready message: %w", err)
	}

	var st status
	if err := json.Unmarshal(line, &st); err != nil {
		return fmt.Errorf("failed to parse ready message: %w", err)
	}

	switch st.Status {
	case statusReady:
		if st.Version != protocolVersion {
			return fmt.Errorf("bridge speaks protocol %d, want %d", st.Version, protocolVersion)
		}
		return nil
	case statusError:
		return fmt.Errorf("model load failed: %s", st.Error)
	}

	return fmt.Errorf("unexpected startup status: %s", st.Status)
}

// Infer sends one request and blocks until its response arrives or ctx is
// done. After a ctx error the engine is unusable, the response stream
// can no longer be matched to requests.
func (e *Engine) Infer(ctx context.Context, batch [][]byte, trace bool) (engine.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return engine.Result{}, engine.ErrClosed
	}
	if e.broken != nil {
		return engine.Result{}, e.broken
	}

	req := request{ID: uuid.NewString(), InputBatch: batch, EnableTracing: trace}
	if err := e.send(req); err != nil {
		e.broken = fmt.Errorf("write request: %w", err)
		return engine.Result{}, e.broken
	}

	start := time.Now()
	line, err := e.next(ctx)
	if err != nil {
		e.broken = fmt.Errorf("read response: %w", err)
		return engine.Result{}, e.broken
	}

	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		e.broken = fmt.Errorf("parse response: %w", err)
		return engine.Result{}, e.broken
	}

	if resp.ID != req.ID {
		e.broken = fmt.Errorf("response id %q does not match request %q", resp.ID, req.ID)
		return engine.Result{}, e.broken
	}

	if resp.Error != "" {
		return engine.Result{}, fmt.Errorf("bridge error: %s", resp.Error)
	}

	e.logger.Debug("inference done",
		slog.String("id", req.ID),
		slog.Int("batch", len(batch)),
		slog.Duration("elapsed", time.Since(start)),
	)

	res := engine.Result{Annotations: resp.Annotations}
	if trace {
		res.Traces = resp.Traces
	}

	if err := engine.Check(res, len(batch), trace); err != nil {
		return engine.Result{}, err
	}

	return res, nil
}

func (e *Engine) send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	b = append(b, '\n')
	_, err = e.stdin.Write(b)
	return err
}

func (e *Engine) next(ctx context.Context) ([]byte, error) {
	select {
	case line, ok := <-e.lines:
		if !ok {
			if e.readErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrExited, e.readErr)
			}
			return nil, ErrExited
		}
		return line, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// read forwards stdout lines until the child closes it, then reaps the
// process. Wait is only called once all reads are done.
func (e *Engine) read(stdout io.Reader) {
	defer close(e.done)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	func() {
		defer close(e.lines)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case e.lines <- line:
			case <-e.quit:
				return
			}
		}
		e.readErr = scanner.Err()
	}()

	// drain so the child never blocks on a full pipe while exiting
	_, _ = io.Copy(io.Discard, stdout)
	e.waitErr = e.cmd.Wait()
}

// Close ends the child: stdin is closed first, then the process is
// terminated, then killed, each step waiting the shutdown timeout. Close
// is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	close(e.quit)
	e.stdin.Close()

	select {
	case <-e.done:
	case <-time.After(e.shutdownTimeout):
		e.logger.Warn("bridge did not exit on EOF; terminating")
		_ = terminate(e.cmd.Process)

		select {
		case <-e.done:
		case <-time.After(e.shutdownTimeout):
			e.logger.Warn("bridge did not exit in time; sending SIGKILL")
			_ = e.cmd.Process.Kill()
			<-e.done
		}
	}

	e.cleanup()

	if e.waitErr != nil {
		e.logger.Debug("bridge exited", slog.String("err", e.waitErr.Error()))
	}

	return nil
}
