package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/revelaction/dragnn-infer/config"
	"github.com/revelaction/dragnn-infer/engine/bridge"
	"github.com/revelaction/dragnn-infer/render"
	"github.com/revelaction/dragnn-infer/session"
	"github.com/urfave/cli/v2"
)

// UI contains the streams of the application.
// Used for injecting buffers during testing.
type UI struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func main() {
	ui := UI{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}

	if err := runApp(os.Args, ui); err != nil {
		fprintErr(ui.Err, err)
		os.Exit(1)
	}
}

func fprintErr(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "dragnn-infer: %v\n", err)
}

// runApp loads the .env file, then parses args. Without arguments it only
// prints the usage.
func runApp(args []string, ui UI) error {
	if err := config.LoadEnv(); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}

	app := newApp(ui)
	if len(args) < 2 {
		return app.Run([]string{app.Name, "--help"})
	}
	return app.Run(args)
}

func newApp(ui UI) *cli.App {
	return &cli.App{
		Name:                 "dragnn-infer",
		Usage:                "parse sentences with a trained DRAGNN model",
		UsageText:            "dragnn-infer --dragnn_spec SPEC --resource_path DIR --checkpoint_filename CKPT [options] < sentences.txt",
		Version:              version(),
		Reader:               ui.In,
		Writer:               ui.Out,
		ErrWriter:            ui.Err,
		EnableBashCompletion: true,
		HideHelpCommand:      true,
		Flags:                flags(),
		Action: func(c *cli.Context) error {
			if c.Args().Present() {
				return fmt.Errorf("unexpected argument %q", c.Args().First())
			}

			cfg, err := buildConfig(c)
			if err != nil {
				return err
			}

			return run(c.Context, cfg, ui)
		},
	}
}

func run(ctx context.Context, cfg *config.Config, ui UI) (err error) {
	// the child stderr, the logger, the progress bar and the duration line
	// all write to stderr from different goroutines
	errOut := newLockedWriter(ui.Err)

	logger, logOut, closeLog, err := newLogger(cfg.Log, errOut)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lines, total, closeIn, err := openInput(cfg.Input, ui)
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := openOutput(cfg.Output.Path, ui)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	renderer, err := render.New(cfg.Output.Format, out, cfg.Output.TextComment)
	if err != nil {
		return err
	}

	if cfg.Output.TraceDir != "" {
		if err := os.MkdirAll(cfg.Output.TraceDir, 0o755); err != nil {
			return fmt.Errorf("trace dir: %w", err)
		}
	}

	eng, err := bridge.New(ctx, logger, cfg, logOut)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("interrupted while loading the model")
			return nil
		}
		return err
	}
	defer func() {
		if cerr := eng.Close(); cerr != nil {
			logger.Warn("closing engine", slog.String("err", cerr.Error()))
		}
	}()

	h := session.NewHandler(eng, renderer, logger)
	h.Trace = cfg.Model.EnableTracing
	h.TraceDir = cfg.Output.TraceDir
	h.InferTimeout = cfg.Bridge.InferTimeout
	h.NFC = cfg.Input.NFC

	store, err := openStore(cfg.Output, cfg.Input.Path)
	if err != nil {
		return err
	}
	if store != nil {
		h.Store = store
	}

	if cfg.Input.Progress {
		bar := newProgress(errOut, total)
		defer bar.Stop()
		h.OnLine = bar.Incr
	}

	start := time.Now()
	stats, err := h.Run(ctx, lines)
	if store != nil {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("store: %w", cerr)
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(errOut, "duration time = %f\n", time.Since(start).Seconds())
	logger.Info("run stats",
		slog.Int("lines", stats.NumLines),
		slog.Int("sentences", stats.NumSentences),
		slog.Int("tokens", stats.NumTokens),
		slog.Int("tokens_per_sentence", stats.TokensPerSentenceMean),
	)

	return nil
}
