package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosuri/uiprogress"
	"github.com/revelaction/dragnn-infer/config"
	"github.com/revelaction/dragnn-infer/session"
	"github.com/revelaction/dragnn-infer/storage"
	"github.com/revelaction/dragnn-infer/storage/filesystem"
	"github.com/revelaction/dragnn-infer/storage/sqlite/zombiezen"
)

const (
	stdinTitle = "stdin"
	docLabel   = "dragnn"
)

func noop() error { return nil }

// openInput returns the line source of cfg. total is the number of lines
// of the input file, only counted when a progress bar is requested.
func openInput(cfg config.InputConfig, ui UI) (lines session.LineReader, total int, closeFn func() error, err error) {
	if cfg.Interactive {
		return session.NewPromptReader(), 0, noop, nil
	}

	if cfg.Path == "" {
		return session.NewScanReader(ui.In), 0, noop, nil
	}

	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("input: %w", err)
	}

	if cfg.Progress {
		total, err = countLines(f)
		if err == nil {
			_, err = f.Seek(0, io.SeekStart)
		}
		if err != nil {
			f.Close()
			return nil, 0, nil, fmt.Errorf("input %s: %w", cfg.Path, err)
		}
	}

	return session.NewScanReader(f), total, f.Close, nil
}

func countLines(r io.Reader) (int, error) {
	buf := make([]byte, 64*1024)
	count := 0
	last := byte('\n')

	for {
		n, err := r.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}

	if last != '\n' {
		count++
	}
	return count, nil
}

func openOutput(path string, ui UI) (io.Writer, func() error, error) {
	if path == "" {
		return ui.Out, noop, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("output: %w", err)
	}
	return f, f.Close, nil
}

// openStore returns the doc writer of cfg.Store, nil if none is configured.
// An existing directory selects the JSON doc store, any other path a SQLite
// database.
func openStore(cfg config.OutputConfig, inputPath string) (storage.DocWriter, error) {
	if cfg.Store == "" {
		return nil, nil
	}

	title := docTitle(cfg.DocTitle, inputPath)
	labels := []string{docLabel}

	info, err := os.Stat(cfg.Store)
	if err == nil && info.IsDir() {
		ds, err := filesystem.NewDocStore(cfg.Store)
		if err != nil {
			return nil, err
		}
		w, err := ds.NewDocWriter(title, labels)
		if err != nil {
			return nil, err
		}
		return w, nil
	}

	pool, err := zombiezen.NewPool(cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := zombiezen.CreateDocTables(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create docs table: %w", err)
	}

	w, err := zombiezen.NewDocWriter(pool, title, labels)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return w, nil
}

func docTitle(title, inputPath string) string {
	if title != "" {
		return title
	}
	if inputPath == "" {
		return stdinTitle
	}

	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type progress struct {
	p   *uiprogress.Progress
	bar *uiprogress.Bar
}

func newProgress(w io.Writer, total int) *progress {
	p := uiprogress.New()
	p.SetOut(w)
	p.Start()

	bar := p.AddBar(total)
	bar.AppendCompleted()
	bar.PrependElapsed()

	return &progress{p: p, bar: bar}
}

func (p *progress) Incr() {
	p.bar.Incr()
}

func (p *progress) Stop() {
	p.p.Stop()
}
