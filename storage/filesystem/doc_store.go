package filesystem

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sent "github.com/revelaction/dragnn-infer/sentence"
	"github.com/revelaction/dragnn-infer/storage"
)

const docExt = ".json"

// DocStore reads and writes one JSON file per doc in docDir.
type DocStore struct {
	docDir string
}

var _ storage.DocReader = (*DocStore)(nil)

// NewDocStore creates a filesystem document store. docDir must exist.
func NewDocStore(docDir string) (*DocStore, error) {
	info, err := os.Stat(docDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", docDir)
	}

	return &DocStore{docDir: docDir}, nil
}

// List returns the docs of the directory sorted by file name. The Id of a
// doc is its position in that order. Only the titles are read.
func (h *DocStore) List() ([]sent.Doc, error) {
	files, err := os.ReadDir(h.docDir)
	if err != nil {
		return nil, err
	}

	var docs []sent.Doc
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != docExt {
			continue
		}
		docs = append(docs, sent.Doc{
			Id:    len(docs),
			Title: strings.TrimSuffix(file.Name(), docExt),
		})
	}

	return docs, nil
}

// NewDocWriter returns a writer for a new doc titled title. It fails if
// the doc file already exists.
func (h *DocStore) NewDocWriter(title string, labels []string) (*DocWriter, error) {
	path := h.path(title)
	exists, err := storage.HasTitle(h, title)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("doc already exists: %s", path)
	}

	return &DocWriter{
		path: path,
		doc:  sent.Doc{Title: title, Labels: labels},
	}, nil
}

func (h *DocStore) path(title string) string {
	return filepath.Join(h.docDir, title+docExt)
}

// DocWriter collects the sentences in memory and writes the doc file on
// Close.
type DocWriter struct {
	path string
	doc  sent.Doc
}

var _ storage.DocWriter = (*DocWriter)(nil)

func (w *DocWriter) Add(s sent.Sentence) error {
	w.doc.Sentences = append(w.doc.Sentences, s)
	return nil
}

// Close writes the doc, through a temporary file renamed in place.
func (w *DocWriter) Close() error {
	data, err := json.MarshalIndent(w.doc, "", "  ")
	if err != nil {
		return err
	}

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write doc %s: %w", w.doc.Title, err)
	}

	return os.Rename(tmp, w.path)
}
