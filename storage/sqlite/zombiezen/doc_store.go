package zombiezen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sent "github.com/revelaction/dragnn-infer/sentence"
	"github.com/revelaction/dragnn-infer/storage"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

type DocStore struct {
	pool *sqlitex.Pool
}

var _ storage.DocReader = (*DocStore)(nil)

func NewDocStore(pool *sqlitex.Pool) *DocStore {
	return &DocStore{pool: pool}
}

func (h *DocStore) List() ([]sent.Doc, error) {
	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer h.pool.Put(conn)

	var docs []sent.Doc
	err = sqlitex.Execute(conn, "SELECT id, title, labels FROM docs ORDER BY id", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			doc := sent.Doc{
				Id:    stmt.ColumnInt(0),
				Title: stmt.ColumnText(1),
			}
			labelsStr := stmt.ColumnText(2)
			if labelsStr != "" {
				doc.Labels = strings.Split(labelsStr, ",")
			}
			docs = append(docs, doc)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DocWriter appends parsed sentences to one doc row. Each sentence is
// committed on its own, so a fatal error later in the run keeps the
// sentences already parsed.
type DocWriter struct {
	pool  *sqlitex.Pool
	docID int64
}

var _ storage.DocWriter = (*DocWriter)(nil)

// NewDocWriter inserts a doc titled title and returns a writer for its
// sentences. A doc with the same title is an error. The writer owns pool
// and closes it on Close.
func NewDocWriter(pool *sqlitex.Pool, title string, labels []string) (*DocWriter, error) {
	exists, err := storage.HasTitle(NewDocStore(pool), title)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("doc already exists: %s", title)
	}

	conn, err := pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer pool.Put(conn)

	err = sqlitex.Execute(conn, "INSERT INTO docs (title, labels) VALUES (?, ?)", &sqlitex.ExecOptions{
		Args: []interface{}{title, strings.Join(labels, ",")},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert doc: %w", err)
	}

	return &DocWriter{pool: pool, docID: conn.LastInsertRowID()}, nil
}

// DocID returns the id of the doc row being written.
func (w *DocWriter) DocID() int {
	return int(w.docID)
}

func (w *DocWriter) Add(s sent.Sentence) (err error) {
	conn, err := w.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer w.pool.Put(conn)

	// Start Transaction
	defer sqlitex.Save(conn)(&err)

	data, err := json.Marshal(s.Tokens)
	if err != nil {
		return err
	}

	err = sqlitex.Execute(conn, "INSERT INTO sentences (doc_id, text, data) VALUES (?, ?, ?)", &sqlitex.ExecOptions{
		Args: []interface{}{w.docID, s.Text, string(data)},
	})
	if err != nil {
		return fmt.Errorf("failed to insert sentence: %w", err)
	}
	sentRowID := conn.LastInsertRowID()

	// the parser predicts no lemma, words are indexed instead
	uniqueLemmas := make(map[string]bool)
	for _, token := range s.Tokens {
		if token.Word != "" {
			uniqueLemmas[token.Word] = true
		}
	}

	for lemma := range uniqueLemmas {
		err = sqlitex.Execute(conn, "INSERT INTO sentence_lemmas (lemma, sentence_rowid) VALUES (?, ?)", &sqlitex.ExecOptions{
			Args: []interface{}{lemma, sentRowID},
		})
		if err != nil {
			return fmt.Errorf("failed to insert lemma: %w", err)
		}
	}

	return nil
}

func (w *DocWriter) Close() error {
	return w.pool.Close()
}
