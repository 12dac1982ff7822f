package zombiezen

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	sent "github.com/revelaction/dragnn-infer/sentence"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func openStore(t *testing.T, path string) *sqlitex.Pool {
	t.Helper()
	pool, err := NewPool(path)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if err := CreateDocTables(pool); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return pool
}

func TestDocWriterAdd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parses.db")

	w, err := NewDocWriter(openStore(t, path), "news", []string{"en", "dragnn"})
	if err != nil {
		t.Fatalf("writer: %v", err)
	}

	s := sent.FromText("the cat sat")
	s.Text = "the cat sat"
	s.Tokens[0].Head = 1
	s.Tokens[1].Head = 2
	if err := w.Add(s); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := w.Add(sent.FromText("the dog")); err != nil {
		t.Fatalf("add: %v", err)
	}
	docID := w.DocID()
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	pool := openStore(t, path)
	defer pool.Close()

	docs, err := NewDocStore(pool).List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].Title != "news" || len(docs[0].Labels) != 2 || docs[0].Id != docID {
		t.Fatalf("unexpected docs %+v", docs)
	}

	conn, err := pool.Take(context.TODO())
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Put(conn)

	var texts []string
	var first []sent.Token
	err = sqlitex.Execute(conn, "SELECT text, data FROM sentences WHERE doc_id = ? ORDER BY rowid", &sqlitex.ExecOptions{
		Args: []interface{}{docID},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			texts = append(texts, stmt.ColumnText(0))
			if first == nil {
				return json.Unmarshal([]byte(stmt.ColumnText(1)), &first)
			}
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(texts) != 2 || texts[0] != "the cat sat" {
		t.Fatalf("unexpected sentences %q", texts)
	}
	if first[1].Head != 2 || first[2].Head != sent.Root {
		t.Errorf("unexpected tokens %+v", first)
	}

	// "the" appears in both sentences
	var n int
	err = sqlitex.Execute(conn, "SELECT count(*) FROM sentence_lemmas WHERE lemma = ?", &sqlitex.ExecOptions{
		Args: []interface{}{"the"},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			n = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected lemma 'the' in 2 sentences, got %d", n)
	}
}

func TestNewDocWriterExistingTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parses.db")

	w, err := NewDocWriter(openStore(t, path), "news", nil)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	pool := openStore(t, path)
	defer pool.Close()

	if _, err := NewDocWriter(pool, "news", nil); err == nil {
		t.Fatal("expected error for existing title")
	}

	docs, err := NewDocStore(pool).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected a single doc, got %d", len(docs))
	}
}
