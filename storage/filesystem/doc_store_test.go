package filesystem

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	sent "github.com/revelaction/dragnn-infer/sentence"
)

func readDoc(t *testing.T, path string) sent.Doc {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}

	var doc sent.Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal doc: %v", err)
	}
	return doc
}

func TestDocWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDocStore(dir)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	w, err := store.NewDocWriter("stdin", []string{"dragnn"})
	if err != nil {
		t.Fatalf("writer: %v", err)
	}

	s := sent.FromText("the cat sat")
	s.Text = "the cat sat"
	s.Tokens[2].Label = "root"
	if err := w.Add(s); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := w.Add(sent.FromText("hello")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	docs, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].Title != "stdin" {
		t.Fatalf("unexpected docs %+v", docs)
	}

	doc := readDoc(t, filepath.Join(dir, "stdin.json"))
	if len(doc.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(doc.Sentences))
	}
	if doc.Sentences[0].Text != "the cat sat" || doc.Sentences[0].Tokens[2].Label != "root" {
		t.Errorf("unexpected sentence %+v", doc.Sentences[0])
	}
	if doc.Labels[0] != "dragnn" {
		t.Errorf("unexpected labels %v", doc.Labels)
	}
}

func TestNewDocWriterExisting(t *testing.T) {
	store, err := NewDocStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	w, err := store.NewDocWriter("run", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := store.NewDocWriter("run", nil); err == nil {
		t.Fatal("expected error for existing doc")
	}
}

func TestListSkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	store, err := NewDocStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	docs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no docs, got %+v", docs)
	}
}

func TestNewDocStoreNotDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.db")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDocStore(path); err == nil {
		t.Fatal("expected error for a file")
	}
}
