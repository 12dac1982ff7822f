package storage

import (
	sent "github.com/revelaction/dragnn-infer/sentence"
)

// DocReader defines read operations for document storage
type DocReader interface {
	// List returns the metadata (Id, Title, Labels) of documents.
	// Sentences are not loaded.
	List() ([]sent.Doc, error)
}

// HasTitle reports whether r already holds a doc titled title.
func HasTitle(r DocReader, title string) (bool, error) {
	docs, err := r.List()
	if err != nil {
		return false, err
	}

	for _, d := range docs {
		if d.Title == title {
			return true, nil
		}
	}
	return false, nil
}

// DocWriter receives the parsed sentences of one document, in input order.
type DocWriter interface {
	// Add persists a parsed sentence
	Add(s sent.Sentence) error

	// Close flushes the document and releases the store
	Close() error
}
