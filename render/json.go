package render

import (
	"encoding/json"
	"io"

	sent "github.com/revelaction/dragnn-infer/sentence"
)

// JSONRenderer writes each parsed sentence as one JSON object per line.
type JSONRenderer struct {
	W io.Writer
}

// NewJSONRenderer creates a JSONRenderer writing to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{W: w}
}

type jsonSentence struct {
	Text   string      `json:"text"`
	Tokens []sent.Token `json:"tokens"`
}

// Render serializes the sentence with its input text.
func (r *JSONRenderer) Render(text string, s sent.Sentence) error {
	return json.NewEncoder(r.W).Encode(jsonSentence{Text: text, Tokens: s.Tokens})
}

// compile-time interface check
var _ Renderer = (*JSONRenderer)(nil)
