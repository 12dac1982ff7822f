package render

import (
	"fmt"
	"io"
	"strings"

	sent "github.com/revelaction/dragnn-infer/sentence"
)

const (
	FormatCoNLL   = "conll"
	FormatJSON    = "json"
	DefaultFormat = FormatCoNLL
)

func SupportedFormats() []string {
	return []string{FormatCoNLL, FormatJSON}
}

// Renderer writes one parsed sentence. text is the input line the sentence
// was built from.
type Renderer interface {
	Render(text string, s sent.Sentence) error
}

// New returns the Renderer for format writing to w.
func New(format string, w io.Writer, textComment bool) (Renderer, error) {
	switch format {
	case FormatCoNLL:
		r := NewCoNLLRenderer(w)
		r.TextComment = textComment
		return r, nil
	case FormatJSON:
		return NewJSONRenderer(w), nil
	}

	return nil, fmt.Errorf("unknown format %q, allowed values are %s", format, strings.Join(SupportedFormats(), ", "))
}
