package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	sent "github.com/revelaction/dragnn-infer/sentence"
	"github.com/revelaction/dragnn-infer/tag"
)

const (
	fieldSeparator = "\t"
	emptyField     = "_"
	textPrefix     = "# text = "

	// sentences are terminated by two empty lines
	sentenceTerminator = "\n\n"
)

// Row is a single token line of a CoNLL block.
type Row struct {
	ID      int
	Form    string
	Lemma   string
	CPosTag string
	PosTag  string
	Head    int
	DepRel  string
}

func (r Row) String() string {
	fields := []string{
		strconv.Itoa(r.ID),
		r.Form,
		r.Lemma,
		r.CPosTag,
		r.PosTag,
		emptyField,
		strconv.Itoa(r.Head),
		r.DepRel,
		emptyField,
		emptyField,
	}
	return strings.Join(fields, fieldSeparator)
}

// Rows converts the tokens of s to CoNLL rows. The lemma is not predicted,
// so the word fills both the form and the lemma column.
func Rows(s sent.Sentence) ([]Row, error) {
	rows := make([]Row, 0, len(s.Tokens))
	for i, token := range s.Tokens {
		attrs, err := tag.Parse(token.Tag)
		if err != nil {
			return nil, fmt.Errorf("token %d %q: %w", i+1, token.Word, err)
		}

		coarse, fine, err := attrs.FPOS()
		if err != nil {
			return nil, fmt.Errorf("token %d %q: %w", i+1, token.Word, err)
		}

		rows = append(rows, Row{
			ID:      i + 1,
			Form:    token.Word,
			Lemma:   token.Word,
			CPosTag: coarse,
			PosTag:  fine,
			Head:    token.Head + 1,
			DepRel:  Label(token.Label),
		})
	}

	return rows, nil
}

// Label returns the relation before the first colon of label.
func Label(label string) string {
	rel, _, _ := strings.Cut(label, ":")
	return rel
}

// CoNLLRenderer writes sentences as tab separated CoNLL blocks.
type CoNLLRenderer struct {
	W io.Writer

	// TextComment prefixes each block with a "# text = " line.
	TextComment bool
}

func NewCoNLLRenderer(w io.Writer) *CoNLLRenderer {
	return &CoNLLRenderer{W: w}
}

// Render builds every row before writing, a token that fails to format
// produces no output for the whole sentence.
func (r *CoNLLRenderer) Render(text string, s sent.Sentence) error {
	rows, err := Rows(s)
	if err != nil {
		return err
	}

	var b strings.Builder
	if r.TextComment {
		b.WriteString(textPrefix)
		b.WriteString(text)
		b.WriteByte('\n')
	}

	for _, row := range rows {
		b.WriteString(row.String())
		b.WriteByte('\n')
	}
	b.WriteString(sentenceTerminator)

	_, err = io.WriteString(r.W, b.String())
	return err
}

var _ Renderer = (*CoNLLRenderer)(nil)
