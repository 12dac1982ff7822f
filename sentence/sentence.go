package sentence

import "strings"

// Unset is the value of Token.Start and Token.End when offsets are unknown.
const Unset = -1

// Root is the Token.Head value of a token without governor.
const Root = -1

// BreakLevel is the kind of break preceding a token in the original text.
type BreakLevel int32

const (
	NoBreak BreakLevel = iota
	SpaceBreak
	LineBreak
	SentenceBreak
)

// Doc is a collection of parsed sentences persisted under a title.
type Doc struct {
	Id int `json:"id"`

	Title string `json:"title"`

	Labels    []string   `json:"labels,omitempty"`
	Sentences []Sentence `json:"sentences"`
}

// Sentence is the ordered sequence of tokens of one input line.
type Sentence struct {
	DocID string `json:"docid,omitempty"`
	Text  string `json:"text,omitempty"`

	Tokens []Token `json:"tokens"`
}

// Token represents a word of the sentence, with the annotations of the parser.
type Token struct {
	// The unmodified word
	Word string `json:"word"`

	// Character offsets in the original text, Unset when unknown.
	Start int `json:"start"`
	End   int `json:"end"`

	// Index of the governing token in the sentence, starting at 0. Root for
	// the root token.
	Head int `json:"head"`

	// An attributed tag string, see the tag package.
	Tag      string `json:"tag,omitempty"`
	Category string `json:"category,omitempty"`

	// Dependency relation, optionally with a sub label after a colon.
	Label string `json:"label,omitempty"`

	BreakLevel BreakLevel `json:"break_level"`
}

// NewToken returns a token for word with unset offsets and no head.
func NewToken(word string) Token {
	return Token{
		Word:       word,
		Start:      Unset,
		End:        Unset,
		Head:       Root,
		BreakLevel: SpaceBreak,
	}
}

// FromText splits line on whitespace and returns a Sentence with one token
// per word. Runs of whitespace collapse, so no token is ever empty.
func FromText(line string) Sentence {
	words := strings.Fields(line)
	s := Sentence{Tokens: make([]Token, 0, len(words))}
	for _, w := range words {
		s.Tokens = append(s.Tokens, NewToken(w))
	}

	return s
}

// Words returns the words of the sentence in order.
func (s Sentence) Words() []string {
	words := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		words[i] = t.Word
	}
	return words
}

// IsRoot reports whether the token has no governor.
func (t Token) IsRoot() bool {
	return t.Head < 0
}
