package session

import (
	"bufio"
	"io"
	"strings"

	"github.com/c-bata/go-prompt"
)

// LineReader returns the next input line without its line terminator. It
// returns io.EOF when the input is exhausted.
type LineReader interface {
	ReadLine() (string, error)
}

// ScanReader reads lines of any length from an io.Reader.
type ScanReader struct {
	r *bufio.Reader
}

func NewScanReader(r io.Reader) *ScanReader {
	return &ScanReader{r: bufio.NewReader(r)}
}

func (s *ScanReader) ReadLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err == io.EOF && line != "" {
		// last line without newline
		err = nil
	}
	if err != nil {
		return "", err
	}

	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// PromptReader reads lines from the terminal with a line editor. The words
// quit and exit end the input.
type PromptReader struct {
	history []string
}

func NewPromptReader() *PromptReader {
	return &PromptReader{}
}

func (p *PromptReader) ReadLine() (string, error) {
	in := prompt.Input("      🌳 ", noSuggestions,
		prompt.OptionTitle("dragnn-infer"),
		prompt.OptionPrefixTextColor(prompt.Yellow),
		prompt.OptionHistory(p.history),
	)

	switch strings.TrimSpace(in) {
	case "quit", "exit":
		return "", io.EOF
	}

	if strings.TrimSpace(in) != "" {
		p.history = append(p.history, in)
	}
	return in, nil
}

func noSuggestions(in prompt.Document) []prompt.Suggest {
	return []prompt.Suggest{}
}
