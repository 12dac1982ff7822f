package stat

import (
	sent "github.com/revelaction/dragnn-infer/sentence"
)

type Handler struct {
	stats Stats
}

type Stats struct {
	NumLines              int
	NumSentences          int
	NumTokens             int
	TokensPerSentenceMean int
	TokensPerSentenceDis  map[int]int
}

func (h *Handler) Get() Stats {
	return h.stats
}

func NewHandler() *Handler {
	stats := Stats{TokensPerSentenceDis: map[int]int{}}
	return &Handler{
		stats: stats,
	}
}

// Line counts an input line, parsed or skipped.
func (h *Handler) Line() {
	h.stats.NumLines++
}

// Aggregate adds a parsed sentence to the stats.
func (h *Handler) Aggregate(s sent.Sentence) {
	h.stats.NumSentences++
	h.stats.NumTokens += len(s.Tokens)
	h.stats.TokensPerSentenceDis[len(s.Tokens)]++

	h.stats.TokensPerSentenceMean = h.stats.NumTokens / h.stats.NumSentences
}
