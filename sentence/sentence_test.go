package sentence

import (
	"errors"
	"strings"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestFromTextCollapsesWhitespace(t *testing.T) {
	s := FromText("  the \t cat   sat \n")

	got := strings.Join(s.Words(), "|")
	if got != "the|cat|sat" {
		t.Fatalf("expected the|cat|sat, got %q", got)
	}

	for i, tok := range s.Tokens {
		if tok.Start != Unset || tok.End != Unset {
			t.Errorf("token %d: expected unset offsets, got %d-%d", i, tok.Start, tok.End)
		}
		if !tok.IsRoot() {
			t.Errorf("token %d: expected no head, got %d", i, tok.Head)
		}
	}
}

func TestFromTextBlank(t *testing.T) {
	s := FromText(" \t ")
	if len(s.Tokens) != 0 {
		t.Fatalf("expected no tokens, got %d", len(s.Tokens))
	}
}

func TestRoundTripKeepsWordOrder(t *testing.T) {
	in := FromText("où est la gare ?")

	out, err := Unmarshal(Marshal(in))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(out.Tokens) != len(in.Tokens) {
		t.Fatalf("expected %d tokens, got %d", len(in.Tokens), len(out.Tokens))
	}

	for i := range in.Tokens {
		if out.Tokens[i].Word != in.Tokens[i].Word {
			t.Errorf("token %d: expected %q, got %q", i, in.Tokens[i].Word, out.Tokens[i].Word)
		}
		if out.Tokens[i].Start != Unset || out.Tokens[i].End != Unset {
			t.Errorf("token %d: offsets not preserved: %d-%d", i, out.Tokens[i].Start, out.Tokens[i].End)
		}
	}
}

func TestRoundTripAnnotations(t *testing.T) {
	in := Sentence{
		DocID: "doc-1",
		Tokens: []Token{
			{Word: "cat", Start: 0, End: 2, Head: Root, Tag: "fPOS=NOUN++NN", Label: "root", BreakLevel: SpaceBreak},
			{Word: "sat", Start: 4, End: 6, Head: 0, Tag: "fPOS=VERB++VBD", Label: "acl:relcl", BreakLevel: NoBreak},
		},
	}

	out, err := Unmarshal(Marshal(in))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if out.DocID != "doc-1" {
		t.Errorf("expected docid doc-1, got %q", out.DocID)
	}

	for i := range in.Tokens {
		if out.Tokens[i] != in.Tokens[i] {
			t.Errorf("token %d: expected %+v, got %+v", i, in.Tokens[i], out.Tokens[i])
		}
	}
}

func TestUnmarshalMissingHeadIsRoot(t *testing.T) {
	var tok []byte
	tok = protowire.AppendTag(tok, fieldWord, protowire.BytesType)
	tok = protowire.AppendString(tok, "sat")
	tok = protowire.AppendTag(tok, fieldLabel, protowire.BytesType)
	tok = protowire.AppendString(tok, "root")

	var b []byte
	b = protowire.AppendTag(b, fieldToken, protowire.BytesType)
	b = protowire.AppendBytes(b, tok)

	s, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if s.Tokens[0].Head != Root {
		t.Fatalf("expected head %d, got %d", Root, s.Tokens[0].Head)
	}
}

func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	b := Marshal(FromText("hello world"))
	b = protowire.AppendTag(b, 1000, protowire.BytesType)
	b = protowire.AppendString(b, "extension")
	b = protowire.AppendTag(b, 1001, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)

	s, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(s.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(s.Tokens))
	}
}

func TestUnmarshalMalformed(t *testing.T) {
	// token field announces 5 bytes, only one follows
	b := []byte{0x1a, 0x05, 0x0a}

	_, err := Unmarshal(b)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestUnmarshalNegativeHead(t *testing.T) {
	in := Sentence{Tokens: []Token{NewToken("x")}}
	in.Tokens[0].Head = 3
	in.Tokens[0].Start = -1

	out, err := Unmarshal(Marshal(in))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Tokens[0].Head != 3 || out.Tokens[0].Start != -1 {
		t.Fatalf("unexpected token %+v", out.Tokens[0])
	}
}
