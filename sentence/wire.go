package sentence

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// WireVersion identifies the field layout below. It follows the SyntaxNet
// sentence.proto message the parser graph consumes and produces.
const WireVersion = 1

// Sentence fields
const (
	fieldDocID protowire.Number = 1
	fieldText  protowire.Number = 2
	fieldToken protowire.Number = 3
)

// Token fields
const (
	fieldWord       protowire.Number = 1
	fieldStart      protowire.Number = 2
	fieldEnd        protowire.Number = 3
	fieldHead       protowire.Number = 4
	fieldTag        protowire.Number = 5
	fieldCategory   protowire.Number = 6
	fieldLabel      protowire.Number = 7
	fieldBreakLevel protowire.Number = 8
)

// ErrMalformed is returned by Unmarshal for payloads that are not a valid
// sentence message.
var ErrMalformed = errors.New("malformed sentence payload")

// Marshal serializes s in the binary sentence wire format.
func Marshal(s Sentence) []byte {
	var b []byte
	if s.DocID != "" {
		b = protowire.AppendTag(b, fieldDocID, protowire.BytesType)
		b = protowire.AppendString(b, s.DocID)
	}
	if s.Text != "" {
		b = protowire.AppendTag(b, fieldText, protowire.BytesType)
		b = protowire.AppendString(b, s.Text)
	}
	for _, t := range s.Tokens {
		b = protowire.AppendTag(b, fieldToken, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalToken(t))
	}
	return b
}

func marshalToken(t Token) []byte {
	var b []byte
	// word, start and end are required fields
	b = protowire.AppendTag(b, fieldWord, protowire.BytesType)
	b = protowire.AppendString(b, t.Word)
	b = appendInt32(b, fieldStart, t.Start)
	b = appendInt32(b, fieldEnd, t.End)

	if t.Head != Root {
		b = appendInt32(b, fieldHead, t.Head)
	}
	if t.Tag != "" {
		b = protowire.AppendTag(b, fieldTag, protowire.BytesType)
		b = protowire.AppendString(b, t.Tag)
	}
	if t.Category != "" {
		b = protowire.AppendTag(b, fieldCategory, protowire.BytesType)
		b = protowire.AppendString(b, t.Category)
	}
	if t.Label != "" {
		b = protowire.AppendTag(b, fieldLabel, protowire.BytesType)
		b = protowire.AppendString(b, t.Label)
	}
	if t.BreakLevel != SpaceBreak {
		b = appendInt32(b, fieldBreakLevel, int(t.BreakLevel))
	}
	return b
}

// int32 values are sign extended to 64 bits, as protobuf does
func appendInt32(b []byte, num protowire.Number, v int) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(int32(v))))
}

// Unmarshal decodes a sentence payload. Unknown fields are skipped. Fields
// missing from a token keep the defaults of NewToken.
func Unmarshal(b []byte) (Sentence, error) {
	var s Sentence
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Sentence{}, wireError("sentence tag", n)
		}
		b = b[n:]

		switch {
		case num == fieldDocID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Sentence{}, wireError("docid", n)
			}
			s.DocID = v
			b = b[n:]
		case num == fieldText && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Sentence{}, wireError("text", n)
			}
			s.Text = v
			b = b[n:]
		case num == fieldToken && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Sentence{}, wireError("token", n)
			}
			t, err := unmarshalToken(v)
			if err != nil {
				return Sentence{}, fmt.Errorf("token %d: %w", len(s.Tokens), err)
			}
			s.Tokens = append(s.Tokens, t)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Sentence{}, wireError(fmt.Sprintf("field %d", num), n)
			}
			b = b[n:]
		}
	}

	return s, nil
}

func unmarshalToken(b []byte) (Token, error) {
	t := NewToken("")
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Token{}, wireError("token tag", n)
		}
		b = b[n:]

		if typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Token{}, wireError(fmt.Sprintf("field %d", num), n)
			}
			b = b[n:]
			switch num {
			case fieldStart:
				t.Start = int(int32(v))
			case fieldEnd:
				t.End = int(int32(v))
			case fieldHead:
				t.Head = int(int32(v))
			case fieldBreakLevel:
				t.BreakLevel = BreakLevel(int32(v))
			}
			continue
		}

		if typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Token{}, wireError(fmt.Sprintf("field %d", num), n)
			}
			b = b[n:]
			switch num {
			case fieldWord:
				t.Word = v
			case fieldTag:
				t.Tag = v
			case fieldCategory:
				t.Category = v
			case fieldLabel:
				t.Label = v
			}
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return Token{}, wireError(fmt.Sprintf("field %d", num), n)
		}
		b = b[n:]
	}

	return t, nil
}

func wireError(what string, n int) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, what, protowire.ParseError(n))
}
