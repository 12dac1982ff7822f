// Package tag parses the attributed tag string the parser stores in the tag
// field of each token.
//
// Two encodings are accepted. The text format of the SyntaxNet morphology
// message:
//
//	attribute { name: "Number" value: "Sing" } attribute { name: "fPOS" value: "NOUN++NN" }
//
// and the CoNLL feature list:
//
//	Number=Sing|fPOS=NOUN++NN
//
// Malformed input is an error, never a silently empty map.
package tag

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// FPOSKey is the attribute holding the compound part of speech.
	FPOSKey = "fPOS"

	// FPOSSeparator joins the coarse and the fine part of speech.
	FPOSSeparator = "++"

	featuresSeparator = "|"
	featureSeparator  = "="
	attributePrefix   = "attribute"
)

var (
	ErrMalformed = errors.New("malformed attributed tag")
	ErrNoFPOS    = errors.New("attributed tag has no fPOS attribute")
	ErrFPOSArity = errors.New("fPOS does not split in coarse and fine tag")
)

var attributeRe = regexp.MustCompile(`attribute\s*\{\s*name:\s*("(?:[^"\\]|\\.)*")\s*value:\s*("(?:[^"\\]|\\.)*")\s*\}`)

// Attributes maps attribute names to values.
type Attributes map[string]string

// Parse decodes an attributed tag. An empty string gives empty Attributes.
func Parse(s string) (Attributes, error) {
	s = strings.TrimSpace(s)
	attrs := Attributes{}
	if s == "" {
		return attrs, nil
	}

	if strings.HasPrefix(s, attributePrefix) {
		return parseText(s, attrs)
	}

	for _, feat := range strings.Split(s, featuresSeparator) {
		name, value, ok := strings.Cut(feat, featureSeparator)
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, feat)
		}
		attrs[name] = strings.TrimSpace(value)
	}

	return attrs, nil
}

func parseText(s string, attrs Attributes) (Attributes, error) {
	last := 0
	for _, m := range attributeRe.FindAllStringSubmatchIndex(s, -1) {
		if gap := strings.TrimSpace(s[last:m[0]]); gap != "" {
			return nil, fmt.Errorf("%w: unexpected %q", ErrMalformed, gap)
		}

		name, err := strconv.Unquote(s[m[2]:m[3]])
		if err != nil {
			return nil, fmt.Errorf("%w: name %s: %v", ErrMalformed, s[m[2]:m[3]], err)
		}
		value, err := strconv.Unquote(s[m[4]:m[5]])
		if err != nil {
			return nil, fmt.Errorf("%w: value %s: %v", ErrMalformed, s[m[4]:m[5]], err)
		}

		attrs[name] = value
		last = m[1]
	}

	if rest := strings.TrimSpace(s[last:]); rest != "" {
		return nil, fmt.Errorf("%w: unexpected %q", ErrMalformed, rest)
	}

	return attrs, nil
}

// FPOS returns the coarse and the fine part of speech of the fPOS
// attribute.
func (a Attributes) FPOS() (coarse, fine string, err error) {
	v, ok := a[FPOSKey]
	if !ok {
		return "", "", ErrNoFPOS
	}

	return SplitFPOS(v)
}

// SplitFPOS splits a compound part of speech on the ++ marker and the
// whitespace around it. Anything other than exactly two parts is an error.
func SplitFPOS(v string) (coarse, fine string, err error) {
	parts := strings.Fields(strings.ReplaceAll(v, FPOSSeparator, " "))
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q", ErrFPOSArity, v)
	}

	return parts[0], parts[1], nil
}
