package matching

import (
	"fmt"
	"strings"
	"unicode"

	"tabular-reconciliation-backend/internal/table"
)

type WhitespaceMode string

const (
	// WhitespaceCollapse turns every run of whitespace into one space.
	WhitespaceCollapse WhitespaceMode = "collapse"
	// WhitespaceStrip removes whitespace entirely.
	WhitespaceStrip WhitespaceMode = "strip"
	// WhitespaceTrim only removes leading and trailing whitespace.
	WhitespaceTrim WhitespaceMode = "trim"
)

type MissingPolicy string

const (
	// MissingNeverMatch keeps rows with an empty key component out of matching.
	MissingNeverMatch MissingPolicy = "never-match"
	// MissingPlaceholder writes MissingToken into the key instead.
	MissingPlaceholder MissingPolicy = "placeholder"
)

const DefaultMissingToken = "nan"

type Normalizer struct {
	Whitespace   WhitespaceMode
	Missing      MissingPolicy
	MissingToken string
}

func DefaultNormalizer() Normalizer {
	return Normalizer{
		Whitespace:   WhitespaceCollapse,
		Missing:      MissingNeverMatch,
		MissingToken: DefaultMissingToken,
	}
}

func ParseWhitespaceMode(s string) (WhitespaceMode, error) {
	switch m := WhitespaceMode(strings.ToLower(strings.TrimSpace(s))); m {
	case WhitespaceCollapse, WhitespaceStrip, WhitespaceTrim:
		return m, nil
	default:
		return "", fmt.Errorf("unknown whitespace mode %q", s)
	}
}

func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch p := MissingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case MissingNeverMatch, MissingPlaceholder:
		return p, nil
	default:
		return "", fmt.Errorf("unknown missing-value policy %q", s)
	}
}

// Normalize returns the matching form of a cell and whether it was missing.
func (n Normalizer) Normalize(c table.Cell) (string, bool) {
	if c.IsMissing() {
		if n.Missing == MissingPlaceholder {
			return n.MissingToken, true
		}
		return "", true
	}
	return n.NormalizeString(c.Text()), false
}

func (n Normalizer) NormalizeString(s string) string {
	switch n.Whitespace {
	case WhitespaceStrip:
		s = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, s)
	case WhitespaceTrim:
		s = strings.TrimSpace(s)
	default:
		s = strings.Join(strings.Fields(s), " ")
	}
	return strings.ToLower(s)
}
