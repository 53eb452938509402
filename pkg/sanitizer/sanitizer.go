package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reKeepLettersDigits = regexp.MustCompile(`[^0-9\p{L}]+`)
	reTrimUnderscores   = regexp.MustCompile(`_+`)
)

func collapseUnderscores(s string) string {
	s = reTrimUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// TrimAndNormalize trims the string and collapses internal whitespace runs
// to single spaces. Used for free-text fields shown back to operators
// (customer names, notes).
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// SanitizeLabel normalizes identifiers used as lookup keys: zone names and
// table labels. Lowercased, non-alphanumerics folded to underscores.
func SanitizeLabel(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		func(s string) string { return reKeepLettersDigits.ReplaceAllString(s, "_") },
		collapseUnderscores,
		strings.ToLower,
	}
	return p.Apply(input)
}
