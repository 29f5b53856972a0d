package settings

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeKey turns free text into a camelCase key: words are split on
// separators, case changes and digit boundaries, the first word is lower
// cased and every following word is capitalized. NormalizeKey(NormalizeKey(s))
// equals NormalizeKey(s).
func NormalizeKey(s string) string {
	var (
		b     strings.Builder
		lower = cases.Lower(language.Und)
		title = cases.Title(language.Und)
	)

	for i, w := range splitWords(s) {
		if i == 0 {
			b.WriteString(lower.String(w))
			continue
		}

		b.WriteString(title.String(w))
	}

	return b.String()
}

type runeClass int

const (
	classSep runeClass = iota
	classUpper
	classLower
	classDigit
)

func classify(r rune) runeClass {
	switch {
	case unicode.IsUpper(r):
		return classUpper
	case unicode.IsDigit(r):
		return classDigit
	case unicode.IsLetter(r):
		return classLower
	default:
		return classSep
	}
}

// splitWords breaks s the way camelCase expects: "HTTPServer" is HTTP and
// Server, "fooBar" is foo and Bar, "v2" is v and 2.
func splitWords(s string) []string {
	var (
		words []string
		cur   []rune
		rs    = []rune(s)
	)

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	for i, r := range rs {
		c := classify(r)
		if c == classSep {
			flush()
			continue
		}

		if len(cur) > 0 {
			prev := classify(cur[len(cur)-1])

			switch {
			case prev == classDigit && c != classDigit, prev != classDigit && c == classDigit:
				flush()
			case prev == classLower && c == classUpper:
				flush()
			case prev == classUpper && c == classUpper && i+1 < len(rs) && classify(rs[i+1]) == classLower:
				flush()
			}
		}

		cur = append(cur, r)
	}

	flush()

	return words
}
