package core

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CapitalizeSentence upper-cases the first letter of every word of `s` and lowers the rest.
func CapitalizeSentence(s string) string {
	return cases.Title(language.Spanish).String(CleanString(s))
}
