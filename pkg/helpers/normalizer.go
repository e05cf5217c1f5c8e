package helpers

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalizer maps a user-supplied name or email to its lookup form.
type Normalizer func(string) string

// UpperInvariant applies NFKC and culture-invariant upper casing, so
// "ana@x.com" and "ANA@X.COM" share one lookup key.
func UpperInvariant(s string) string {
	if s == "" {
		return ""
	}
	// a Caser keeps state, so one is built per call
	return cases.Upper(language.Und).String(norm.NFKC.String(s))
}
