package strings

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title upper-cases the first letter of every word and leaves the rest of
// each word as written ("default" -> "Default", "event details" -> "Event Details").
func Title(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// Humanize turns an identifier into a display label
// ("start_date" -> "Start Date", "venueName" -> "Venue Name").
func Humanize(s string) string {
	words := strings.FieldsFunc(ToSnakeCase(s), func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	return Title(strings.Join(words, " "))
}

// ToSnakeCase converts CamelCase to snake_case
// Handles acronyms properly (HTTPRequest -> http_request)
func ToSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)

	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				if unicode.IsLower(prev) {
					result.WriteRune('_')
				} else if i+1 < len(runes) && unicode.IsLower(runes[i+1]) && prev != '_' {
					result.WriteRune('_')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
