package panels

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Localizer translates panel titles and labels for one locale. Strings
// without a translation are returned unchanged.
type Localizer struct {
	mu      sync.RWMutex
	tag     language.Tag
	catalog *catalog.Builder
}

// NewLocalizer creates a localizer for locale (a BCP 47 tag such as "en" or "fr-CA")
func NewLocalizer(locale string) (*Localizer, error) {
	tag := language.English
	if locale != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
		}
		tag = parsed
	}
	return &Localizer{
		tag:     tag,
		catalog: catalog.NewBuilder(catalog.Fallback(language.English)),
	}, nil
}

// Locale returns the localizer's language tag
func (l *Localizer) Locale() language.Tag {
	return l.tag
}

// Set registers the translation of key for locale
func (l *Localizer) Set(locale, key, translation string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("invalid locale %q: %w", locale, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.catalog.SetString(tag, escapeVerbs(key), escapeVerbs(translation))
}

// SetAll registers a set of translations for locale
func (l *Localizer) SetAll(locale string, translations map[string]string) error {
	for key, translation := range translations {
		if err := l.Set(locale, key, translation); err != nil {
			return err
		}
	}
	return nil
}

// Translate returns the translation of s for the localizer's locale
func (l *Localizer) Translate(s string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p := message.NewPrinter(l.tag, message.Catalog(l.catalog))
	return p.Sprintf(escapeVerbs(s))
}

// escapeVerbs keeps user text from being read as format verbs
func escapeVerbs(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}
