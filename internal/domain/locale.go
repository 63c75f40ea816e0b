package domain

import "strings"

type Locale string

const (
	LocalePT Locale = "pt"
	LocaleEN Locale = "en"
	LocaleFR Locale = "fr"
)

// SourceLocale is the authoring language; every other locale is machine-derived.
const SourceLocale = LocalePT

var TargetLocales = []Locale{LocaleEN, LocaleFR}

// ParseLocale accepts a case-insensitive tag from the closed set, with an
// optional region ("en-GB", "fr_FR").
func ParseLocale(s string) (Locale, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	switch Locale(s) {
	case LocalePT, LocaleEN, LocaleFR:
		return Locale(s), true
	}
	return "", false
}

// Text is one multilingual field group: the authoritative source value plus
// its derived translations. Derived values may be empty or stale.
type Text struct {
	PT string `json:"pt"`
	EN string `json:"en,omitempty"`
	FR string `json:"fr,omitempty"`
}

func Source(s string) Text { return Text{PT: s} }

// In returns the value for l, falling back to the source when the derived
// value is empty.
func (t Text) In(l Locale) string {
	if v := t.Derived(l); v != "" {
		return v
	}
	return t.PT
}

func (t Text) Derived(l Locale) string {
	switch l {
	case LocaleEN:
		return t.EN
	case LocaleFR:
		return t.FR
	}
	return t.PT
}

// Set writes a derived slot. Writing the source goes through the PT field.
func (t *Text) Set(l Locale, v string) {
	switch l {
	case LocaleEN:
		t.EN = v
	case LocaleFR:
		t.FR = v
	}
}

// FieldRef binds a field-group name to its storage on an entity.
type FieldRef struct {
	Name string
	Text *Text
}

// TranslationTarget identifies the row a translation write lands on.
type TranslationTarget struct {
	Entity string // pages|items|testimonials|properties|fractions|fraction_columns
	ID     string
}

// Translatable is implemented by every entity carrying multilingual fields.
type Translatable interface {
	Target() TranslationTarget
	TextFields() []FieldRef
}

// Lookup is the typed accessor for a named field group.
func Lookup(t Translatable, name string) (*Text, bool) {
	for _, f := range t.TextFields() {
		if f.Name == name {
			return f.Text, true
		}
	}
	return nil, false
}

func FieldNames(t Translatable) []string {
	fs := t.TextFields()
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Name)
	}
	return out
}
