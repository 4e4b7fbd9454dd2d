package bill

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrUnknownStatus = errors.New("unknown status")
)

// Layouts accepted for stored dates, most common first
var storedDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// supportedLocales and localeDateLayouts are index-aligned; the first entry is the fallback
var supportedLocales = []language.Tag{
	language.French,
	language.BritishEnglish,
	language.AmericanEnglish,
	language.German,
}

var localeDateLayouts = []string{
	"02/01/2006",
	"02/01/2006",
	"01/02/2006",
	"02.01.2006",
}

var localeMatcher = language.NewMatcher(supportedLocales)

var statusLabels = map[Status]string{
	StatusPending:  "En attente",
	StatusAccepted: "Accepté",
	StatusRefused:  "Refused",
}

// Formatter turns stored bill values into display labels for one locale
type Formatter struct {
	locale language.Tag
	layout string
}

// NewFormatter creates a Formatter for the closest supported locale.
// Unknown or empty locales fall back to French.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	_, idx, _ := localeMatcher.Match(tag)
	return &Formatter{
		locale: supportedLocales[idx],
		layout: localeDateLayouts[idx],
	}
}

// Locale returns the supported locale the formatter resolved to
func (f *Formatter) Locale() string {
	return f.locale.String()
}

// Date formats a stored date as a short locale date.
// On failure the raw value is returned along with the parse error.
func (f *Formatter) Date(raw string) (string, error) {
	t, err := ParseDate(raw)
	if err != nil {
		return raw, err
	}
	return t.Format(f.layout), nil
}

// Status returns the label for a status code.
// Unknown codes are returned unchanged along with ErrUnknownStatus.
func (f *Formatter) Status(code Status) (string, error) {
	label, ok := statusLabels[code]
	if !ok {
		return string(code), fmt.Errorf("%w: %q", ErrUnknownStatus, string(code))
	}
	return label, nil
}

// ParseDate parses a stored bill date
func ParseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range storedDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

var defaultFormatter = NewFormatter("fr")

// FormatDate formats raw with the French formatter
func FormatDate(raw string) (string, error) {
	return defaultFormatter.Date(raw)
}

// FormatStatus labels code with the French formatter
func FormatStatus(code Status) (string, error) {
	return defaultFormatter.Status(code)
}
