// Package format renders dates for templates.
package format

import (
	"fmt"
	"time"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
)

var monthNames = map[string][12]string{
	"nl-BE": {"januari", "februari", "maart", "april", "mei", "juni", "juli", "augustus", "september", "oktober", "november", "december"},
	"en-GB": {"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
}

// FmtDate formats t in the long day-month-year form of the locale, e.g.
// "3 maart 2025". The zero time formats as "".
func FmtDate(t time.Time, locale i18n.Locale) string {
	if t.IsZero() {
		return ""
	}
	names, ok := monthNames[locale.DateCode()]
	if !ok {
		names = monthNames["nl-BE"]
	}
	return fmt.Sprintf("%d %s %d", t.Day(), names[t.Month()-1], t.Year())
}

// ISODate formats t as YYYY-MM-DD for datetime attributes and JSON-LD.
func ISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
