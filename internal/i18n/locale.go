package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale identifies one of the languages content is authored in.
type Locale string

const (
	NL Locale = "nl"
	EN Locale = "en"

	// Default is used whenever a request does not state a usable preference.
	Default = NL
)

var supportedLocales = []Locale{NL, EN}

var localeTags = []language.Tag{language.Dutch, language.English}

var localeNames = map[Locale]string{
	NL: "Nederlands",
	EN: "English",
}

var dateLocales = map[Locale]string{
	NL: "nl-BE",
	EN: "en-GB",
}

// Supported lists the locales the site renders, default first.
func Supported() []Locale {
	out := make([]Locale, len(supportedLocales))
	copy(out, supportedLocales)
	return out
}

// Parse normalises a raw language code (for example "EN", "en-GB" or "nl_BE").
func Parse(raw string) (Locale, bool) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return "", false
	}
	if idx := strings.IndexAny(raw, "-_"); idx > 0 {
		raw = raw[:idx]
	}
	for _, l := range supportedLocales {
		if string(l) == raw {
			return l, true
		}
	}
	return "", false
}

// ParseOr returns the parsed locale or def when raw is not supported.
func ParseOr(raw string, def Locale) Locale {
	if l, ok := Parse(raw); ok {
		return l
	}
	return def
}

// Other returns the alternative locale, used as the fallback for content lookups.
func (l Locale) Other() Locale {
	if l == EN {
		return NL
	}
	return EN
}

// Name is the endonym shown in the language switcher.
func (l Locale) Name() string {
	if n, ok := localeNames[l]; ok {
		return n
	}
	return string(l)
}

// DateCode is the BCP 47 tag used when formatting dates for the locale.
func (l Locale) DateCode() string {
	if c, ok := dateLocales[l]; ok {
		return c
	}
	return dateLocales[Default]
}

// Tag returns the x/text language tag for the locale.
func (l Locale) Tag() language.Tag {
	for i, s := range supportedLocales {
		if s == l {
			return localeTags[i]
		}
	}
	return language.Dutch
}

func (l Locale) String() string { return string(l) }

var matcher = language.NewMatcher(localeTags)

// Match picks the best supported locale from an Accept-Language header value.
// It returns false when the header names nothing the site can serve.
func Match(acceptLanguage string) (Locale, bool) {
	acceptLanguage = strings.TrimSpace(acceptLanguage)
	if acceptLanguage == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "", false
	}
	return supportedLocales[idx], true
}
