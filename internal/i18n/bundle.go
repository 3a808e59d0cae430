package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
)

//go:embed locales/*.json
var embedded embed.FS

// Bundle holds the UI strings per locale.
type Bundle struct {
	dict     map[Locale]map[string]string
	fallback Locale
}

// LoadEmbedded reads the string tables shipped with the binary.
func LoadEmbedded() (*Bundle, error) {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		return nil, err
	}
	return Load(sub, Default)
}

// Load reads <locale>.json for every supported locale from fsys. Only the
// fallback table is required.
func Load(fsys fs.FS, fallback Locale) (*Bundle, error) {
	b := &Bundle{dict: map[Locale]map[string]string{}, fallback: fallback}
	for _, l := range supportedLocales {
		raw, err := fs.ReadFile(fsys, path.Join(".", string(l)+".json"))
		if err != nil {
			if l == fallback {
				return nil, fmt.Errorf("i18n: load %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", l, err)
		}
		b.dict[l] = m
	}
	return b, nil
}

// Fallback returns the locale used when a key is missing.
func (b *Bundle) Fallback() Locale { return b.fallback }

// T returns the string for key in locale, then in the fallback locale, then
// the key itself.
func (b *Bundle) T(locale Locale, key string) string {
	if b == nil {
		return key
	}
	if m, ok := b.dict[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Tf formats the translated string with args.
func (b *Bundle) Tf(locale Locale, key string, args ...any) string {
	return fmt.Sprintf(b.T(locale, key), args...)
}

// Missing lists keys present in the fallback table but absent for locale.
func (b *Bundle) Missing(locale Locale) []string {
	base := b.dict[b.fallback]
	have := b.dict[locale]
	var out []string
	for k := range base {
		if _, ok := have[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// Resolve picks a locale for an Accept-Language header, defaulting to the
// bundle fallback.
func (b *Bundle) Resolve(acceptLanguage string) Locale {
	if l, ok := Match(acceptLanguage); ok {
		return l
	}
	if b == nil {
		return Default
	}
	return b.fallback
}
