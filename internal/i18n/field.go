package i18n

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
)

// Kind tells how a localized field was stored in the CMS.
type Kind uint8

const (
	// KindAbsent marks a missing or null field.
	KindAbsent Kind = iota
	// KindLegacyScalar marks a document written before localisation: the
	// stored value is used for every locale.
	KindLegacyScalar
	// KindLocalized marks an internationalized array of {_key, value} entries.
	KindLocalized
)

func (k Kind) String() string {
	switch k {
	case KindLegacyScalar:
		return "legacy"
	case KindLocalized:
		return "localized"
	default:
		return "absent"
	}
}

// Entry is one language value inside a localized field.
type Entry[T any] struct {
	Key   Locale
	Value T
}

// Field is a localized CMS value. The zero value is an absent field.
type Field[T any] struct {
	kind    Kind
	scalar  T
	entries []Entry[T]
}

// Localized builds a field from language entries. Order is preserved; when a
// key repeats, the first entry wins on lookup.
func Localized[T any](entries ...Entry[T]) Field[T] {
	cp := make([]Entry[T], len(entries))
	copy(cp, entries)
	return Field[T]{kind: KindLocalized, entries: cp}
}

// Legacy builds a field holding a plain pre-localisation value.
func Legacy[T any](v T) Field[T] {
	return Field[T]{kind: KindLegacyScalar, scalar: v}
}

// Of is shorthand for a localized entry.
func Of[T any](key Locale, v T) Entry[T] {
	return Entry[T]{Key: key, Value: v}
}

// Kind reports how the field was stored.
func (f Field[T]) Kind() Kind { return f.kind }

// Entries returns a copy of the language entries of a localized field.
func (f Field[T]) Entries() []Entry[T] {
	if f.kind != KindLocalized {
		return nil
	}
	out := make([]Entry[T], len(f.entries))
	copy(out, f.entries)
	return out
}

// Lookup returns the first entry stored for locale, empty or not.
func (f Field[T]) Lookup(locale Locale) (T, bool) {
	var zero T
	if f.kind != KindLocalized {
		return zero, false
	}
	for _, e := range f.entries {
		if e.Key == locale {
			return e.Value, true
		}
	}
	return zero, false
}

// Resolve picks the value to display for active, falling back to fallback and
// then to the first non-empty entry. Legacy scalars are returned as stored.
// The boolean is false when nothing non-empty exists; the value is then the
// empty default of T.
func (f Field[T]) Resolve(active, fallback Locale) (T, bool) {
	switch f.kind {
	case KindLegacyScalar:
		return f.scalar, true
	case KindLocalized:
		if v, ok := f.Lookup(active); ok && !isEmpty(v) {
			return v, true
		}
		if v, ok := f.Lookup(fallback); ok && !isEmpty(v) {
			return v, true
		}
		for _, e := range f.entries {
			if !isEmpty(e.Value) {
				return e.Value, true
			}
		}
	}
	return emptyDefault[T](), false
}

// Value is Resolve without the found flag.
func (f Field[T]) Value(active, fallback Locale) T {
	v, _ := f.Resolve(active, fallback)
	return v
}

// HasContent reports whether locale has its own non-blank value, without
// falling back. Legacy scalars always count as present.
func (f Field[T]) HasContent(locale Locale) bool {
	switch f.kind {
	case KindLegacyScalar:
		return true
	case KindLocalized:
		v, ok := f.Lookup(locale)
		if !ok {
			return false
		}
		if s, isStr := any(v).(string); isStr {
			return strings.TrimSpace(s) != ""
		}
		return !isEmpty(v)
	}
	return false
}

// IsZero reports whether nothing at all was stored.
func (f Field[T]) IsZero() bool {
	return f.kind == KindAbsent
}

// IsBlank reports whether no entry carries a non-empty value.
func (f Field[T]) IsBlank() bool {
	_, ok := f.Resolve(Default, Default)
	return !ok
}

// Map applies fn to the scalar or to every entry value.
func Map[T, U any](f Field[T], fn func(T) U) Field[U] {
	switch f.kind {
	case KindLegacyScalar:
		return Field[U]{kind: KindLegacyScalar, scalar: fn(f.scalar)}
	case KindLocalized:
		out := make([]Entry[U], len(f.entries))
		for i, e := range f.entries {
			out[i] = Entry[U]{Key: e.Key, Value: fn(e.Value)}
		}
		return Field[U]{kind: KindLocalized, entries: out}
	}
	return Field[U]{}
}

// With returns a copy of a localized field whose locale entry is replaced by
// v, or appended when missing. Other entries keep their order. A legacy or
// absent field becomes localized.
func (f Field[T]) With(locale Locale, v T) Field[T] {
	if f.kind != KindLocalized {
		out := Field[T]{kind: KindLocalized}
		if f.kind == KindLegacyScalar && locale != Default {
			out.entries = append(out.entries, Entry[T]{Key: Default, Value: f.scalar})
		}
		out.entries = append(out.entries, Entry[T]{Key: locale, Value: v})
		return out
	}
	out := Field[T]{kind: KindLocalized, entries: make([]Entry[T], 0, len(f.entries)+1)}
	replaced := false
	for _, e := range f.entries {
		if e.Key == locale && !replaced {
			out.entries = append(out.entries, Entry[T]{Key: locale, Value: v})
			replaced = true
			continue
		}
		out.entries = append(out.entries, e)
	}
	if !replaced {
		out.entries = append(out.entries, Entry[T]{Key: locale, Value: v})
	}
	return out
}

type wireEntry struct {
	Key         string          `json:"_key,omitempty"`
	LanguageKey string          `json:"languageKey,omitempty"`
	Language    string          `json:"language,omitempty"`
	Value       json.RawMessage `json:"value"`
}

func (w wireEntry) key() string {
	switch {
	case w.Key != "":
		return w.Key
	case w.LanguageKey != "":
		return w.LanguageKey
	default:
		return w.Language
	}
}

type outEntry[T any] struct {
	Key   string `json:"_key"`
	Value T      `json:"value"`
}

// UnmarshalJSON never fails: unreadable input decodes to an absent field.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	*f = DecodeField[T](data)
	return nil
}

// DecodeField detects the storage shape of raw and decodes it.
func DecodeField[T any](raw []byte) Field[T] {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Field[T]{}
	}
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return Field[T]{}
		}
		if isEntryList(items) {
			return decodeEntries[T](items)
		}
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return Field[T]{}
	}
	return Field[T]{kind: KindLegacyScalar, scalar: v}
}

// FromAny decodes an already-parsed JSON value.
func FromAny[T any](v any) Field[T] {
	if v == nil {
		return Field[T]{}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return Field[T]{}
	}
	return DecodeField[T](raw)
}

// An empty array is treated as a localized field with no entries, as that is
// what the CMS stores once a document has been migrated and then cleared.
func isEntryList(items []json.RawMessage) bool {
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || bytes.Equal(item, []byte("null")) {
			continue
		}
		if item[0] != '{' {
			return false
		}
		var probe wireEntry
		if err := json.Unmarshal(item, &probe); err != nil {
			return false
		}
		// Portable text blocks carry _key too but never a value member.
		return probe.key() != "" && len(probe.Value) > 0
	}
	return true
}

func decodeEntries[T any](items []json.RawMessage) Field[T] {
	out := Field[T]{kind: KindLocalized, entries: make([]Entry[T], 0, len(items))}
	for _, item := range items {
		var w wireEntry
		if err := json.Unmarshal(item, &w); err != nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(w.key()))
		if key == "" {
			continue
		}
		var v T
		if len(w.Value) > 0 {
			if err := json.Unmarshal(w.Value, &v); err != nil {
				var zero T
				v = zero
			}
		}
		out.entries = append(out.entries, Entry[T]{Key: Locale(key), Value: v})
	}
	return out
}

// MarshalJSON writes the field back in the shape it was decoded from.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	switch f.kind {
	case KindLegacyScalar:
		return json.Marshal(f.scalar)
	case KindLocalized:
		out := make([]outEntry[T], len(f.entries))
		for i, e := range f.entries {
			out[i] = outEntry[T]{Key: string(e.Key), Value: e.Value}
		}
		return json.Marshal(out)
	}
	return []byte("null"), nil
}

// isEmpty treats nil, "" and empty slices or maps as missing.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	case json.RawMessage:
		trimmed := bytes.TrimSpace(t)
		return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) ||
			bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte(`""`))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// emptyDefault returns "" for strings and a non-nil empty slice for slices so
// that JSON output stays [] rather than null. Raw JSON stays nil.
func emptyDefault[T any]() T {
	var zero T
	if _, raw := any(zero).(json.RawMessage); raw {
		return zero
	}
	rt := reflect.TypeOf(&zero).Elem()
	if rt.Kind() == reflect.Slice {
		reflect.ValueOf(&zero).Elem().Set(reflect.MakeSlice(rt, 0, 0))
	}
	return zero
}
