package i18n

import (
	"encoding/json"
	"reflect"
	"testing"
)

func decodeString(t *testing.T, raw string) Field[string] {
	t.Helper()
	var f Field[string]
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return f
}

func decodeList(t *testing.T, raw string) Field[[]string] {
	t.Helper()
	var f Field[[]string]
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return f
}

func TestResolveString(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		active   Locale
		fallback Locale
		want     string
		found    bool
	}{
		{"active wins", `[{"_key":"nl","value":"Hallo"},{"_key":"en","value":"Hello"}]`, EN, NL, "Hello", true},
		{"fallback when active missing", `[{"_key":"nl","value":"Hallo"}]`, EN, NL, "Hallo", true},
		{"fallback when active empty", `[{"_key":"en","value":""},{"_key":"nl","value":"Hallo"}]`, EN, NL, "Hallo", true},
		{"only empty entry", `[{"_key":"en","value":""}]`, EN, NL, "", false},
		{"first non-empty entry", `[{"_key":"fr","value":""},{"_key":"de","value":"Hallo Welt"}]`, EN, NL, "Hallo Welt", true},
		{"legacy scalar", `"Plain title"`, EN, NL, "Plain title", true},
		{"legacy empty scalar kept as is", `""`, EN, NL, "", true},
		{"null", `null`, EN, NL, "", false},
		{"empty array", `[]`, EN, NL, "", false},
		{"duplicate keys first wins", `[{"_key":"en","value":"first"},{"_key":"en","value":"second"}]`, EN, NL, "first", true},
		{"languageKey alias", `[{"languageKey":"en","value":"Hi"}]`, EN, NL, "Hi", true},
		{"null entry value skipped", `[{"_key":"en","value":null},{"_key":"nl","value":"Hoi"}]`, EN, NL, "Hoi", true},
		{"wrong scalar type", `42`, EN, NL, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := decodeString(t, tc.raw)
			got, ok := f.Resolve(tc.active, tc.fallback)
			if got != tc.want || ok != tc.found {
				t.Fatalf("Resolve() = (%q, %v), want (%q, %v)", got, ok, tc.want, tc.found)
			}
		})
	}
}

func TestResolveStringList(t *testing.T) {
	f := decodeList(t, `[{"_key":"nl","value":["snel"]},{"_key":"en","value":[]}]`)
	got, ok := f.Resolve(EN, NL)
	if !ok || !reflect.DeepEqual(got, []string{"snel"}) {
		t.Fatalf("expected fallback list, got %v (%v)", got, ok)
	}

	legacy := decodeList(t, `["fast","cheap"]`)
	if legacy.Kind() != KindLegacyScalar {
		t.Fatalf("expected legacy kind, got %s", legacy.Kind())
	}
	if got := legacy.Value(EN, NL); !reflect.DeepEqual(got, []string{"fast", "cheap"}) {
		t.Fatalf("unexpected legacy value %v", got)
	}

	var absent Field[[]string]
	got = absent.Value(EN, NL)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected non-nil empty slice, got %#v", got)
	}
}

func TestHasContent(t *testing.T) {
	f := decodeString(t, `[{"_key":"nl","value":"Hallo"},{"_key":"en","value":"  "}]`)
	if !f.HasContent(NL) {
		t.Fatalf("expected nl content")
	}
	if f.HasContent(EN) {
		t.Fatalf("blank en entry must not count as content")
	}

	if !Legacy("x").HasContent(EN) || !Legacy("").HasContent(NL) {
		t.Fatalf("legacy scalars always have content")
	}

	var absent Field[string]
	if absent.HasContent(NL) {
		t.Fatalf("absent field has no content")
	}

	list := decodeList(t, `[{"_key":"en","value":[]}]`)
	if list.HasContent(EN) {
		t.Fatalf("empty list must not count as content")
	}
}

func TestFieldRoundTrip(t *testing.T) {
	for _, raw := range []string{
		`[{"_key":"nl","value":"Hallo"},{"_key":"en","value":"Hello"}]`,
		`"legacy"`,
		`null`,
	} {
		f := decodeString(t, raw)
		out, err := json.Marshal(f)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		again := decodeString(t, string(out))
		if !reflect.DeepEqual(f, again) {
			t.Fatalf("round trip mismatch for %s: %#v vs %#v", raw, f, again)
		}
	}
}

func TestWithReplacesTargetEntry(t *testing.T) {
	f := Localized(Of(NL, "Hallo"), Of(EN, "old"))
	got := f.With(EN, "Hello")
	entries := got.Entries()
	if len(entries) != 2 || entries[0].Value != "Hallo" || entries[1].Value != "Hello" {
		t.Fatalf("unexpected entries %#v", entries)
	}

	appended := Localized(Of(NL, "Hallo")).With(EN, "Hello")
	if v, _ := appended.Lookup(EN); v != "Hello" {
		t.Fatalf("expected appended entry, got %q", v)
	}

	fromLegacy := Legacy("Hallo").With(EN, "Hello")
	if v, _ := fromLegacy.Lookup(NL); v != "Hallo" {
		t.Fatalf("legacy value should move to default locale, got %q", v)
	}
}

func TestMapKeepsShape(t *testing.T) {
	f := Localized(Of(NL, "a"), Of(EN, "b"))
	upper := Map(f, func(s string) int { return len(s) })
	if upper.Kind() != KindLocalized || len(upper.Entries()) != 2 {
		t.Fatalf("unexpected mapped field %#v", upper)
	}
}

func TestPortableTextIsNotMistakenForEntries(t *testing.T) {
	var f Field[json.RawMessage]
	raw := `[{"_type":"block","_key":"a1","children":[{"_type":"span","text":"Hi"}]}]`
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Kind() != KindLegacyScalar {
		t.Fatalf("expected legacy kind for bare blocks, got %s", f.Kind())
	}

	var localized Field[json.RawMessage]
	raw = `[{"_key":"nl","value":[]},{"_key":"en","value":[{"_type":"block","_key":"b"}]}]`
	if err := json.Unmarshal([]byte(raw), &localized); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got, ok := localized.Resolve(NL, EN)
	if !ok || len(got) == 0 || got[0] != '[' {
		t.Fatalf("expected en blocks through fallback, got %s (%v)", got, ok)
	}
}
