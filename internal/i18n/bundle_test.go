package i18n

import (
	"testing"
	"testing/fstest"
)

func TestBundleFallsBackToDefaultThenKey(t *testing.T) {
	fsys := fstest.MapFS{
		"nl.json": {Data: []byte(`{"nav.home":"Home","nav.blog":"Blog NL"}`)},
		"en.json": {Data: []byte(`{"nav.home":"Home EN"}`)},
	}
	b, err := Load(fsys, NL)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := b.T(EN, "nav.home"); got != "Home EN" {
		t.Fatalf("T(en) = %q", got)
	}
	if got := b.T(EN, "nav.blog"); got != "Blog NL" {
		t.Fatalf("expected nl fallback, got %q", got)
	}
	if got := b.T(EN, "unknown.key"); got != "unknown.key" {
		t.Fatalf("expected key echo, got %q", got)
	}
	if missing := b.Missing(EN); len(missing) != 1 || missing[0] != "nav.blog" {
		t.Fatalf("unexpected missing keys %v", missing)
	}
}

func TestBundleRequiresFallback(t *testing.T) {
	if _, err := Load(fstest.MapFS{"en.json": {Data: []byte(`{}`)}}, NL); err == nil {
		t.Fatalf("expected error without fallback table")
	}
}

func TestEmbeddedTablesAreComplete(t *testing.T) {
	b, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	if missing := b.Missing(EN); len(missing) > 0 {
		t.Fatalf("en table misses keys: %v", missing)
	}
	if got := b.Resolve("fr-FR"); got != NL {
		t.Fatalf("unsupported header should resolve to nl, got %q", got)
	}
}
