package i18n

import "testing"

func TestParse(t *testing.T) {
	cases := map[string]Locale{"nl": NL, "EN": EN, "en-GB": EN, "nl_BE": NL}
	for raw, want := range cases {
		got, ok := Parse(raw)
		if !ok || got != want {
			t.Fatalf("Parse(%q) = %q, %v", raw, got, ok)
		}
	}
	if _, ok := Parse("fr"); ok {
		t.Fatalf("fr should not be supported")
	}
	if got := ParseOr("", EN); got != EN {
		t.Fatalf("ParseOr default = %q", got)
	}
}

func TestMatch(t *testing.T) {
	if l, ok := Match("en-US,en;q=0.9,nl;q=0.8"); !ok || l != EN {
		t.Fatalf("expected en, got %q %v", l, ok)
	}
	if l, ok := Match("nl-BE"); !ok || l != NL {
		t.Fatalf("expected nl, got %q %v", l, ok)
	}
	if _, ok := Match(""); ok {
		t.Fatalf("empty header should not match")
	}
}

func TestOtherAndDateCode(t *testing.T) {
	if EN.Other() != NL || NL.Other() != EN {
		t.Fatalf("unexpected Other()")
	}
	if NL.DateCode() != "nl-BE" || EN.DateCode() != "en-GB" {
		t.Fatalf("unexpected date codes")
	}
}
