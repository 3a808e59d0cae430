package seo

import (
	"strings"
	"testing"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
)

func TestNewMeta(t *testing.T) {
	m := New("https://aiupdate.be/", "/blog/ai", i18n.EN, "AI", "desc", "")
	if m.Title != "AI | AIUPD8" {
		t.Fatalf("unexpected title %q", m.Title)
	}
	if m.Canonical != "https://aiupdate.be/blog/ai?lang=en" {
		t.Fatalf("unexpected canonical %q", m.Canonical)
	}
	if m.OG.Locale != "en_GB" {
		t.Fatalf("unexpected og locale %q", m.OG.Locale)
	}
	if m.Twitter.Card != "summary" {
		t.Fatalf("expected summary card without image, got %q", m.Twitter.Card)
	}
	if got := New("", "/", i18n.NL, SiteName, "", "").Title; got != SiteName {
		t.Fatalf("site name should not be suffixed twice, got %q", got)
	}
}

func TestAlternates(t *testing.T) {
	alts := Alternates("https://aiupdate.be", "/database")
	if len(alts) != 3 {
		t.Fatalf("expected nl, en and x-default, got %+v", alts)
	}
	want := map[string]string{
		"nl":        "https://aiupdate.be/database?lang=nl",
		"en":        "https://aiupdate.be/database?lang=en",
		"x-default": "https://aiupdate.be/database?lang=nl",
	}
	for _, a := range alts {
		if want[a.Hreflang] != a.Href {
			t.Fatalf("alternate %s = %q, want %q", a.Hreflang, a.Href, want[a.Hreflang])
		}
	}
}

func TestJSONLD(t *testing.T) {
	app := JSON(SoftwareApplication("ChatGPT", "Chat assistant", "https://aiupdate.be/tools/ChatGPT", "", "text"))
	for _, frag := range []string{`"@type":"SoftwareApplication"`, `"name":"ChatGPT"`, `"applicationSubCategory":"text"`} {
		if !strings.Contains(app, frag) {
			t.Fatalf("missing %s in %s", frag, app)
		}
	}
	crumbs := JSON(BreadcrumbList([]BreadcrumbItem{{Name: "Home", Item: "https://aiupdate.be/"}, {Name: "Blog", Item: "https://aiupdate.be/blog"}}))
	if !strings.Contains(crumbs, `"position":2`) {
		t.Fatalf("breadcrumb positions missing: %s", crumbs)
	}
	if JSON(func() {}) != "" {
		t.Fatal("unmarshalable values should yield an empty string")
	}
}
