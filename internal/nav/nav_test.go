package nav

import "testing"

func TestBuildMarksActiveSection(t *testing.T) {
	cases := map[string]string{
		"/":               "/",
		"/database":       "/database",
		"/tools/ChatGPT":  "/database",
		"/blog/some-post": "/blog",
		"/offer":          "/offer",
	}
	for current, want := range cases {
		var active []string
		for _, it := range Build(current) {
			if it.Active {
				active = append(active, it.Href)
			}
		}
		if len(active) != 1 || active[0] != want {
			t.Fatalf("Build(%q) active = %v, want [%s]", current, active, want)
		}
	}
}

func TestBreadcrumbs(t *testing.T) {
	crumbs := Breadcrumbs("/blog/ai-in-de-klas", "AI in de klas")
	if len(crumbs) != 3 {
		t.Fatalf("expected 3 crumbs, got %+v", crumbs)
	}
	if crumbs[1].LabelKey != "nav.blog" || crumbs[1].Active {
		t.Fatalf("unexpected section crumb %+v", crumbs[1])
	}
	if crumbs[2].Label != "AI in de klas" || !crumbs[2].Active {
		t.Fatalf("unexpected leaf crumb %+v", crumbs[2])
	}

	tool := Breadcrumbs("/tools/ChatGPT", "")
	if tool[1].Href != "/database" || tool[1].LabelKey != "nav.database" {
		t.Fatalf("tool pages should hang under the database, got %+v", tool[1])
	}
	if tool[2].Label != "ChatGPT" {
		t.Fatalf("expected prettified segment, got %q", tool[2].Label)
	}

	home := Breadcrumbs("", "")
	if len(home) != 1 || !home[0].Active {
		t.Fatalf("unexpected home crumbs %+v", home)
	}
}
