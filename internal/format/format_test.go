package format

import (
	"testing"
	"time"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
)

func TestFmtDate(t *testing.T) {
	d := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		locale i18n.Locale
		want   string
	}{
		{i18n.NL, "3 maart 2025"},
		{i18n.EN, "3 March 2025"},
		{i18n.Locale("fr"), "3 maart 2025"},
	}
	for _, tc := range cases {
		if got := FmtDate(d, tc.locale); got != tc.want {
			t.Fatalf("FmtDate(%s) = %q, want %q", tc.locale, got, tc.want)
		}
	}
	if FmtDate(time.Time{}, i18n.NL) != "" {
		t.Fatal("zero time should format empty")
	}
	if ISODate(d) != "2025-03-03" {
		t.Fatalf("unexpected iso date %q", ISODate(d))
	}
}
