package markdown

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReferencePreprocessor(t *testing.T) {
	cv := New(SafeModeOff).newConversion()
	lines := []string{
		"[id]: http://example.com/ \"Title\"",
		"[id]: http://other.example/ \"Other\"",
		"[plain]: /target",
		"[not a def] trailing text",
		"body line",
	}
	got := ReferencePreprocessor{}.ProcessLines(cv, lines)

	want := []string{"[not a def] trailing text", "body line"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("remaining lines mismatch (-want +got):\n%s", diff)
	}

	ref, ok := cv.References["id"]
	if !ok {
		t.Fatal("reference 'id' not recorded")
	}
	// First definition wins.
	if ref.Href != "http://example.com/" || ref.Title != "Title" {
		t.Errorf("reference = %+v, want first definition", ref)
	}
	if ref, ok = cv.References["plain"]; !ok || ref.Href != "/target" || ref.Title != "" {
		t.Errorf("reference 'plain' = %+v, ok = %v", ref, ok)
	}
}

func TestHeaderPreprocessorSetext(t *testing.T) {
	cv := New(SafeModeOff).newConversion()
	got := HeaderPreprocessor{}.ProcessLines(cv, []string{"Top", "===", "", "Sub", "---"})
	if got[0] != "# Top" || got[1] != "" {
		t.Errorf("level-one rewrite: got %q, %q", got[0], got[1])
	}
	if got[3] != "## Sub" || got[4] != "" {
		t.Errorf("level-two rewrite: got %q, %q", got[3], got[4])
	}
}

func TestLinePreprocessorRules(t *testing.T) {
	cv := New(SafeModeOff).newConversion()
	tests := []struct {
		in   string
		want string
	}{
		{"* * *", "___"},
		{"-----", "___"},
		{"> > ***", "> > ___"},
		{"--", "--"},          // too short
		{"    ---", "    ---"}, // code indented
		{"*-*", "*-*"},        // mixed characters
	}
	for _, tt := range tests {
		got := LinePreprocessor{}.ProcessLines(cv, []string{tt.in})
		if got[0] != tt.want {
			t.Errorf("ProcessLines(%q) = %q, want %q", tt.in, got[0], tt.want)
		}
	}
}

func TestHTMLBlockPreprocessor(t *testing.T) {
	cv := New(SafeModeOff).newConversion()
	text := "<div>\nstuff\n</div>\n\nafter\n\n"
	got := HTMLBlockPreprocessor{}.ProcessText(cv, text)

	if cv.HTMLStash.Len() != 1 {
		t.Fatalf("stash holds %d fragments, want 1", cv.HTMLStash.Len())
	}
	html, safe := cv.HTMLStash.Fragment(0)
	if html != "<div>\nstuff\n</div>" || safe {
		t.Errorf("fragment = %q (safe=%v)", html, safe)
	}
	ph := htmlPlaceholder(0)
	want := ph + "\n\nafter\n\n"
	if got != want {
		t.Errorf("ProcessText() = %q, want %q", got, want)
	}
}

func TestExpandTabs(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"\tx", "    x"},
		{"ab\tx", "ab  x"},
		{"a\nb\tc", "a\nb   c"},
		{"none", "none"},
	}
	for _, tt := range tests {
		if got := expandTabs(tt.in, tabLength); got != tt.want {
			t.Errorf("expandTabs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
