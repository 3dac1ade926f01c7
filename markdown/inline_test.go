package markdown

import (
	"testing"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name string
		mode SafeMode
		url  string
		want string
	}{
		{"http kept", SafeModeRemove, "http://example.com/path", "http://example.com/path"},
		{"relative kept", SafeModeRemove, "sub/page.html", "sub/page.html"},
		{"fragment kept", SafeModeRemove, "#anchor", "#anchor"},
		{"mailto kept", SafeModeRemove, "mailto:me@x.com", "mailto:me@x.com"},
		{"news kept", SafeModeRemove, "news:comp.lang", "news:comp.lang"},
		{"script emptied", SafeModeRemove, "javascript:alert(1)", ""},
		{"data emptied", SafeModeRemove, "data:text/html;base64,x", ""},
		{"colon in path emptied", SafeModeRemove, "/a:b", ""},
		{"script kept when off", SafeModeOff, "javascript:alert(1)", "javascript:alert(1)"},
		{"off mode is lossless", SafeModeOff, "/a dir/file name.html", "/a dir/file name.html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := New(tt.mode).newConversion()
			if got := sanitizeURL(cv, tt.url); got != tt.want {
				t.Errorf("sanitizeURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestDequote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"Title"`, "Title"},
		{"'Title'", "Title"},
		{`"mismatched'`, `"mismatched'`},
		{"bare", "bare"},
		{`"`, `"`},
	}
	for _, tt := range tests {
		if got := dequote(tt.in); got != tt.want {
			t.Errorf("dequote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInlineStashRoundtrip(t *testing.T) {
	s := &InlineStash{}
	tree := NewTree()
	el := tree.NewElement("em")

	ph := s.Add(el, "emphasis")
	data := "before " + ph + " after"

	index := len("before ")
	id, end := s.ExtractID(data, index)
	if id != "0000" {
		t.Errorf("ExtractID id = %q, want %q", id, "0000")
	}
	if got := data[end:]; got != " after" {
		t.Errorf("ExtractID end points at %q, want %q", got, " after")
	}
	entry, ok := s.Get(id)
	if !ok || !entry.isNode || entry.node != el {
		t.Errorf("Get(%q) = %+v, %v", id, entry, ok)
	}
}

func TestInlineStashMalformed(t *testing.T) {
	s := &InlineStash{}
	// A prefix with no closing delimiter degrades to a one-byte advance.
	data := inlinePlaceholderPrefix + "dangling"
	id, end := s.ExtractID(data, 0)
	if id != "" || end != 1 {
		t.Errorf("ExtractID() = %q, %d, want empty id and index 1", id, end)
	}
}

func TestHandleInlineAtomic(t *testing.T) {
	cv := New(SafeModeOff).newConversion()
	in := Text{Value: "*not processed*", Atomic: true}
	if got := cv.handleInline(in, 0); got != in {
		t.Errorf("handleInline() = %+v, want unchanged atomic text", got)
	}
}

func TestEncodeEntities(t *testing.T) {
	if got := encodeEntities("a"); got != ampSubstitute+"#97;" {
		t.Errorf("encodeEntities(\"a\") = %q", got)
	}
}
