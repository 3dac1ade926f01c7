package extensions

import (
	"strings"
	"testing"

	markdown "github.com/mitya57/markdown/markdown"
)

func TestMetaFrontMatter(t *testing.T) {
	meta := &Meta{}
	md := markdown.New(markdown.SafeModeOff, meta)

	got := md.Convert("---\ntitle: Hello\n---\n\n# Hi")
	if !strings.Contains(got, "<h1>Hi</h1>") {
		t.Errorf("Convert() = %q, want the header after the front matter", got)
	}
	if strings.Contains(got, "title") {
		t.Errorf("Convert() = %q, front matter leaked into the output", got)
	}
	if meta.Data == nil {
		t.Fatal("front matter was not collected")
	}
	if title := meta.Data.String("title", ""); title != "Hello" {
		t.Errorf("title = %q, want %q", title, "Hello")
	}

	md.Reset()
	if meta.Data != nil {
		t.Error("Reset() did not clear the collected front matter")
	}
}

func TestMetaAbsent(t *testing.T) {
	meta := &Meta{}
	md := markdown.New(markdown.SafeModeOff, meta)

	got := md.Convert("just text")
	if got != "<p>just text</p>" {
		t.Errorf("Convert() = %q", got)
	}
	if meta.Data != nil {
		t.Errorf("Data = %v, want nil without front matter", meta.Data)
	}
}

func TestFencedCodePlain(t *testing.T) {
	md := markdown.New(markdown.SafeModeOff, &FencedCode{})

	got := md.Convert("```\nplain <text>\n```")
	if !strings.Contains(got, "<pre><code>plain &lt;text&gt;</code></pre>") {
		t.Errorf("Convert() = %q, want escaped fenced block", got)
	}
}

func TestFencedCodeHighlighted(t *testing.T) {
	md := markdown.New(markdown.SafeModeOff, &FencedCode{})

	got := md.Convert("```go\npackage main\n```")
	if !strings.Contains(got, `<pre class="codecolor"><code class="go">`) {
		t.Errorf("Convert() = %q, want highlighted fenced block", got)
	}
	if !strings.Contains(got, "package") {
		t.Errorf("Convert() = %q, code content missing", got)
	}
}

func TestFencedCodeSurvivesSafeMode(t *testing.T) {
	md := markdown.New(markdown.SafeModeRemove, &FencedCode{})

	got := md.Convert("```\n<script>bad()</script>\n```")
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Errorf("Convert() = %q, want the escaped content kept", got)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("Convert() = %q, raw script leaked", got)
	}
}
