// Package extensions carries the optional engine extensions: fenced code
// blocks with syntax highlighting and YAML front-matter metadata.
package extensions

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	hlhtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	markdown "github.com/mitya57/markdown/markdown"
)

// FencedCode adds ``` fenced code blocks. Fenced content is stashed before
// any other processing, so it survives restricted modes and never meets the
// block or inline stages. When a language label is present the content is
// highlighted with chroma.
type FencedCode struct {
	// Style is the chroma style name. Empty means "github".
	Style string
}

func (e *FencedCode) ExtendMarkdown(md *markdown.Markdown) error {
	pre := &fencedBlockPreprocessor{style: e.Style}
	// Must run before the raw HTML stasher, or fenced content holding
	// markup would be carved up as an HTML block.
	md.TextPreprocessors = append([]markdown.TextPreprocessor{pre}, md.TextPreprocessors...)
	return nil
}

type fencedBlockPreprocessor struct {
	style string
}

var fencedBlockRe = regexp.MustCompile("(?ms)^`{3,}[ ]*([a-zA-Z0-9_+-]*)[ ]*\n(.*?)\n`{3,}[ ]*$\n?")

var codeEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func (p *fencedBlockPreprocessor) ProcessText(cv *markdown.Conversion, text string) string {
	return fencedBlockRe.ReplaceAllStringFunc(text, func(block string) string {
		m := fencedBlockRe.FindStringSubmatch(block)
		rendered := p.render(cv, m[1], m[2])
		return "\n\n" + cv.HTMLStash.Store(rendered, true) + "\n\n"
	})
}

func (p *fencedBlockPreprocessor) render(cv *markdown.Conversion, lang, code string) string {
	if lang == "" {
		return "<pre><code>" + codeEscaper.Replace(code) + "</code></pre>"
	}

	// Determine lexer.
	l := lexers.Get(lang)
	if l == nil {
		l = lexers.Analyse(code)
	}
	if l == nil {
		l = lexers.Fallback
	}
	l = chroma.Coalesce(l)

	styleName := p.style
	if styleName == "" {
		styleName = "github"
	}
	s := styles.Get(styleName)

	f := hlhtml.New(hlhtml.Standalone(false), hlhtml.PreventSurroundingPre(true))

	it, err := l.Tokenise(nil, code)
	if err != nil {
		cv.Log().Warnw("tokenizing fenced block failed", "lang", lang, "error", err)
		return "<pre><code class=\"" + lang + "\">" + codeEscaper.Replace(code) + "</code></pre>"
	}
	rb := &bytes.Buffer{}
	if err := f.Format(rb, s, it); err != nil {
		cv.Log().Warnw("highlighting fenced block failed", "lang", lang, "error", err)
		return "<pre><code class=\"" + lang + "\">" + codeEscaper.Replace(code) + "</code></pre>"
	}
	return "<pre class=\"codecolor\"><code class=\"" + lang + "\">" + rb.String() + "</code></pre>"
}
