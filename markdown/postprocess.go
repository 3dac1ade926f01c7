package markdown

import (
	"strings"

	"github.com/mitya57/markdown/sliceedit"
)

// RawHTMLPostprocessor swaps the stashed raw fragments back into the
// serialized output, applying the restricted-mode policy to the unsafe
// ones. A fragment that ended up as the sole content of a paragraph loses
// the paragraph wrapper.
type RawHTMLPostprocessor struct{}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func (RawHTMLPostprocessor) ProcessOutput(cv *Conversion, text string) string {
	buf := sliceedit.NewBuffer([]byte(text))
	for i := 0; i < cv.HTMLStash.Len(); i++ {
		html, safe := cv.HTMLStash.Fragment(i)
		if cv.SafeMode != SafeModeOff && !safe {
			switch cv.SafeMode {
			case SafeModeEscape:
				html = htmlEscaper.Replace(html)
			case SafeModeRemove:
				html = ""
			default:
				html = HTMLRemovedText
			}
		}
		ph := htmlPlaceholder(i)
		buf.ReplaceAllString("<p>"+ph+"\n</p>", html+"\n")
		buf.ReplaceAllString(ph, html)
	}
	return buf.String()
}

// AmpSubstitutePostprocessor turns the ampersand sentinels the automail
// obfuscation left behind back into literal ampersands.
type AmpSubstitutePostprocessor struct{}

func (AmpSubstitutePostprocessor) ProcessOutput(cv *Conversion, text string) string {
	buf := sliceedit.NewBuffer([]byte(text))
	buf.ReplaceAllString(ampSubstitute, "&")
	return buf.String()
}
