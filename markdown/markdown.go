// Package markdown converts Markdown-style text to HTML-style markup.
//
// The pipeline has five stages: text and line preprocessors normalize the
// source and stash raw HTML, the block parser builds the element tree, the
// inline pattern engine resolves spans inside text fields, the serializer
// renders the tree, and the text postprocessors restore stashed fragments.
// A Markdown value holds only configuration; every Convert call works on
// its own Conversion state, so one engine is safe to share between
// goroutines.
package markdown

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const tabLength = 4

// enableAttributes controls the {@key=value} annotation syntax.
const enableAttributes = true

// SafeMode selects the policy for raw HTML in untrusted input.
type SafeMode string

const (
	// SafeModeOff passes raw HTML through.
	SafeModeOff SafeMode = ""
	// SafeModeRemove drops raw HTML fragments.
	SafeModeRemove SafeMode = "remove"
	// SafeModeEscape renders raw HTML as escaped text.
	SafeModeEscape SafeMode = "escape"
	// SafeModeReplace swaps each fragment for a removal notice. Any
	// unrecognized non-empty mode behaves the same way.
	SafeModeReplace SafeMode = "replace"
)

// An Extension hooks additional behaviour into an engine at construction
// time by editing its processor and pattern chains.
type Extension interface {
	ExtendMarkdown(md *Markdown) error
}

// A Resettable extension keeps state across conversions (accumulated
// metadata, counters) and is told to clear it by Markdown.Reset.
type Resettable interface {
	Reset()
}

// A Postprocessor runs over the finished tree before serialization. It may
// return a replacement root, or NoNode to keep the current one.
type Postprocessor interface {
	ProcessTree(cv *Conversion, root NodeID) NodeID
}

// A TextPostprocessor rewrites the serialized output.
type TextPostprocessor interface {
	ProcessOutput(cv *Conversion, text string) string
}

// Markdown is the conversion engine: the configured processor chains plus
// the restricted-mode setting. It holds no per-document state.
type Markdown struct {
	SafeMode SafeMode

	TextPreprocessors  []TextPreprocessor
	Preprocessors      []Preprocessor
	InlinePatterns     []Pattern
	Postprocessors     []Postprocessor
	TextPostprocessors []TextPostprocessor

	resettable []Resettable
	log        *zap.SugaredLogger
}

// New builds an engine with the standard chains, then applies the
// extensions in order. A failing extension is skipped with a diagnostic;
// it never breaks the engine.
func New(safeMode SafeMode, extensions ...Extension) *Markdown {
	md := &Markdown{
		SafeMode: safeMode,
		TextPreprocessors: []TextPreprocessor{
			HTMLBlockPreprocessor{},
		},
		Preprocessors: []Preprocessor{
			HeaderPreprocessor{},
			LinePreprocessor{},
			ReferencePreprocessor{},
		},
		InlinePatterns: defaultInlinePatterns(),
		TextPostprocessors: []TextPostprocessor{
			RawHTMLPostprocessor{},
			AmpSubstitutePostprocessor{},
		},
		log: zap.NewNop().Sugar(),
	}
	for _, ext := range extensions {
		if ext == nil {
			continue
		}
		if err := ext.ExtendMarkdown(md); err != nil {
			md.log.Warnw("skipping extension", "error", err)
		}
	}
	return md
}

// SetLogger routes the engine's diagnostics. The default logger discards
// everything.
func (md *Markdown) SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	md.log = l
}

// RegisterResettable subscribes an extension to Reset. Extensions that keep
// cross-conversion state call this from ExtendMarkdown.
func (md *Markdown) RegisterResettable(r Resettable) {
	md.resettable = append(md.resettable, r)
}

// Reset clears the accumulated state of all registered extensions. The
// engine itself has none.
func (md *Markdown) Reset() {
	for _, r := range md.resettable {
		r.Reset()
	}
}

// Reference is one entry of the reference-definition table.
type Reference struct {
	Href  string
	Title string
}

// Conversion is the per-document state: the tree being built, the stashes,
// the reference table and the effective restricted mode. Patterns and
// processors receive it explicitly instead of sharing anything through the
// engine.
type Conversion struct {
	md *Markdown

	Tree        *Tree
	HTMLStash   *HTMLStash
	InlineStash *InlineStash
	References  map[string]Reference
	SafeMode    SafeMode

	log *zap.SugaredLogger
}

func (md *Markdown) newConversion() *Conversion {
	return &Conversion{
		md:          md,
		Tree:        NewTree(),
		HTMLStash:   &HTMLStash{},
		InlineStash: &InlineStash{},
		References:  make(map[string]Reference),
		SafeMode:    md.SafeMode,
		log:         md.log,
	}
}

// Log exposes the diagnostic logger to extensions.
func (cv *Conversion) Log() *zap.SugaredLogger { return cv.log }

// setReference records a reference definition. The first definition of a
// label wins.
func (cv *Conversion) setReference(id, href, title string) {
	if _, exists := cv.References[id]; exists {
		cv.log.Debugw("duplicate reference definition dropped", "id", id)
		return
	}
	cv.References[id] = Reference{Href: href, Title: title}
}

// expandTabs replaces tabs with spaces up to the next tab stop.
func expandTabs(s string, tabstop int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var sb strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := tabstop - col%tabstop
			for k := 0; k < n; k++ {
				sb.WriteByte(' ')
			}
			col += n
		case '\n':
			sb.WriteRune(r)
			col = 0
		default:
			sb.WriteRune(r)
			col++
		}
	}
	return sb.String()
}

// buildTree runs the preprocessors and the block parser. It reports false
// when the source is rejected outright (invalid encoding).
func (cv *Conversion) buildTree(source string) bool {
	if source == "" {
		return true
	}
	if !utf8.ValidString(source) {
		cv.log.Errorw("source rejected, not valid UTF-8")
		return false
	}

	// The reserved placeholder code points may not come from the input.
	source = strings.ReplaceAll(source, stx, "")
	source = strings.ReplaceAll(source, etx, "")

	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.ReplaceAll(source, "\r", "\n")
	source += "\n\n"
	source = expandTabs(source, tabLength)

	for _, tp := range cv.md.TextPreprocessors {
		source = tp.ProcessText(cv, source)
	}

	lines := strings.Split(source, "\n")
	for _, p := range cv.md.Preprocessors {
		lines = p.ProcessLines(cv, lines)
	}

	// Hash headers start a fresh section.
	var buffer []string
	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			cv.processSection(cv.Tree.Root, buffer, 0, false)
			buffer = []string{line}
		} else {
			buffer = append(buffer, line)
		}
	}
	cv.processSection(cv.Tree.Root, buffer, 0, false)
	return true
}

// ParseToTree runs the pipeline up to the block stage and returns the
// document tree, for callers that want structure rather than markup. Inline
// spans are still unresolved inside the text fields.
func (md *Markdown) ParseToTree(source string) *Tree {
	cv := md.newConversion()
	cv.buildTree(source)
	return cv.Tree
}

// Convert turns one source document into markup text. Malformed markup
// never fails the conversion; it degrades to literal text. Only invalid
// UTF-8 input is rejected, yielding an empty string and a diagnostic.
func (md *Markdown) Convert(source string) string {
	cv := md.newConversion()
	if !cv.buildTree(source) {
		return ""
	}

	cv.applyInlinePatterns()

	root := cv.Tree.Root
	for _, pp := range md.Postprocessors {
		if newRoot := pp.ProcessTree(cv, root); newRoot != NoNode {
			root = newRoot
		}
	}

	cv.Tree.prettyIndent(root, 0)
	out := cv.Tree.Serialize(root)
	for _, tp := range md.TextPostprocessors {
		out = tp.ProcessOutput(cv, out)
	}
	return strings.TrimSpace(out)
}
