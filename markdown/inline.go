package markdown

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

// Every inline pattern is compiled wrapped as ^(.*?)PATTERN(.*?)$ so a match
// also captures the text on both sides. Several patterns lean on lookbehind
// and backreferences, which is what regexp2 is here for. Singleline makes
// the wrapper groups span line breaks inside a paragraph.
func compileInline(expr string) *regexp2.Regexp {
	return regexp2.MustCompile("^(.*?)"+expr+"(.*?)$", regexp2.Singleline)
}

// ReplacementKind says what a pattern handler produced.
type ReplacementKind int

const (
	// ReplaceNone: the candidate is not a real match, resume scanning
	// after its start.
	ReplaceNone ReplacementKind = iota
	// ReplaceText: splice in a literal string (stashed, so it is opaque
	// to later patterns).
	ReplaceText
	// ReplaceNode: splice in a tree node via a placeholder.
	ReplaceNode
)

// Replacement is the result of a pattern handler.
type Replacement struct {
	Kind ReplacementKind
	Node NodeID
	Text string
}

// A Pattern matches one inline construct. Patterns hold no conversion
// state; everything per-document comes in through the Conversion.
type Pattern interface {
	// Match runs the wrapped expression against data.
	Match(data string) (*regexp2.Match, error)
	// HandleMatch turns a successful match into a replacement.
	HandleMatch(cv *Conversion, m *regexp2.Match) Replacement
	// Type names the pattern inside placeholders.
	Type() string
}

type basePattern struct {
	re   *regexp2.Regexp
	name string
}

func (p *basePattern) Match(data string) (*regexp2.Match, error) {
	return p.re.FindStringMatch(data)
}

func (p *basePattern) Type() string { return p.name }

func group(m *regexp2.Match, n int) string {
	g := m.GroupByNumber(n)
	if g == nil {
		return ""
	}
	return g.String()
}

// Raw inline expressions. The bracket expression tolerates up to six levels
// of nested square brackets inside link text.
const nobracket = `[^\]\[]*`

var brk = `\[(` +
	strings.Repeat(nobracket+`(\[`, 6) +
	strings.Repeat(nobracket+`\])*`, 6) +
	nobracket + `)\]`

const noimg = `(?<!\!)`

var (
	backtickExpr   = "(?<!\\\\)(`+)(.+?)(?<!`)\\2(?!`)"
	escapeExpr     = `\\(.)`
	emphasisExpr   = `(\*)([^\*]*)\2`
	emphasis2Expr  = `(?<!\S)(_)(\S.*?)\2`
	strongExpr     = `(\*{2}|_{2})(.*?)\2`
	strongEmExpr   = `(\*{3}|_{3})(.*?)\2`
	linkExpr       = noimg + brk + `\(\s*(<.*?>|((?:(?:\(.*?\))|[^\(\)]))*?)\s*((['"])(.*)\12)?\)`
	imageLinkExpr  = `\!` + brk + `\s*\((<.*?>|([^\)]*))\)`
	referenceExpr  = noimg + brk + `\s*\[([^\]]*)\]`
	imageRefExpr   = `\!` + brk + `\s*\[([^\]]*)\]`
	notStrongExpr  = `( \* )`
	autolinkExpr   = `<((?:f|ht)tps?://[^>]*)>`
	automailExpr   = `<([^> \!]*@[^> ]*)>`
	htmlExpr       = `(\<([a-zA-Z/][^\>]*?|\!--.*?--)\>)`
	entityExpr     = `(&[\#a-zA-Z0-9]*;)`
	lineBreakExpr  = `  \n`
	lineBreak2Expr = `  $`
)

// simpleTextPattern replaces the match with its literal second group.
type simpleTextPattern struct {
	basePattern
}

func (p *simpleTextPattern) HandleMatch(cv *Conversion, m *regexp2.Match) Replacement {
	text := group(m, 2)
	if text == inlinePlaceholderPrefix {
		return Replacement{Kind: ReplaceNone}
	}
	return Replacement{Kind: ReplaceText, Text: text}
}

// simpleTagPattern wraps its third group in a single element.
type simpleTagPattern struct {
	basePattern
	tag string
}

func (p *simpleTagPattern) HandleMatch(cv *Conversion, m *regexp2.Match) Replacement {
	el := cv.Tree.NewElement(p.tag)
	cv.Tree.Node(el).Text = Text{Value: group(m, 3)}
	return Replacement{Kind: ReplaceNode, Node: el}
}

// substituteTagPattern replaces the match with an empty element.
type substituteTagPattern struct {
	basePattern
	tag string
}

func (p *substituteTagPattern) HandleMatch(cv *Conversion, m *regexp2.Match) Replacement {
	return Replacement{Kind: ReplaceNode, Node: cv.Tree.NewElement(p.tag)}
}

// doubleTagPattern nests two elements around the third group, for the
// ***strong and emphasized*** forms.
type doubleTagPattern struct {
	basePattern
	outer, inner string
}

func (p *doubleTagPattern) HandleMatch(cv *Conversion, m *regexp2.Match) Replacement {
	el1 := cv.Tree.NewElement(p.outer)
	el2 := cv.Tree.SubElement(el1, p.inner)
	cv.Tree.Node(el2).Text = Text{Value: group(m, 3)}
	return Replacement{Kind: ReplaceNode, Node: el1}
}

// backtickPattern builds a code span with atomic text.
type backtickPattern struct {
	basePattern
}

func (p *backtickPattern) HandleMatch(cv *Conversion, m *regexp2.Match) Replacement {
	el := cv.Tree.NewElement("code")
	cv.Tree.Node(el).Text = Text{Value: strings.TrimSpace(group(m, 3)), Atomic: true}
	return Replacement{Kind: ReplaceNode, Node: el}
}

// htmlPattern stashes an inline raw fragment and splices in its placeholder.
type htmlPattern struct {
	basePattern
}

func (p *htmlPattern) HandleMatch(cv *Conversion, m *regexp2.Match) Replacement {
	return Replacement{Kind: ReplaceText, Text: cv.HTMLStash.Store(group(m, 2), false)}
}

// entityPattern keeps character references out of the serializer's escaping
// by routing them through the HTML stash.
type entityPattern struct {
	basePattern
}

func (p *entityPattern) HandleMatch(cv *Conversion, m *regexp2.Match) Replacement {
	return Replacement{Kind: ReplaceText, Text: cv.HTMLStash.Store(group(m, 2), false)}
}

// linkPattern handles [text](url "title").
type linkPattern struct {
	basePattern
}

func (p *linkPattern) HandleMatch(cv *Conversion, m *regexp2.Match) Replacement {
	el := cv.Tree.NewElement("a")
	n := cv.Tree.Node(el)
	n.Text = Text{Value: group(m, 2)}
	href := group(m, 9)
	if href != "" {
		if strings.HasPrefix(href, "<") && len(href) >= 2 {
			href = href[1 : len(href)-1]
		}
		n.SetAttr("href", sanitizeURL(cv, strings.TrimSpace(href)))
	} else {
		n.SetAttr("href", "")
	}
	if title := group(m, 11); title != "" {
		n.SetAttr("title", dequote(title))
	}
	return Replacement{Kind: ReplaceNode, Node: el}
}

// imagePattern handles ![alt](src "title").
type imagePattern struct {
	basePattern
}

func (p *imagePattern) HandleMatch(cv *Conversion, m *regexp2.Match) Replacement {
	el := cv.Tree.NewElement("img")
	srcParts := strings.Fields(group(m, 9))
	if len(srcParts) > 0 {
		src := srcParts[0]
		if len(src) >= 2 && src[0] == '<' && src[len(src)-1] == '>' {
			src = src[1 : len(src)-1]
		}
		cv.Tree.Node(el).SetAttr("src", sanitizeURL(cv, src))
	} else {
		cv.Tree.Node(el).SetAttr("src", "")
	}
	if len(srcParts) > 1 {
		cv.Tree.Node(el).SetAttr("title", dequote(strings.Join(srcParts[1:], " ")))
	}
	alt := group(m, 2)
	if enableAttributes {
		alt = cv.handleAttributes(alt, el)
	}
	cv.Tree.Node(el).SetAttr("alt", alt)
	return Replacement{Kind: ReplaceNode, Node: el}
}

// referencePattern handles [text][id] and the [text][] shortcut, looking the
// label up in the conversion's reference table. An unknown label is not a
// match at all, so the text stays literal.
type referencePattern struct {
	basePattern
	image bool
}

func (p *referencePattern) HandleMatch(cv *Conversion, m *regexp2.Match) Replacement {
	id := strings.ToLower(group(m, 9))
	if id == "" {
		id = strings.ToLower(group(m, 2))
	}
	ref, ok := cv.References[id]
	if !ok {
		return Replacement{Kind: ReplaceNone}
	}

	var el NodeID
	if p.image {
		el = cv.Tree.NewElement("img")
		n := cv.Tree.Node(el)
		n.SetAttr("src", sanitizeURL(cv, ref.Href))
		if ref.Title != "" {
			n.SetAttr("title", ref.Title)
		}
		n.SetAttr("alt", group(m, 2))
	} else {
		el = cv.Tree.NewElement("a")
		n := cv.Tree.Node(el)
		n.SetAttr("href", sanitizeURL(cv, ref.Href))
		if ref.Title != "" {
			n.SetAttr("title", ref.Title)
		}
		n.Text = Text{Value: group(m, 2)}
	}
	return Replacement{Kind: ReplaceNode, Node: el}
}

// autolinkPattern handles <http://...>. The target doubles as the link text
// and is atomic so it is never rematched.
type autolinkPattern struct {
	basePattern
}

func (p *autolinkPattern) HandleMatch(cv *Conversion, m *regexp2.Match) Replacement {
	el := cv.Tree.NewElement("a")
	n := cv.Tree.Node(el)
	n.SetAttr("href", group(m, 2))
	n.Text = Text{Value: group(m, 2), Atomic: true}
	return Replacement{Kind: ReplaceNode, Node: el}
}

// automailPattern handles <user@host>, obfuscating both the text and the
// mailto target as numeric character references.
type automailPattern struct {
	basePattern
}

func encodeEntities(s string) string {
	var sb strings.Builder
	for _, r := range s {
		sb.WriteString(ampSubstitute)
		sb.WriteByte('#')
		sb.WriteString(strconv.Itoa(int(r)))
		sb.WriteByte(';')
	}
	return sb.String()
}

func (p *automailPattern) HandleMatch(cv *Conversion, m *regexp2.Match) Replacement {
	email := strings.TrimPrefix(group(m, 2), "mailto:")
	el := cv.Tree.NewElement("a")
	n := cv.Tree.Node(el)
	n.Text = Text{Value: encodeEntities(email), Atomic: true}
	n.SetAttr("href", encodeEntities("mailto:"+email))
	return Replacement{Kind: ReplaceNode, Node: el}
}

// defaultInlinePatterns builds the standard pattern chain. Order is
// precedence: code spans and escapes before links, links before emphasis.
func defaultInlinePatterns() []Pattern {
	mk := func(name, expr string) basePattern {
		return basePattern{re: compileInline(expr), name: name}
	}
	return []Pattern{
		&backtickPattern{mk("backtick", backtickExpr)},
		&simpleTextPattern{mk("escape", escapeExpr)},
		&referencePattern{basePattern: mk("reference", referenceExpr)},
		&linkPattern{mk("link", linkExpr)},
		&imagePattern{mk("image", imageLinkExpr)},
		&referencePattern{basePattern: mk("imagereference", imageRefExpr), image: true},
		&autolinkPattern{mk("autolink", autolinkExpr)},
		&automailPattern{mk("automail", automailExpr)},
		&substituteTagPattern{basePattern: mk("linebreak2", lineBreak2Expr), tag: "br"},
		&substituteTagPattern{basePattern: mk("linebreak", lineBreakExpr), tag: "br"},
		&htmlPattern{mk("html", htmlExpr)},
		&entityPattern{mk("entity", entityExpr)},
		&simpleTextPattern{mk("notstrong", notStrongExpr)},
		&doubleTagPattern{basePattern: mk("strongem", strongEmExpr), outer: "strong", inner: "em"},
		&simpleTagPattern{basePattern: mk("strong", strongExpr), tag: "strong"},
		&simpleTagPattern{basePattern: mk("emphasis", emphasisExpr), tag: "em"},
		&simpleTagPattern{basePattern: mk("emphasis2", emphasis2Expr), tag: "em"},
	}
}

// dequote strips one level of matching quotes.
func dequote(s string) string {
	if len(s) >= 2 &&
		((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		return s[1 : len(s)-1]
	}
	return s
}

var loclessSchemes = []string{"", "mailto", "news"}

// sanitizeURL vets a link target. Outside the restricted modes the target
// passes through byte for byte. In a restricted mode, targets whose scheme
// could smuggle script (anything that is neither host-based nor one of the
// locless schemes, or that hides a colon in its tail) collapse to an empty
// string.
func sanitizeURL(cv *Conversion, rawURL string) string {
	if cv.SafeMode == SafeModeOff {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	safe := u.Host != ""
	if !safe {
		for _, s := range loclessSchemes {
			if u.Scheme == s {
				safe = true
				break
			}
		}
	}
	for _, part := range []string{u.Opaque, u.Path, u.RawQuery, u.Fragment} {
		if strings.Contains(part, ":") {
			safe = false
		}
	}
	if !safe {
		return ""
	}
	return u.String()
}
