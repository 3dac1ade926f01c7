package markdown

import (
	"fmt"
	"strings"
)

// The two reserved code points bracket every placeholder. Any occurrence of
// them in the input source is stripped before processing starts, so a
// well-formed placeholder in the working text can only have been produced by
// one of the stashes.
const (
	stx = ""
	etx = ""

	inlinePlaceholderPrefix = stx + "inline:"
	htmlPlaceholderPrefix   = stx + "html:"

	// ampSubstitute stands for a bare "&" that must reach the output
	// unescaped. The final text postprocessor turns it back.
	ampSubstitute = stx + "amp" + etx
)

// HTMLRemovedText replaces untrusted raw fragments when the restricted mode
// is neither "remove" nor "escape".
const HTMLRemovedText = "[HTML_REMOVED]"

func htmlPlaceholder(index int) string {
	return htmlPlaceholderPrefix + fmt.Sprintf("%d", index) + etx
}

type rawFragment struct {
	html string
	safe bool
}

// HTMLStash parks raw HTML fragments for the duration of one conversion.
// Each stored fragment is represented in the working text by an opaque
// placeholder; the raw text postprocessor swaps the fragments back in at the
// very end, applying the restricted-mode policy to the unsafe ones.
type HTMLStash struct {
	fragments []rawFragment
}

// Store saves a fragment and returns its placeholder. Fragments stored with
// safe=true bypass the restricted-mode policy.
func (s *HTMLStash) Store(html string, safe bool) string {
	s.fragments = append(s.fragments, rawFragment{html: html, safe: safe})
	return htmlPlaceholder(len(s.fragments) - 1)
}

// Len returns the number of stashed fragments.
func (s *HTMLStash) Len() int { return len(s.fragments) }

// Fragment returns fragment i and its safe flag.
func (s *HTMLStash) Fragment(i int) (string, bool) {
	f := s.fragments[i]
	return f.html, f.safe
}

type stashedInline struct {
	node   NodeID
	text   string
	isNode bool
}

// InlineStash holds the nodes and literal strings produced by the inline
// patterns while the surrounding text is still being matched. Placeholders
// look like STX + "inline:" + type + ":" + NNNN + ETX.
type InlineStash struct {
	entries map[string]stashedInline
	counter int
}

func (s *InlineStash) add(entry stashedInline, typ string) string {
	if s.entries == nil {
		s.entries = make(map[string]stashedInline)
	}
	id := fmt.Sprintf("%04d", s.counter)
	s.counter++
	s.entries[id] = entry
	return inlinePlaceholderPrefix + typ + ":" + id + etx
}

// Add stashes a node and returns its placeholder.
func (s *InlineStash) Add(node NodeID, typ string) string {
	return s.add(stashedInline{node: node, isNode: true}, typ)
}

// AddText stashes a literal string and returns its placeholder. The string
// reaches the output verbatim, shielded from any further pattern matching.
func (s *InlineStash) AddText(text, typ string) string {
	return s.add(stashedInline{text: text}, typ)
}

// Get looks up a stashed entry by id.
func (s *InlineStash) Get(id string) (stashedInline, bool) {
	e, ok := s.entries[id]
	return e, ok
}

// ExtractID parses the placeholder starting at index (which points at the
// prefix) and returns the stash id together with the index of the first
// byte after the closing delimiter. A malformed placeholder yields an empty
// id and index+1, so the caller resumes scanning one byte further and the
// bogus prefix degrades to literal text.
func (s *InlineStash) ExtractID(data string, index int) (string, int) {
	end := strings.Index(data[index+1:], etx)
	if end == -1 {
		return "", index + 1
	}
	end += index + 1
	if end < index+len(inlinePlaceholderPrefix) {
		return "", index + 1
	}
	inner := data[index+len(inlinePlaceholderPrefix):end]
	pair := strings.Split(inner, ":")
	if len(pair) != 2 {
		return "", index + 1
	}
	return pair[1], end + len(etx)
}
