package markdown

import (
	"regexp"
	"strings"
)

type inlineAction int

const (
	actionNoMatch inlineAction = iota
	actionSkip
	actionReplace
)

// handleInline runs the pattern chain over one text field and returns the
// text with every match replaced by a stash placeholder. floor is the first
// pattern index to try: 0 for top-level fields, past the producing pattern
// for the text inside freshly built nodes. Atomic text is returned as is.
func (cv *Conversion) handleInline(data Text, floor int) Text {
	if data.Atomic {
		return data
	}
	s := data.Value
	startIndex := 0
	patterns := cv.md.InlinePatterns
	for i := floor; i < len(patterns); {
		var action inlineAction
		s, action, startIndex = cv.applyInline(patterns[i], s, i, startIndex)
		switch action {
		case actionNoMatch:
			i++
			startIndex = 0
		case actionSkip:
			// Same pattern again, past the rejected candidate.
		case actionReplace:
			i = floor
			startIndex = 0
		}
	}
	return Text{Value: s}
}

// applyInline tries one pattern against data from startIndex on. On a real
// match the replacement is stashed, the placeholder spliced in and matching
// restarts from the floor; a handler veto moves the cursor just past the
// candidate so the same pattern can look further right.
func (cv *Conversion) applyInline(p Pattern, data string, patternIndex, startIndex int) (string, inlineAction, int) {
	segment := data[startIndex:]
	m, err := p.Match(segment)
	if err != nil || m == nil {
		return data, actionNoMatch, 0
	}

	lastGroup := group(m, m.GroupCount()-1)
	repl := p.HandleMatch(cv, m)

	switch repl.Kind {
	case ReplaceNone:
		// The trailing wrapper group runs to the end of the segment, so
		// its length locates the end of the candidate.
		return data, actionSkip, startIndex + len(segment) - len(lastGroup)

	case ReplaceNode:
		node := repl.Node
		if tag := cv.Tree.Node(node).Tag; tag != "code" && tag != "pre" {
			ids := append([]NodeID{node}, cv.Tree.Node(node).Children...)
			for _, id := range ids {
				if text := cv.Tree.Node(id).Text; text.Value != "" {
					done := cv.handleInline(text, patternIndex+1)
					cv.Tree.Node(id).Text = done
				}
				if tail := cv.Tree.Node(id).Tail; tail.Value != "" {
					done := cv.handleInline(tail, patternIndex)
					cv.Tree.Node(id).Tail = done
				}
			}
		}
		ph := cv.InlineStash.Add(node, p.Type())
		return data[:startIndex] + group(m, 1) + ph + lastGroup, actionReplace, 0

	default: // ReplaceText
		ph := cv.InlineStash.AddText(repl.Text, p.Type())
		return data[:startIndex] + group(m, 1) + ph + lastGroup, actionReplace, 0
	}
}

// processPlaceholders rebuilds a processed text field under parent: literal
// runs become text/tail data, node placeholders become real children (their
// own fields resolved recursively first). The resolved child nodes are
// returned in document order; the caller splices them into the tree.
func (cv *Conversion) processPlaceholders(data string, parent NodeID) []NodeID {
	var result []NodeID

	linkText := func(text string) {
		if text == "" {
			return
		}
		if len(result) > 0 {
			last := cv.Tree.Node(result[len(result)-1])
			last.Tail.Value += text
		} else {
			cv.Tree.Node(parent).Text.Value += text
		}
	}

	startIndex := 0
	for data != "" {
		index := strings.Index(data[startIndex:], inlinePlaceholderPrefix)
		if index == -1 {
			linkText(data[startIndex:])
			break
		}
		index += startIndex

		id, phEnd := cv.InlineStash.ExtractID(data, index)
		entry, known := cv.InlineStash.Get(id)
		if !known || id == "" {
			// Stray prefix without a valid id: keep it as literal text
			// and scan on.
			end := index + len(inlinePlaceholderPrefix)
			if end > len(data) {
				end = len(data)
			}
			linkText(data[startIndex:end])
			startIndex = end
			continue
		}

		if index > 0 {
			linkText(data[startIndex:index])
		}
		if !entry.isNode {
			linkText(entry.text)
			startIndex = phEnd
			continue
		}

		node := entry.node
		children := append([]NodeID{node}, cv.Tree.Node(node).Children...)
		for _, child := range children {
			if tail := cv.Tree.Node(child).Tail; strings.TrimSpace(tail.Value) != "" {
				cv.processElementText(node, child, false)
			}
			if text := cv.Tree.Node(child).Text; strings.TrimSpace(text.Value) != "" {
				cv.processElementText(child, child, true)
			}
		}
		startIndex = phEnd
		result = append(result, node)
	}
	return result
}

// processElementText resolves the placeholders inside one text or tail
// field of subnode and splices the resulting nodes into node at the right
// position.
func (cv *Conversion) processElementText(node, subnode NodeID, isText bool) {
	var text Text
	if isText {
		text = cv.Tree.Node(subnode).Text
		cv.Tree.Node(subnode).Text = Text{}
	} else {
		text = cv.Tree.Node(subnode).Tail
		cv.Tree.Node(subnode).Tail = Text{}
	}

	childResult := cv.processPlaceholders(text.Value, subnode)

	pos := 0
	if !isText && node != subnode {
		pos = cv.Tree.ChildIndex(node, subnode)
		cv.Tree.RemoveChild(node, subnode)
	}
	for i := len(childResult) - 1; i >= 0; i-- {
		cv.Tree.InsertChild(node, pos, childResult[i])
	}
}

var attrRe = regexp.MustCompile(`\{@([^\}]*)=([^\}]*)}`)

// handleAttributes strips {@key=value} annotations out of text, applying
// them as attributes of elem.
func (cv *Conversion) handleAttributes(text string, elem NodeID) string {
	return attrRe.ReplaceAllStringFunc(text, func(s string) string {
		parts := attrRe.FindStringSubmatch(s)
		cv.Tree.Node(elem).SetAttr(parts[1], strings.ReplaceAll(parts[2], "\n", " "))
		return ""
	})
}

// applyInlinePatterns drives the inline stage over the whole tree with an
// explicit worklist. Each element's text is matched and resolved; nodes the
// resolution produced are queued for their own pass, then inserted in front
// of the element's existing children while attribute annotations are
// applied.
func (cv *Conversion) applyInlinePatterns() {
	type insertion struct {
		element NodeID
		nodes   []NodeID
	}

	worklist := []NodeID{cv.Tree.Root}
	for len(worklist) > 0 {
		curr := worklist[0]
		worklist = worklist[1:]

		var queue []insertion
		children := append([]NodeID(nil), cv.Tree.Node(curr).Children...)
		for _, child := range children {
			text := cv.Tree.Node(child).Text
			tag := cv.Tree.Node(child).Tag
			if text.Value != "" && !text.Atomic && tag != "code" && tag != "pre" {
				cv.Tree.Node(child).Text = Text{}
				processed := cv.handleInline(text, 0)
				lst := cv.processPlaceholders(processed.Value, child)
				worklist = append(worklist, lst...)
				queue = append(queue, insertion{element: child, nodes: lst})
			}
			if len(cv.Tree.Node(child).Children) > 0 {
				worklist = append(worklist, child)
			}
		}

		for _, ins := range queue {
			if t := cv.Tree.Node(ins.element).Text; t.Value != "" && !t.Atomic {
				cv.Tree.Node(ins.element).Text = Text{Value: cv.handleAttributes(t.Value, ins.element)}
			}
			for i, node := range ins.nodes {
				if tail := cv.Tree.Node(node).Tail; tail.Value != "" && !tail.Atomic {
					cv.Tree.Node(node).Tail = Text{Value: cv.handleAttributes(tail.Value, ins.element)}
				}
				if text := cv.Tree.Node(node).Text; text.Value != "" && !text.Atomic {
					cv.Tree.Node(node).Text = Text{Value: cv.handleAttributes(text.Value, node)}
				}
				cv.Tree.InsertChild(ins.element, i, node)
			}
		}
	}
}
