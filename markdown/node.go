package markdown

import (
	"strings"
)

// NodeID addresses a node inside a Tree. Nodes are stored in a flat arena
// owned by the tree, so ids stay valid while the tree grows.
type NodeID int

// NoNode is the zero-value-ish sentinel for "no node here".
const NoNode NodeID = -1

// An Attribute is an attribute key-value pair of an element.
type Attribute struct {
	Key string
	Val string
}

// Text is a chunk of character data with its atomic flag. Atomic text is
// verbatim content (code spans, stashed raw HTML) that must never be run
// through the inline patterns again. The flag travels with the value, so
// every copy of the text keeps it.
type Text struct {
	Value  string
	Atomic bool
}

// Node is one element of the document tree: a tag, its attributes, the text
// directly inside the element, the tail text following the element (still
// owned by the parent's content stream) and the ordered child ids.
type Node struct {
	Tag      string
	Attr     []Attribute
	Text     Text
	Tail     Text
	Children []NodeID
}

// SetAttr sets an attribute, replacing a previous value for the same key.
func (n *Node) SetAttr(key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, Attribute{Key: key, Val: val})
}

// AttrValue returns the value of an attribute and whether it is present.
func (n *Node) AttrValue(key string) (string, bool) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			return n.Attr[i].Val, true
		}
	}
	return "", false
}

// Tree is an arena of nodes. The root is a synthetic "span" element whose
// children are the top-level blocks of the document.
type Tree struct {
	nodes []Node
	Root  NodeID
}

// NewTree returns a tree containing only the synthetic root element.
func NewTree() *Tree {
	t := &Tree{}
	t.Root = t.NewElement("span")
	return t
}

// NewElement allocates a detached element in the arena and returns its id.
func (t *Tree) NewElement(tag string) NodeID {
	t.nodes = append(t.nodes, Node{Tag: tag})
	return NodeID(len(t.nodes) - 1)
}

// Node returns a pointer into the arena. The pointer is invalidated by the
// next NewElement or SubElement call, so callers must not hold it across
// allocations.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// SubElement allocates an element and appends it to parent's children.
func (t *Tree) SubElement(parent NodeID, tag string) NodeID {
	child := t.NewElement(tag)
	t.AppendChild(parent, child)
	return child
}

// AppendChild adds child at the end of parent's child list.
func (t *Tree) AppendChild(parent, child NodeID) {
	n := t.Node(parent)
	n.Children = append(n.Children, child)
}

// InsertChild inserts child at position pos of parent's child list.
func (t *Tree) InsertChild(parent NodeID, pos int, child NodeID) {
	n := t.Node(parent)
	if pos < 0 {
		pos = 0
	}
	if pos > len(n.Children) {
		pos = len(n.Children)
	}
	n.Children = append(n.Children, NoNode)
	copy(n.Children[pos+1:], n.Children[pos:])
	n.Children[pos] = child
}

// ChildIndex returns the position of child among parent's children, or -1.
func (t *Tree) ChildIndex(parent, child NodeID) int {
	for i, c := range t.Node(parent).Children {
		if c == child {
			return i
		}
	}
	return -1
}

// RemoveChild removes child from parent's child list. The node itself stays
// in the arena; only the link is broken.
func (t *Tree) RemoveChild(parent, child NodeID) {
	n := t.Node(parent)
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return
		}
	}
}

// Clone allocates a detached copy of a node: tag, attributes, text and tail
// (the atomic flags come along with the Text values). Children are not
// copied.
func (t *Tree) Clone(id NodeID) NodeID {
	src := *t.Node(id)
	clone := t.NewElement(src.Tag)
	n := t.Node(clone)
	n.Attr = append([]Attribute(nil), src.Attr...)
	n.Text = src.Text
	n.Tail = src.Tail
	return clone
}

// prettyIndent reproduces the whitespace the legacy serializer injected
// before writing the tree out: blank text/tail fields become newline plus
// two spaces per nesting level. Non-blank fields are never touched.
func (t *Tree) prettyIndent(id NodeID, level int) {
	i := "\n"
	if level > 1 {
		i = "\n" + strings.Repeat("  ", level-1)
	}

	n := t.Node(id)
	if len(n.Children) > 0 {
		if strings.TrimSpace(n.Text.Value) == "" {
			n.Text = Text{Value: i + "  "}
		}
		children := n.Children
		for _, c := range children {
			t.prettyIndent(c, level+1)
		}
		last := t.Node(children[len(children)-1])
		if strings.TrimSpace(last.Tail.Value) == "" {
			last.Tail = Text{Value: i}
		}
	}
	n = t.Node(id)
	if level > 0 && strings.TrimSpace(n.Tail.Value) == "" {
		n.Tail = Text{Value: i}
	}
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// Serialize renders the children of root (the synthetic wrapper itself is
// dropped, like the legacy serializer sliced it off) to markup text.
// Placeholder code points pass through untouched; they are resolved by the
// text postprocessors afterwards.
func (t *Tree) Serialize(root NodeID) string {
	var sb strings.Builder
	n := t.Node(root)
	sb.WriteString(textEscaper.Replace(n.Text.Value))
	for _, c := range n.Children {
		t.writeElement(&sb, c)
	}
	return sb.String()
}

func (t *Tree) writeElement(sb *strings.Builder, id NodeID) {
	n := t.Node(id)
	sb.WriteByte('<')
	sb.WriteString(n.Tag)
	for _, a := range n.Attr {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(attrEscaper.Replace(a.Val))
		sb.WriteByte('"')
	}
	if n.Text.Value == "" && len(n.Children) == 0 {
		sb.WriteString(" />")
	} else {
		sb.WriteByte('>')
		sb.WriteString(textEscaper.Replace(n.Text.Value))
		for _, c := range n.Children {
			t.writeElement(sb, c)
		}
		sb.WriteString("</")
		sb.WriteString(t.Node(id).Tag)
		sb.WriteByte('>')
	}
	sb.WriteString(textEscaper.Replace(t.Node(id).Tail.Value))
}
