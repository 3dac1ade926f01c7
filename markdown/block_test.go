package markdown

import (
	"strings"
	"testing"
)

// childByTag returns the first child of parent with the given tag.
func childByTag(t *testing.T, tree *Tree, parent NodeID, tag string) NodeID {
	t.Helper()
	for _, c := range tree.Node(parent).Children {
		if tree.Node(c).Tag == tag {
			return c
		}
	}
	t.Fatalf("no %q child under %q", tag, tree.Node(parent).Tag)
	return NoNode
}

func TestParseToTreeTightList(t *testing.T) {
	md := New(SafeModeOff)
	tree := md.ParseToTree("- a\n- b")

	ul := childByTag(t, tree, tree.Root, "ul")
	items := tree.Node(ul).Children
	if len(items) != 2 {
		t.Fatalf("got %d list items, want 2", len(items))
	}
	for i, li := range items {
		n := tree.Node(li)
		if len(n.Children) != 0 {
			t.Errorf("item %d has %d children, tight items hold bare text", i, len(n.Children))
		}
	}
	if got := tree.Node(items[0]).Text.Value; got != "a" {
		t.Errorf("first item text = %q, want %q", got, "a")
	}
}

func TestParseToTreeLooseList(t *testing.T) {
	md := New(SafeModeOff)
	tree := md.ParseToTree("- a\n\n- b")

	ul := childByTag(t, tree, tree.Root, "ul")
	items := tree.Node(ul).Children
	if len(items) != 2 {
		t.Fatalf("got %d list items, want 2", len(items))
	}
	for i, li := range items {
		p := childByTag(t, tree, li, "p")
		if i == 0 && tree.Node(p).Text.Value != "a" {
			t.Errorf("first item paragraph = %q, want %q", tree.Node(p).Text.Value, "a")
		}
	}
}

func TestParseToTreeNestedBlocks(t *testing.T) {
	// A code block inside a list item inside a blockquote.
	source := "> - item\n>\n> " + strings.Repeat(" ", 8) + "code"

	md := New(SafeModeOff)
	tree := md.ParseToTree(source)

	quote := childByTag(t, tree, tree.Root, "blockquote")
	ul := childByTag(t, tree, quote, "ul")
	li := childByTag(t, tree, ul, "li")
	p := childByTag(t, tree, li, "p")
	if got := tree.Node(p).Text.Value; got != "item" {
		t.Errorf("item paragraph = %q, want %q", got, "item")
	}
	pre := childByTag(t, tree, li, "pre")
	code := childByTag(t, tree, pre, "code")
	if got := tree.Node(code).Text; got.Value != "code\n" || !got.Atomic {
		t.Errorf("code text = %+v, want atomic %q", got, "code\n")
	}
}

func TestParseToTreeHeaders(t *testing.T) {
	md := New(SafeModeOff)
	tree := md.ParseToTree("# One\n\ntext\n\n###### Six")

	children := tree.Node(tree.Root).Children
	var tags []string
	for _, c := range children {
		tags = append(tags, tree.Node(c).Tag)
	}
	want := []string{"h1", "p", "h6"}
	if len(tags) != len(want) {
		t.Fatalf("got tags %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("got tags %v, want %v", tags, want)
		}
	}
	if got := tree.Node(children[0]).Text.Value; got != "One" {
		t.Errorf("h1 text = %q, want %q", got, "One")
	}
}

func TestLinesUntil(t *testing.T) {
	lines := []string{"a", "b", "", "c"}
	head, rest := linesUntil(lines, func(line string) bool { return line == "" })
	if len(head) != 2 || len(rest) != 2 {
		t.Fatalf("linesUntil() = %v, %v", head, rest)
	}
	head, rest = linesUntil(lines, func(line string) bool { return false })
	if len(head) != 4 || rest != nil {
		t.Fatalf("linesUntil() without hit = %v, %v", head, rest)
	}
}

func TestDetectTabbed(t *testing.T) {
	lines := []string{"    a", "", "    b", "after"}
	detabbed, rest := detectTabbed(lines)
	if len(detabbed) != 3 || detabbed[0] != "a" || detabbed[1] != "" || detabbed[2] != "b" {
		t.Errorf("detectTabbed() detabbed = %v", detabbed)
	}
	if len(rest) != 1 || rest[0] != "after" {
		t.Errorf("detectTabbed() rest = %v", rest)
	}
}
