package markdown

import (
	"testing"
)

func TestNodeAttributes(t *testing.T) {
	tree := NewTree()
	el := tree.SubElement(tree.Root, "a")
	n := tree.Node(el)
	n.SetAttr("href", "/one")
	n.SetAttr("title", "t")
	n.SetAttr("href", "/two")

	if got, _ := n.AttrValue("href"); got != "/two" {
		t.Errorf("href = %q, want replacement value", got)
	}
	if len(n.Attr) != 2 {
		t.Errorf("attr count = %d, want 2", len(n.Attr))
	}
	if _, ok := n.AttrValue("missing"); ok {
		t.Error("AttrValue reported a missing key as present")
	}
}

func TestInsertChild(t *testing.T) {
	tree := NewTree()
	p := tree.SubElement(tree.Root, "p")
	a := tree.NewElement("a")
	b := tree.NewElement("b")
	c := tree.NewElement("c")

	tree.AppendChild(p, a)
	tree.InsertChild(p, 0, b)
	tree.InsertChild(p, 1, c)

	var tags []string
	for _, id := range tree.Node(p).Children {
		tags = append(tags, tree.Node(id).Tag)
	}
	if len(tags) != 3 || tags[0] != "b" || tags[1] != "c" || tags[2] != "a" {
		t.Errorf("children = %v, want [b c a]", tags)
	}

	if got := tree.ChildIndex(p, c); got != 1 {
		t.Errorf("ChildIndex = %d, want 1", got)
	}
	tree.RemoveChild(p, c)
	if got := tree.ChildIndex(p, c); got != -1 {
		t.Errorf("ChildIndex after remove = %d, want -1", got)
	}
}

func TestCloneKeepsAtomicFlag(t *testing.T) {
	tree := NewTree()
	code := tree.NewElement("code")
	tree.Node(code).Text = Text{Value: "x > y", Atomic: true}
	tree.Node(code).SetAttr("class", "c")

	clone := tree.Clone(code)
	n := tree.Node(clone)
	if !n.Text.Atomic || n.Text.Value != "x > y" {
		t.Errorf("clone text = %+v, atomic flag must survive the copy", n.Text)
	}
	if got, _ := n.AttrValue("class"); got != "c" {
		t.Errorf("clone class = %q", got)
	}
}

func TestSerializeEscaping(t *testing.T) {
	tree := NewTree()
	p := tree.SubElement(tree.Root, "p")
	tree.Node(p).Text = Text{Value: `a < b & c`}
	a := tree.SubElement(p, "a")
	tree.Node(a).SetAttr("href", `/x?q="v"&r`)
	tree.Node(a).Text = Text{Value: "link"}
	tree.Node(a).Tail = Text{Value: "tail>"}

	got := tree.Serialize(tree.Root)
	want := `<p>a &lt; b &amp; c<a href="/x?q=&quot;v&quot;&amp;r">link</a>tail&gt;</p>`
	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerializeSelfClosing(t *testing.T) {
	tree := NewTree()
	tree.SubElement(tree.Root, "hr")
	if got := tree.Serialize(tree.Root); got != "<hr />" {
		t.Errorf("Serialize() = %q, want %q", got, "<hr />")
	}
}

func TestPrettyIndent(t *testing.T) {
	tree := NewTree()
	ul := tree.SubElement(tree.Root, "ul")
	for _, txt := range []string{"a", "b"} {
		li := tree.SubElement(ul, "li")
		tree.Node(li).Text = Text{Value: txt}
	}

	tree.prettyIndent(tree.Root, 0)
	got := tree.Serialize(tree.Root)
	want := "\n  <ul>\n  <li>a</li>\n  <li>b</li>\n</ul>\n"
	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}
