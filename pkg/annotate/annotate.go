package annotate

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Annotate renders markdown to HTML and wraps every whole-word, case-insensitive
// occurrence of a glossary term in tooltip markup. Only text content is
// eligible: tags and attribute values are never touched, and the visible text
// of the result is byte-identical to the plain rendering.
func Annotate(markdown string, glossary Glossary) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	rendered := buf.String()

	if glossary.Empty() {
		return rendered, nil
	}
	return InjectTerms(rendered, glossary)
}

// InjectTerms walks already-rendered HTML and injects tooltip spans around
// glossary matches. Parsing problems degrade to the input markup unchanged
// rather than failing the render.
func InjectTerms(markup string, glossary Glossary) (string, error) {
	body := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return markup, nil
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	// Collect text leaves first, then mutate. Replacing children while
	// walking the live tree would invalidate the traversal, and collecting
	// up front also guarantees injected spans are never rescanned.
	var leaves []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			leaves = append(leaves, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body)

	for _, leaf := range leaves {
		annotateLeaf(leaf, glossary)
	}

	var out strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&out, c); err != nil {
			return markup, nil
		}
	}
	return out.String(), nil
}

// annotateLeaf splits one text node into plain runs and tooltip-wrapped runs,
// preserving order and the original surface casing.
func annotateLeaf(leaf *html.Node, glossary Glossary) {
	matches := glossary.pattern.FindAllStringIndex(leaf.Data, -1)
	if len(matches) == 0 {
		return
	}

	parent := leaf.Parent
	if parent == nil {
		return
	}

	last := 0
	for _, m := range matches {
		if m[0] > last {
			parent.InsertBefore(textNode(leaf.Data[last:m[0]]), leaf)
		}
		surface := leaf.Data[m[0]:m[1]]
		if term, ok := glossary.Lookup(surface); ok {
			parent.InsertBefore(tooltipNode(surface, term), leaf)
		} else {
			parent.InsertBefore(textNode(surface), leaf)
		}
		last = m[1]
	}
	if last < len(leaf.Data) {
		parent.InsertBefore(textNode(leaf.Data[last:]), leaf)
	}
	parent.RemoveChild(leaf)
}

func textNode(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// tooltipNode wraps the matched surface text; the canonical term name and its
// definition ride along as data attributes for the client-side tooltip.
func tooltipNode(surface string, term Term) *html.Node {
	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: "term-tooltip"},
			{Key: "data-term", Val: term.Term},
			{Key: "data-def", Val: term.Definition},
		},
	}
	span.AppendChild(textNode(surface))
	return span
}
