package draft

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/linkpost/internal/doctree"
)

// Markup renders tree as editor HTML. Section depth picks the heading level
// (h1 at the top, capped at h4), paragraphs become <p> with <br> line
// breaks, and table rows become a <table> whose first row uses <th>.
// The tree title is not rendered.
func Markup(tree *doctree.DocTree) (string, error) {
	var sb strings.Builder
	for _, n := range tree.Children {
		for _, el := range sectionNodes(n, 1) {
			if err := html.Render(&sb, el); err != nil {
				return "", fmt.Errorf("render markup: %w", err)
			}
		}
	}
	return sb.String(), nil
}

var headingAtoms = []atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4}

func sectionNodes(n *doctree.DocNode, depth int) []*html.Node {
	var out []*html.Node
	if n.Title != "" {
		a := headingAtoms[min(depth, len(headingAtoms))-1]
		out = append(out, element(a, textNode(n.Title)))
	}
	for _, para := range strings.Split(n.Text, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		p := element(atom.P)
		for i, line := range strings.Split(para, "\n") {
			if i > 0 {
				p.AppendChild(element(atom.Br))
			}
			p.AppendChild(textNode(line))
		}
		out = append(out, p)
	}
	if len(n.Rows) > 0 {
		out = append(out, tableNode(n.Rows))
	}
	childDepth := depth
	if n.Title != "" {
		childDepth++
	}
	for _, c := range n.Children {
		out = append(out, sectionNodes(c, childDepth)...)
	}
	return out
}

func tableNode(rows [][]string) *html.Node {
	body := element(atom.Tbody)
	for i, row := range rows {
		tr := element(atom.Tr)
		cell := atom.Td
		if i == 0 {
			cell = atom.Th
		}
		for _, v := range row {
			tr.AppendChild(element(cell, textNode(v)))
		}
		body.AppendChild(tr)
	}
	return element(atom.Table, body)
}

func element(a atom.Atom, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
