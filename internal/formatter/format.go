// Package formatter flattens rich-text editor markup into the plain text
// accepted by LinkedIn shares.
//
// LinkedIn has no native bold markup, so headings and strong text are emitted
// with Unicode bold letters (see Bold). Block boundaries become blank lines,
// list items become "- " bullets indented two spaces per nesting level, and
// table rows and cells become newlines and tabs.
package formatter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseError reports markup that could not be turned into a document tree.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse markup: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

const paragraphBreak = "\n\n"

var bodyContext = &html.Node{
	Type:     html.ElementNode,
	Data:     "body",
	DataAtom: atom.Body,
}

// Format converts a markup document into post text.
func Format(markup string) (string, error) {
	if !utf8.ValidString(markup) {
		return "", &ParseError{Err: fmt.Errorf("markup is not valid UTF-8")}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), bodyContext)
	if err != nil {
		return "", &ParseError{Err: err}
	}

	w := &walker{}
	for _, n := range nodes {
		w.walk(n)
	}
	return strings.TrimSpace(w.out.String()), nil
}

// walker carries the tag of the most recently visited node. Text and other
// non-element nodes reset it to zero.
type walker struct {
	out  strings.Builder
	prev atom.Atom
}

func (w *walker) walk(n *html.Node) {
	w.visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *walker) visit(n *html.Node) {
	var tag atom.Atom
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
	case html.ElementNode:
		tag = n.DataAtom
		w.element(n)
	}
	w.prev = tag
}

func (w *walker) text(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if isBoldContext(w.prev) {
		s = Bold(s)
	}
	w.out.WriteString(s)
}

func (w *walker) element(n *html.Node) {
	switch n.DataAtom {
	case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.Br:
		if !isBlock(w.prev) {
			w.out.WriteString(paragraphBreak)
		}
	case atom.Li:
		w.out.WriteString("\n")
		w.out.WriteString(strings.Repeat("  ", max(listDepth(n)-1, 0)))
		w.out.WriteString("- ")
	case atom.Tr:
		w.out.WriteString("\n")
	case atom.Th, atom.Td:
		w.out.WriteString("\t")
	}
}

// listDepth counts the ul and ol ancestors of n.
func listDepth(n *html.Node) int {
	depth := 0
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && (p.DataAtom == atom.Ul || p.DataAtom == atom.Ol) {
			depth++
		}
	}
	return depth
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Br, atom.P, atom.H1, atom.H2, atom.H3, atom.H4:
		return true
	}
	return false
}

func isBoldContext(a atom.Atom) bool {
	switch a {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.Strong, atom.B:
		return true
	}
	return false
}
