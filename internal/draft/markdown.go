package draft

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/linkpost/internal/doctree"
)

// MarkdownParser handles Markdown, including GFM tables.
type MarkdownParser struct{}

var mdParser = goldmark.New(goldmark.WithExtensions(extension.Table)).Parser()

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := readAll(r)
	if err != nil {
		return nil, err
	}
	doc := mdParser.Parse(text.NewReader(src))

	s := newSections()
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			s.heading(node.Level, inlineText(node, src))
		case *east.Table:
			s.table(tableRows(node, src))
		default:
			s.paragraph(blockText(n, src))
		}
	}
	return &doctree.DocTree{Title: baseTitle(filename), Children: s.nodes()}, nil
}

// blockText flattens a block to plain text. List items become "- " lines.
func blockText(n ast.Node, src []byte) string {
	switch node := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return inlineText(node, src)
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		var buf bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimRight(buf.String(), "\n")
	case *ast.List:
		var items []string
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			items = append(items, "- "+childText(c, src, " "))
		}
		return strings.Join(items, "\n")
	case *ast.ThematicBreak:
		return ""
	default:
		return childText(n, src, "\n")
	}
}

func childText(n ast.Node, src []byte, sep string) string {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := blockText(c, src); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, sep)
}

// inlineText concatenates inline text, turning line breaks into newlines
// and dropping emphasis markers.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(src))
				if t.HardLineBreak() || t.SoftLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.String:
				buf.Write(t.Value)
			case *ast.AutoLink:
				buf.Write(t.URL(src))
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

func tableRows(t *east.Table, src []byte) [][]string {
	var rows [][]string
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		var row []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			row = append(row, inlineText(c, src))
		}
		rows = append(rows, row)
	}
	return rows
}
