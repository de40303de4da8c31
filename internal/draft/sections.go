package draft

import (
	"strings"

	"github.com/dgallion1/linkpost/internal/doctree"
)

// sections nests headings by level as they stream in. Text between headings
// attaches to the most recent heading.
type sections struct {
	root  *doctree.DocNode
	stack []open
	text  strings.Builder
}

type open struct {
	node  *doctree.DocNode
	level int
}

func newSections() *sections {
	root := &doctree.DocNode{}
	return &sections{root: root, stack: []open{{node: root}}}
}

func (s *sections) heading(level int, title string) {
	s.flush()
	n := &doctree.DocNode{Title: title}
	for len(s.stack) > 1 && s.stack[len(s.stack)-1].level >= level {
		s.stack = s.stack[:len(s.stack)-1]
	}
	parent := s.stack[len(s.stack)-1].node
	parent.Children = append(parent.Children, n)
	s.stack = append(s.stack, open{node: n, level: level})
}

func (s *sections) paragraph(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if s.text.Len() > 0 {
		s.text.WriteString("\n\n")
	}
	s.text.WriteString(t)
}

func (s *sections) flush() {
	t := s.text.String()
	s.text.Reset()
	if t == "" {
		return
	}
	top := s.stack[len(s.stack)-1].node
	switch {
	case len(top.Children) > 0:
		// Keep document order once a table or subsection came first.
		top.Children = append(top.Children, &doctree.DocNode{Text: t})
	case top.Text != "":
		top.Text += "\n\n" + t
	default:
		top.Text = t
	}
}

func (s *sections) table(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	s.flush()
	top := s.stack[len(s.stack)-1].node
	top.Children = append(top.Children, &doctree.DocNode{Rows: rows})
}

// nodes returns the top-level sections. Text before the first heading
// becomes a leading untitled node.
func (s *sections) nodes() []*doctree.DocNode {
	s.flush()
	if s.root.Text == "" {
		return s.root.Children
	}
	lead := &doctree.DocNode{Text: s.root.Text}
	return append([]*doctree.DocNode{lead}, s.root.Children...)
}
