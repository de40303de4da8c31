// Package doctree holds the section tree imported documents are parsed into.
package doctree

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // From metadata or the file name
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section. Text holds paragraphs separated by blank
// lines; a single newline inside a paragraph is a line break.
type DocNode struct {
	Title    string     // Section heading, empty for untitled text
	Text     string     // May be empty for container nodes
	Rows     [][]string // Table rows, first row is the header
	Children []*DocNode // Subsections
}

// Empty reports whether the tree has no content at all.
func (t *DocTree) Empty() bool {
	for _, n := range t.Children {
		if !n.empty() {
			return false
		}
	}
	return true
}

func (n *DocNode) empty() bool {
	if n.Title != "" || n.Text != "" || len(n.Rows) > 0 {
		return false
	}
	for _, c := range n.Children {
		if !c.empty() {
			return false
		}
	}
	return true
}
