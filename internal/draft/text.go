package draft

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/linkpost/internal/doctree"
)

// TextParser handles plain text: blank lines separate paragraphs.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	var lines []string
	flush := func() {
		if len(lines) > 0 {
			tree.Children = append(tree.Children, &doctree.DocNode{Text: strings.Join(lines, "\n")})
			lines = lines[:0]
		}
	}
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	flush()
	return tree, nil
}
