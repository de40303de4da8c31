package draft

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/linkpost/internal/doctree"
)

// MaxCSVRows caps imported table size; a post has little room anyway.
const MaxCSVRows = 50

// CSVParser turns a CSV file into a single table. The first record is the
// header.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if blankRecord(rec) {
			continue
		}
		if len(rows) == MaxCSVRows+1 {
			tree.Children = append(tree.Children, &doctree.DocNode{
				Text: fmt.Sprintf("(only the first %d rows were imported)", MaxCSVRows),
			})
			break
		}
		rows = append(rows, rec)
	}
	if len(rows) > 0 {
		tree.Children = append([]*doctree.DocNode{{Rows: rows}}, tree.Children...)
	}
	return tree, nil
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
