package newsletter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Source is one article the newsletter links to.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Render converts newsletter markdown to HTML and collects its links in
// document order, once per URL. Raw HTML in the markdown is dropped.
func Render(markdown string) (*Newsletter, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	html := buf.String()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rendered html: %w", err)
	}
	seen := map[string]bool{}
	sources := []Source{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || seen[href] {
			return
		}
		seen[href] = true
		sources = append(sources, Source{Title: strings.TrimSpace(s.Text()), URL: href})
	})

	return &Newsletter{Markdown: markdown, HTML: html, Sources: sources}, nil
}
