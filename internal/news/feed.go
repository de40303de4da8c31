package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedProvider serves queries from RSS/Atom feeds when no NewsAPI key is
// configured. Feeds are fetched on every call. It is safe for concurrent use.
type FeedProvider struct {
	urls   []string
	client *http.Client
	log    *slog.Logger
}

func NewFeedProvider(urls []string, log *slog.Logger) *FeedProvider {
	return &FeedProvider{
		urls:   urls,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// Everything returns feed items matching q.Q inside [q.From, q.To].
func (p *FeedProvider) Everything(ctx context.Context, q Query) ([]Article, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	items, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	m := parseMatcher(q.Q)
	var out []Article
	for _, a := range items {
		if !q.From.IsZero() && a.PublishedAt.Before(q.From) {
			continue
		}
		// To is a day; include everything published on it.
		if !q.To.IsZero() && !a.PublishedAt.Before(q.To.AddDate(0, 0, 1)) {
			continue
		}
		if !m.match(a.Title + " " + a.Description) {
			continue
		}
		out = append(out, a)
	}
	if q.SortBy == SortPublishedAt {
		sortNewest(out)
	}
	return limit(out, q.PageSize), nil
}

// TopHeadlines returns the newest items across all feeds. Feeds carry no
// category, so q.Category only has to be valid.
func (p *FeedProvider) TopHeadlines(ctx context.Context, q HeadlinesQuery) ([]Article, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	items, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	sortNewest(items)
	return limit(items, q.PageSize), nil
}

func (p *FeedProvider) fetch(ctx context.Context) ([]Article, error) {
	if len(p.urls) == 0 {
		return nil, errors.New("no news feeds configured")
	}
	// gofeed.Parser keeps per-parse state, so each fetch gets its own.
	parser := gofeed.NewParser()
	parser.Client = p.client

	var (
		out  []Article
		errs []error
	)
	for _, u := range p.urls {
		feed, err := parser.ParseURLWithContext(u, ctx)
		if err != nil {
			p.log.Warn("feed fetch failed", "url", u, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		for _, item := range feed.Items {
			out = append(out, articleFromItem(feed, item))
		}
	}
	if len(errs) == len(p.urls) {
		return nil, fmt.Errorf("all feeds failed: %w", errors.Join(errs...))
	}
	return out, nil
}

func articleFromItem(feed *gofeed.Feed, item *gofeed.Item) Article {
	a := Article{
		Source:      Source{Name: feed.Title},
		Title:       strings.TrimSpace(item.Title),
		Description: strings.TrimSpace(item.Description),
		URL:         item.Link,
		Content:     item.Content,
	}
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		a.Author = item.Authors[0].Name
	}
	if item.Image != nil {
		a.URLToImage = item.Image.URL
	}
	switch {
	case item.PublishedParsed != nil:
		a.PublishedAt = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		a.PublishedAt = item.UpdatedParsed.UTC()
	}
	return a
}

func sortNewest(a []Article) {
	sort.SliceStable(a, func(i, j int) bool {
		return a[i].PublishedAt.After(a[j].PublishedAt)
	})
}

func limit(a []Article, n int) []Article {
	if len(a) > n {
		return a[:n]
	}
	return a
}

// matcher is a disjunction of conjunctions: "a AND b OR c" matches text
// containing both a and b, or containing c.
type matcher [][]string

func parseMatcher(q string) matcher {
	var m matcher
	for _, alt := range strings.Split(q, " OR ") {
		var terms []string
		for _, t := range strings.Split(alt, " AND ") {
			t = strings.ToLower(strings.Trim(strings.TrimSpace(t), `"()`))
			if t != "" {
				terms = append(terms, t)
			}
		}
		if len(terms) > 0 {
			m = append(m, terms)
		}
	}
	return m
}

func (m matcher) match(text string) bool {
	if len(m) == 0 {
		return true
	}
	text = strings.ToLower(text)
	for _, terms := range m {
		all := true
		for _, t := range terms {
			if !strings.Contains(text, t) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

var (
	_ Provider = (*NewsAPIClient)(nil)
	_ Provider = (*FeedProvider)(nil)
)
