// Package news retrieves articles for the newsletter agent, either from
// NewsAPI or from a fixed set of RSS/Atom feeds.
package news

import (
	"context"
	"fmt"
	"time"
)

// Article mirrors the NewsAPI article object.
type Article struct {
	Source      Source    `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
	Content     string    `json:"content"`
}

type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Provider is a news backend.
type Provider interface {
	Everything(ctx context.Context, q Query) ([]Article, error)
	TopHeadlines(ctx context.Context, q HeadlinesQuery) ([]Article, error)
}

// Query searches all articles in a date range.
type Query struct {
	Q        string
	From     time.Time
	To       time.Time
	Language string
	SortBy   string
	PageSize int
}

// HeadlinesQuery asks for current top stories.
type HeadlinesQuery struct {
	Category string
	Language string
	Country  string
	PageSize int
}

const (
	SortRelevancy   = "relevancy"
	SortPopularity  = "popularity"
	SortPublishedAt = "publishedAt"
)

// Categories accepted by the top-headlines endpoint.
var Categories = map[string]bool{
	"business":      true,
	"entertainment": true,
	"general":       true,
	"health":        true,
	"science":       true,
	"sports":        true,
	"technology":    true,
}

const MaxPageSize = 100

// Validate checks q against the limits NewsAPI enforces.
func (q Query) Validate() error {
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return fmt.Errorf("page_size must be between 1 and %d, got %d", MaxPageSize, q.PageSize)
	}
	switch q.SortBy {
	case SortRelevancy, SortPopularity, SortPublishedAt:
	default:
		return fmt.Errorf("sort_by must be one of relevancy, popularity, publishedAt, got %q", q.SortBy)
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return fmt.Errorf("date range ends (%s) before it starts (%s)", q.To.Format(DateLayout), q.From.Format(DateLayout))
	}
	return nil
}

// Validate checks q against the limits NewsAPI enforces.
func (q HeadlinesQuery) Validate() error {
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return fmt.Errorf("page_size must be between 1 and %d, got %d", MaxPageSize, q.PageSize)
	}
	if !Categories[q.Category] {
		return fmt.Errorf("unknown category %q", q.Category)
	}
	if len(q.Country) != 2 {
		return fmt.Errorf("country must be a two-letter code, got %q", q.Country)
	}
	return nil
}

// DateLayout is the day format NewsAPI accepts for from/to.
const DateLayout = "2006-01-02"
