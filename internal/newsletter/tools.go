package newsletter

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/generative-ai-go/genai"

	"github.com/dgallion1/linkpost/internal/news"
)

const (
	toolLiveNews   = "extract_live_news"
	toolTopStories = "extract_top_stories"

	defaultQuery    = "Artificial Intelligence OR Data Science"
	defaultLookback = 7 * 24 * time.Hour
)

var newsTool = &genai.Tool{
	FunctionDeclarations: []*genai.FunctionDeclaration{
		{
			Name: toolLiveNews,
			Description: "Search news articles published in a date range. " +
				"Returns a JSON list of articles with source, author, title, description, url, urlToImage, publishedAt and content.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"q": {
						Type:        genai.TypeString,
						Description: `Search query. Supports OR and AND, e.g. "Climate Change AND Renewable Energy". Default "` + defaultQuery + `".`,
					},
					"from_param": {
						Type:        genai.TypeString,
						Description: "Start date, YYYY-MM-DD. Default 7 days before today (UTC).",
					},
					"to": {
						Type:        genai.TypeString,
						Description: "End date, YYYY-MM-DD. Default today (UTC).",
					},
					"language": {
						Type:        genai.TypeString,
						Description: "ISO 639-1 language code. Default en.",
					},
					"sort_by": {
						Type:        genai.TypeString,
						Description: "Sort order. Default popularity.",
						Enum:        []string{news.SortPopularity, news.SortRelevancy, news.SortPublishedAt},
					},
					"page_size": {
						Type:        genai.TypeInteger,
						Description: "Number of articles, 1 to 100. Default 1.",
					},
				},
			},
		},
		{
			Name:        toolTopStories,
			Description: "Fetch current top headlines for a category and country.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"category": {
						Type:        genai.TypeString,
						Description: "News category. Default technology.",
						Enum:        []string{"business", "entertainment", "general", "health", "science", "sports", "technology"},
					},
					"language": {
						Type:        genai.TypeString,
						Description: "ISO 639-1 language code. Default en.",
					},
					"country": {
						Type:        genai.TypeString,
						Description: "ISO 3166-1 country code. Default us.",
					},
					"page_size": {
						Type:        genai.TypeInteger,
						Description: "Number of articles, 1 to 100. Default 1.",
					},
				},
			},
		},
	},
}

// dispatch runs one tool call and packages the outcome for the model.
// Failures are reported back to the model rather than aborting the chat.
func (a *Agent) dispatch(ctx context.Context, call genai.FunctionCall, now time.Time) genai.FunctionResponse {
	var (
		articles []news.Article
		err      error
	)
	switch call.Name {
	case toolLiveNews:
		var q news.Query
		if q, err = liveNewsQuery(call.Args, now); err == nil {
			articles, err = a.news.Everything(ctx, q)
		}
	case toolTopStories:
		var q news.HeadlinesQuery
		if q, err = topStoriesQuery(call.Args); err == nil {
			articles, err = a.news.TopHeadlines(ctx, q)
		}
	default:
		err = fmt.Errorf("unknown tool %q", call.Name)
	}
	if err != nil {
		a.log.Warn("newsletter tool failed", "tool", call.Name, "error", err)
		return genai.FunctionResponse{Name: call.Name, Response: map[string]any{"error": err.Error()}}
	}

	payload, err := articlesPayload(articles)
	if err != nil {
		return genai.FunctionResponse{Name: call.Name, Response: map[string]any{"error": err.Error()}}
	}
	return genai.FunctionResponse{Name: call.Name, Response: map[string]any{"articles": payload}}
}

func liveNewsQuery(args map[string]any, now time.Time) (news.Query, error) {
	q := news.Query{
		Q:        stringArg(args, "q", defaultQuery),
		Language: stringArg(args, "language", "en"),
		SortBy:   stringArg(args, "sort_by", news.SortPopularity),
	}
	var err error
	if q.From, err = dateArg(args, "from_param", now.Add(-defaultLookback)); err != nil {
		return q, err
	}
	if q.To, err = dateArg(args, "to", now); err != nil {
		return q, err
	}
	if q.PageSize, err = intArg(args, "page_size", 1); err != nil {
		return q, err
	}
	return q, q.Validate()
}

func topStoriesQuery(args map[string]any) (news.HeadlinesQuery, error) {
	q := news.HeadlinesQuery{
		Category: stringArg(args, "category", "technology"),
		Language: stringArg(args, "language", "en"),
		Country:  stringArg(args, "country", "us"),
	}
	var err error
	if q.PageSize, err = intArg(args, "page_size", 1); err != nil {
		return q, err
	}
	return q, q.Validate()
}

func stringArg(args map[string]any, key, def string) string {
	if s, ok := args[key].(string); ok && s != "" {
		return s
	}
	return def
}

func dateArg(args map[string]any, key string, def time.Time) (time.Time, error) {
	s, ok := args[key].(string)
	if !ok || s == "" {
		return time.Date(def.Year(), def.Month(), def.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(news.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD, got %q", key, s)
	}
	return t, nil
}

// intArg accepts the float64 that JSON numbers decode to, plus ints and
// numeric strings.
func intArg(args map[string]any, key string, def int) (int, error) {
	switch v := args[key].(type) {
	case nil:
		return def, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be an integer, got %v", key, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be an integer, got %T", key, v)
	}
}

// articlesPayload converts articles to the plain JSON values FunctionResponse
// expects.
func articlesPayload(articles []news.Article) ([]any, error) {
	b, err := json.Marshal(articles)
	if err != nil {
		return nil, fmt.Errorf("encode articles: %w", err)
	}
	out := []any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("encode articles: %w", err)
	}
	return out, nil
}
