package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultNewsAPIURL is the NewsAPI v2 root.
const DefaultNewsAPIURL = "https://newsapi.org/v2"

// NewsAPIClient queries newsapi.org.
type NewsAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewNewsAPIClient(baseURL, apiKey string) *NewsAPIClient {
	if baseURL == "" {
		baseURL = DefaultNewsAPIURL
	}
	return &NewsAPIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// APIError is the error envelope NewsAPI returns with status "error".
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("newsapi %s (status %d): %s", e.Code, e.StatusCode, e.Message)
}

type apiResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
}

// Everything calls /everything.
func (c *NewsAPIClient) Everything(ctx context.Context, q Query) ([]Article, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	params := url.Values{}
	if q.Q != "" {
		params.Set("q", q.Q)
	}
	if !q.From.IsZero() {
		params.Set("from", q.From.Format(DateLayout))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.Format(DateLayout))
	}
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	params.Set("sortBy", q.SortBy)
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	return c.get(ctx, "/everything", params)
}

// TopHeadlines calls /top-headlines.
func (c *NewsAPIClient) TopHeadlines(ctx context.Context, q HeadlinesQuery) ([]Article, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("category", q.Category)
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	params.Set("country", q.Country)
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	return c.get(ctx, "/top-headlines", params)
}

func (c *NewsAPIClient) get(ctx context.Context, path string, params url.Values) ([]Article, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("newsapi %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{StatusCode: resp.StatusCode, Code: "http", Message: string(body)}
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Status == "error" || resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: out.Code, Message: out.Message}
	}
	return out.Articles, nil
}

// Close releases idle connections.
func (c *NewsAPIClient) Close() {
	c.httpClient.CloseIdleConnections()
}
