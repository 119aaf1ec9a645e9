// Package newssearch exposes a NewsAPI-backed news search tool returning
// recent article headlines and descriptions as a plain text digest.
package newssearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultEndpoint = "https://newsapi.org/v2/everything"

// Options configure the news search tool.
type Options struct {
	Endpoint    string
	MaxArticles int
	Language    string
	HTTPClient  *http.Client
}

// Tool searches recent news articles for a query.
type Tool struct {
	apiKey string
	opts   Options
}

// New creates the news search tool with the given API key.
func New(apiKey string, optFns ...func(o *Options)) *Tool {
	opts := Options{
		Endpoint:    defaultEndpoint,
		MaxArticles: 5,
		Language:    "en",
		HTTPClient:  &http.Client{Timeout: 20 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Tool{apiKey: apiKey, opts: opts}
}

// Name implements tool.Tool.
func (t *Tool) Name() string { return "news_search" }

// Description implements tool.Tool.
func (t *Tool) Description() string {
	return "Search recent news articles for a query and return headlines, sources and descriptions."
}

// Parameters implements tool.Tool.
func (t *Tool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "News search query",
			},
		},
		"required": []string{"query"},
	}
}

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Call implements tool.Tool.
func (t *Tool) Call(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return "", fmt.Errorf("news_search requires a non-empty 'query' string")
	}

	articles, err := t.fetch(ctx, query)
	if err != nil {
		return "", err
	}
	if len(articles) == 0 {
		return fmt.Sprintf("No news articles found for %q.", query), nil
	}

	var sb strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&sb, "%d. %s (%s, %s)\n%s\n%s\n\n",
			i+1, a.Title, a.Source.Name, a.PublishedAt.Format("2006-01-02"), a.Description, a.URL)
	}
	return strings.TrimSpace(sb.String()), nil
}

func (t *Tool) fetch(ctx context.Context, query string) ([]article, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("language", t.opts.Language)
	params.Add("sortBy", "publishedAt")
	params.Add("pageSize", fmt.Sprintf("%d", t.opts.MaxArticles))
	params.Add("apiKey", t.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", t.opts.Endpoint, params.Encode()), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news search returned status %d", resp.StatusCode)
	}

	var raw struct {
		Status   string    `json:"status"`
		Articles []article `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("news search response decode failed: %w", err)
	}
	if raw.Status != "ok" {
		return nil, fmt.Errorf("news search returned status %q", raw.Status)
	}

	if len(raw.Articles) > t.opts.MaxArticles {
		raw.Articles = raw.Articles[:t.opts.MaxArticles]
	}
	return raw.Articles, nil
}
