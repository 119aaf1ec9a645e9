// Package websearch exposes a Serper-backed web search tool. Results are
// flattened into a plain text digest suitable for downstream summarization.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultEndpoint = "https://google.serper.dev/search"

// Options configure the web search tool.
type Options struct {
	Endpoint   string
	MaxResults int
	HTTPClient *http.Client
}

// Tool performs web searches against the Serper API.
type Tool struct {
	apiKey string
	opts   Options
}

// New creates the web search tool with the given API key.
func New(apiKey string, optFns ...func(o *Options)) *Tool {
	opts := Options{
		Endpoint:   defaultEndpoint,
		MaxResults: 5,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Tool{apiKey: apiKey, opts: opts}
}

// Name implements tool.Tool.
func (t *Tool) Name() string { return "web_search" }

// Description implements tool.Tool.
func (t *Tool) Description() string {
	return "Search the web for up-to-date information on a query and return the top results with snippets."
}

// Parameters implements tool.Tool.
func (t *Tool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search query",
			},
		},
		"required": []string{"query"},
	}
}

// result is one organic search hit.
type result struct {
	Title   string
	URL     string
	Snippet string
}

// Call implements tool.Tool.
func (t *Tool) Call(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return "", fmt.Errorf("web_search requires a non-empty 'query' string")
	}

	results, err := t.search(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("No web results found for %q.", query), nil
	}

	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.URL, r.Snippet)
	}
	return strings.TrimSpace(sb.String()), nil
}

func (t *Tool) search(ctx context.Context, query string) ([]result, error) {
	payload, _ := json.Marshal(map[string]any{"q": query, "num": t.opts.MaxResults})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.opts.Endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search returned status %d", resp.StatusCode)
	}

	var raw struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("web search response decode failed: %w", err)
	}

	out := make([]result, 0, len(raw.Organic))
	for i, item := range raw.Organic {
		if i >= t.opts.MaxResults {
			break
		}
		out = append(out, result{Title: item.Title, URL: item.Link, Snippet: item.Snippet})
	}
	return out, nil
}
