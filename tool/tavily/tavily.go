// Package tavily provides the web_search and video_search tools backed by the
// Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/tool"
)

// DefaultBaseURL is the Tavily API endpoint.
const DefaultBaseURL = "https://api.tavily.com"

// Options configure the Tavily client.
type Options struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	HTTPClient *http.Client
}

// Result is a single search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Args are the arguments accepted by the search tools.
type Args struct {
	Query string `json:"query" validate:"required" description:"Search query"`
}

// Client calls the Tavily search endpoint.
type Client struct {
	opts Options
}

// New creates a Client.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:    DefaultBaseURL,
		MaxResults: 5,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &Client{opts: opts}
}

type searchRequest struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	SearchDepth    string   `json:"search_depth,omitempty"`
}

type searchResponse struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
}

// Search runs a query, optionally restricted to domains.
func (c *Client) Search(ctx context.Context, query string, domains []string) ([]Result, error) {
	if c.opts.APIKey == "" {
		return nil, fmt.Errorf("tavily search: api key not configured")
	}

	body, err := json.Marshal(searchRequest{
		Query:          query,
		MaxResults:     c.opts.MaxResults,
		IncludeDomains: domains,
		SearchDepth:    "basic",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily search: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tavily search: decode response: %w", err)
	}

	if c.opts.MaxResults > 0 && len(out.Results) > c.opts.MaxResults {
		out.Results = out.Results[:c.opts.MaxResults]
	}

	return out.Results, nil
}

// WebSearchTool returns the general web search tool ("web_search").
func (c *Client) WebSearchTool() tool.Tool {
	return c.searchTool(
		"web_search",
		"Search the web for up-to-date general results. Returns a list of results with title, url and content.",
		nil,
	)
}

// VideoSearchTool returns a search restricted to video domains ("video_search").
func (c *Client) VideoSearchTool(domains ...string) tool.Tool {
	if len(domains) == 0 {
		domains = []string{"youtube.com"}
	}
	return c.searchTool(
		"video_search",
		"Search for video tutorials. Returns a list of videos with title and url.",
		domains,
	)
}

func (c *Client) searchTool(name, description string, domains []string) tool.Tool {
	return tool.NewTypedTool(name, description, func(tc *core.ToolContext, args Args) (core.Payload, error) {
		results, err := c.Search(tc.Context(), args.Query, domains)
		if err != nil {
			return nil, err
		}
		tc.LogDebug("tavily.search", "results", len(results), "domains", len(domains))
		return toRecords(results), nil
	})
}

func toRecords(results []Result) core.LinkRecords {
	records := make(core.LinkRecords, 0, len(results))
	for _, r := range results {
		records = append(records, core.Record{
			"title":   r.Title,
			"url":     r.URL,
			"content": r.Content,
			"score":   r.Score,
		})
	}
	return records
}
