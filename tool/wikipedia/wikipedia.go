// Package wikipedia provides the encyclopedia tool: a Wikipedia search that
// returns the summary of the best matching pages.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/tool"
)

// NoResultMessage is returned when no page matches the query.
const NoResultMessage = "No good Wikipedia Search Result was found"

// Options configure the encyclopedia tool.
type Options struct {
	Name        string
	Description string
	BaseURL     string
	Language    string
	TopK        int
	MaxChars    int
	UserAgent   string
	HTTPClient  *http.Client
}

// Args are the arguments accepted by the tool.
type Args struct {
	Query string `json:"query" validate:"required" description:"Topic or term to look up on Wikipedia"`
}

// Client queries the Wikipedia search and page summary APIs.
type Client struct {
	opts Options
}

// New creates a Client.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		Name:        "encyclopedia",
		Description: "Look up factual, encyclopedic information about a topic on Wikipedia. Input should be a search query.",
		Language:    "en",
		TopK:        1,
		MaxChars:    300,
		UserAgent:   "tutormesh/1.0 (https://github.com/hupe1980/tutormesh)",
		HTTPClient:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = fmt.Sprintf("https://%s.wikipedia.org", opts.Language)
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &Client{opts: opts}
}

// Tool exposes the client as a tool.Tool.
func (c *Client) Tool() tool.Tool {
	return tool.NewTypedTool(c.opts.Name, c.opts.Description, func(tc *core.ToolContext, args Args) (core.Payload, error) {
		text, err := c.Run(tc.Context(), args.Query)
		if err != nil {
			return nil, err
		}
		tc.LogDebug("wikipedia.search", "chars", len(text))
		return core.PlainText(text), nil
	})
}

// Run searches for query and renders "Page: <title>\nSummary: <extract>"
// for the top results, truncated to MaxChars.
func (c *Client) Run(ctx context.Context, query string) (string, error) {
	titles, err := c.search(ctx, query)
	if err != nil {
		return "", err
	}

	summaries := make([]string, 0, len(titles))
	for _, title := range titles {
		s, err := c.summary(ctx, title)
		if err != nil {
			return "", err
		}
		if s.Extract == "" {
			continue
		}
		summaries = append(summaries, fmt.Sprintf("Page: %s\nSummary: %s", s.Title, s.Extract))
	}

	if len(summaries) == 0 {
		return NoResultMessage, nil
	}

	return truncate(strings.Join(summaries, "\n\n"), c.opts.MaxChars), nil
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

func (c *Client) search(ctx context.Context, query string) ([]string, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", query)
	q.Set("srlimit", strconv.Itoa(c.opts.TopK))
	q.Set("format", "json")

	var resp searchResponse
	if err := c.getJSON(ctx, c.opts.BaseURL+"/w/api.php?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("wikipedia search: %w", err)
	}

	titles := make([]string, 0, len(resp.Query.Search))
	for i, s := range resp.Query.Search {
		if i >= c.opts.TopK {
			break
		}
		titles = append(titles, s.Title)
	}

	return titles, nil
}

type pageSummary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

func (c *Client) summary(ctx context.Context, title string) (pageSummary, error) {
	endpoint := c.opts.BaseURL + "/api/rest_v1/page/summary/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))

	var s pageSummary
	if err := c.getJSON(ctx, endpoint, &s); err != nil {
		return pageSummary{}, fmt.Errorf("wikipedia summary %q: %w", title, err)
	}
	if s.Title == "" {
		s.Title = title
	}

	return s, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
