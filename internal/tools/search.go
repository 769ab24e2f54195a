// Package tools - search.go provides the Tavily web search client used by the
// research agents.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	tavilyEndpoint   = "https://api.tavily.com/search"
	defaultMaxHits   = 5
	searchHTTPExpiry = 20 * time.Second
)

// SearchHit is one web search result.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SearchResponse is the answer to one search query.
type SearchResponse struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}

// SearchClient performs web searches. Implemented by TavilyClient; tests
// substitute a stub.
type SearchClient interface {
	Search(ctx context.Context, query string) (*SearchResponse, error)
}

// TavilyClient calls the Tavily search API.
type TavilyClient struct {
	apiKey     string
	endpoint   string
	maxResults int
	httpClient *http.Client
}

// NewTavilyClient creates a search client. A non-positive maxResults uses the
// default of 5.
func NewTavilyClient(apiKey string, maxResults int) *TavilyClient {
	if maxResults <= 0 {
		maxResults = defaultMaxHits
	}
	return &TavilyClient{
		apiKey:     apiKey,
		endpoint:   tavilyEndpoint,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: searchHTTPExpiry},
	}
}

// WithEndpoint overrides the API endpoint. Used in tests.
func (c *TavilyClient) WithEndpoint(endpoint string) *TavilyClient {
	c.endpoint = endpoint
	return c
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// Search runs one query against the Tavily API.
func (c *TavilyClient) Search(ctx context.Context, query string) (*SearchResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("web search is not available: TAVILY_API_KEY is not set")
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:     c.apiKey,
		Query:      query,
		MaxResults: c.maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	result.Query = query
	return &result, nil
}
