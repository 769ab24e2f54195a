// Package tools provides the tool surface exposed to the research agents:
// web search, multi-strategy company discovery search, and intelligent page
// scraping. Completion tools (discovery_done, research_done) are declared
// here but handled by the agent loops rather than dispatched.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/resumind/resumind/internal/fetch"
	"github.com/resumind/resumind/internal/llm"
	"github.com/resumind/resumind/internal/prompts"
	"github.com/resumind/resumind/internal/ratelimit"
)

// Tool names as declared to the model.
const (
	NameWebSearch              = "web_search"
	NameCompanyDiscoverySearch = "company_discovery_search"
	NameScrapePage             = "scrape_page"
	NameDiscoveryDone          = "discovery_done"
	NameResearchDone           = "research_done"
)

// ErrUnknownTool is wrapped into dispatch errors for unrecognized tool names.
var ErrUnknownTool = fmt.Errorf("unknown tool")

// WebSearchArgs are the arguments for the web_search tool.
type WebSearchArgs struct {
	Query string `json:"query"`
}

// DiscoverySearchArgs are the arguments for the company_discovery_search tool.
type DiscoverySearchArgs struct {
	CompanyName       string `json:"company_name"`
	AdditionalContext string `json:"additional_context"`
}

// ScrapePageArgs are the arguments for the scrape_page tool.
type ScrapePageArgs struct {
	URL           string   `json:"url"`
	DataToExtract []string `json:"data_to_extract"`
}

// Registry executes tool calls on behalf of the agent loops. All outbound
// calls go through the shared rate limiter and retry policy.
type Registry struct {
	search    SearchClient
	fetcher   *fetch.CachedFetcher
	llmClient llm.Client
	limiter   *ratelimit.Limiter
	retry     ratelimit.RetryPolicy
	logger    zerolog.Logger

	// useBrowser enables the headless browser fallback for pages whose
	// plain HTTP fetch yields too little text.
	useBrowser bool
}

// RegistryConfig wires the registry's collaborators.
type RegistryConfig struct {
	Search     SearchClient
	Fetcher    *fetch.CachedFetcher
	LLM        llm.Client
	Limiter    *ratelimit.Limiter
	Retry      ratelimit.RetryPolicy
	UseBrowser bool
	Logger     zerolog.Logger
}

// NewRegistry creates a tool registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewCachedFetcher(nil, 0)
	}
	return &Registry{
		search:     cfg.Search,
		fetcher:    fetcher,
		llmClient:  cfg.LLM,
		limiter:    cfg.Limiter,
		retry:      cfg.Retry,
		logger:     cfg.Logger.With().Str("component", "tools").Logger(),
		useBrowser: cfg.UseBrowser,
	}
}

// Dispatch executes one tool call and returns its textual result.
func (r *Registry) Dispatch(ctx context.Context, call llm.ToolCall) (string, error) {
	switch call.Name {
	case NameWebSearch:
		var args WebSearchArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return "", err
		}
		return r.webSearch(ctx, args)
	case NameCompanyDiscoverySearch:
		var args DiscoverySearchArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return "", err
		}
		return r.discoverySearch(ctx, args)
	case NameScrapePage:
		var args ScrapePageArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return "", err
		}
		return r.scrapePage(ctx, args)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
}

func decodeArgs(args map[string]any, out any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode tool arguments: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode tool arguments: %w", err)
	}
	return nil
}

func (r *Registry) webSearch(ctx context.Context, args WebSearchArgs) (string, error) {
	if strings.TrimSpace(args.Query) == "" {
		return "", fmt.Errorf("web_search requires a non-empty query")
	}

	if err := r.limiter.Acquire(ctx); err != nil {
		return "", err
	}
	resp, err := ratelimit.Retry(ctx, r.retry, func(ctx context.Context) (*SearchResponse, error) {
		return r.search.Search(ctx, args.Query)
	})
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to encode search results: %w", err)
	}
	return string(out), nil
}

// discoverySearch runs a fixed progression of discovery queries, stopping
// early once a result URL plausibly belongs to the company.
func (r *Registry) discoverySearch(ctx context.Context, args DiscoverySearchArgs) (string, error) {
	if strings.TrimSpace(args.CompanyName) == "" {
		return "", fmt.Errorf("company_discovery_search requires a company name")
	}

	queries := []string{
		fmt.Sprintf("%q official website", args.CompanyName),
		fmt.Sprintf("%s company site:linkedin.com", args.CompanyName),
		fmt.Sprintf("%s %s company", args.CompanyName, args.AdditionalContext),
		fmt.Sprintf("%s careers jobs", args.CompanyName),
		fmt.Sprintf("%s about us", args.CompanyName),
	}

	results := make(map[string][]SearchHit, len(queries))
	for _, query := range queries {
		if err := r.limiter.Acquire(ctx); err != nil {
			return "", err
		}
		resp, err := ratelimit.Retry(ctx, r.retry, func(ctx context.Context) (*SearchResponse, error) {
			return r.search.Search(ctx, query)
		})
		if err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			r.logger.Warn().Str("query", query).Err(err).Msg("discovery search query failed")
			continue
		}
		results[query] = resp.Results

		if containsLikelyOfficialSite(args.CompanyName, resp.Results) {
			break
		}
	}

	out, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to encode discovery results: %w", err)
	}
	return string(out), nil
}

// containsLikelyOfficialSite reports whether any hit URL embeds the compacted
// company name under a common TLD.
func containsLikelyOfficialSite(companyName string, hits []SearchHit) bool {
	compact := strings.ToLower(strings.ReplaceAll(companyName, " ", ""))
	if compact == "" {
		return false
	}
	for _, hit := range hits {
		url := strings.ToLower(hit.URL)
		if !strings.Contains(url, compact) {
			continue
		}
		for _, tld := range []string{".com", ".org", ".io", ".ai"} {
			if strings.Contains(url, tld) {
				return true
			}
		}
	}
	return false
}

// scrapePage fetches a page, falls back to browser rendering for thin
// content, and summarizes the text with the requested data points emphasized.
func (r *Registry) scrapePage(ctx context.Context, args ScrapePageArgs) (string, error) {
	if strings.TrimSpace(args.URL) == "" {
		return "", fmt.Errorf("scrape_page requires a URL")
	}

	page, err := r.fetcher.Fetch(ctx, args.URL)
	if err != nil {
		return "", fmt.Errorf("failed to scrape content from the provided URL: %w", err)
	}

	text := page.Text
	if r.useBrowser && fetch.ShouldUseBrowser(text) {
		html, berr := fetch.WithBrowser(ctx, args.URL, fetch.DefaultTimeout, r.logger)
		if berr != nil {
			r.logger.Warn().Str("url", args.URL).Err(berr).Msg("browser fallback failed, using plain fetch")
		} else if rendered, xerr := fetch.ExtractMainText(html, fetch.CompanyPageSelectors()); xerr == nil {
			text = rendered
		}
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content extracted from %s", args.URL)
	}

	req := llm.Request{
		Tier:   llm.TierLite,
		System: prompts.MustGet("scrape.json", "system"),
		Messages: []llm.Message{{
			Role: llm.RoleUser,
			Text: prompts.Format(prompts.MustGet("scrape.json", "user"), map[string]string{
				"DataPoints":  strings.Join(args.DataToExtract, "\n"),
				"PageContent": text,
			}),
		}},
	}

	if err := r.limiter.Acquire(ctx); err != nil {
		return "", err
	}
	resp, err := ratelimit.Retry(ctx, r.retry, func(ctx context.Context) (*llm.Response, error) {
		return r.llmClient.Invoke(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("failed to summarize scraped content: %w", err)
	}
	return resp.Text, nil
}
