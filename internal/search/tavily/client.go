package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/score-lookup/internal/search"
)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client ищет по архиву через Tavily с include_domains=imslp.org.
// Заголовки берутся из пути ссылки, а не из title выдачи: Tavily отдаёт "Title - IMSLP".
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	backoff []time.Duration
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tavily.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		backoff: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

type tavilyRequest struct {
	APIKey            string   `json:"api_key"`
	Query             string   `json:"query"`
	IncludeDomains    []string `json:"include_domains,omitempty"`
	MaxResults        int      `json:"max_results,omitempty"`
	SearchDepth       string   `json:"search_depth,omitempty"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
}

type tavilyResponse struct {
	Query        string         `json:"query"`
	Results      []tavilyResult `json:"results"`
	ResponseTime float64        `json:"response_time"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

func (c *Client) Search(ctx context.Context, req search.SearchRequest) (*search.SearchResponse, error) {
	if req.MaxResults == 0 {
		req.MaxResults = 5
	}
	if len(req.IncludeDomains) == 0 {
		req.IncludeDomains = []string{search.ArchiveDomain}
	}

	tavilyReq := tavilyRequest{
		APIKey:         c.apiKey,
		Query:          req.Query,
		IncludeDomains: req.IncludeDomains,
		MaxResults:     req.MaxResults,
		SearchDepth:    "basic",
	}

	body, err := json.Marshal(tavilyReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error

	for attempt := 0; attempt <= len(c.backoff); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff[attempt-1]):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("do request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		switch resp.StatusCode {
		case http.StatusOK:
			var tavilyResp tavilyResponse
			if err := json.Unmarshal(respBody, &tavilyResp); err != nil {
				return nil, fmt.Errorf("unmarshal response: %w", err)
			}

			out := c.toSearchResponse(req.Query, &tavilyResp)
			if len(out.Results) == 0 {
				return nil, search.ErrEmptyResults
			}
			return out, nil

		case http.StatusUnauthorized:
			return nil, search.ErrUnauthorized

		case http.StatusTooManyRequests:
			return nil, search.ErrRateLimit

		case http.StatusBadRequest:
			return nil, search.ErrInvalidRequest

		default:
			if resp.StatusCode >= 500 {
				lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("%w: status %d", search.ErrSearchFailed, resp.StatusCode)
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", search.ErrSearchFailed, lastErr)
	}
	return nil, search.ErrSearchFailed
}

func (c *Client) toSearchResponse(query string, resp *tavilyResponse) *search.SearchResponse {
	results := make([]search.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		title, ok := search.TitleFromURL(r.URL)
		if !ok {
			c.logger.Debug("skipping non-page result", zap.String("url", r.URL))
			continue
		}
		results = append(results, search.SearchResult{
			Title:   title,
			URL:     r.URL,
			Snippet: r.Content,
			Score:   r.Score,
		})
	}

	return &search.SearchResponse{
		Query:   query,
		Results: results,
	}
}
