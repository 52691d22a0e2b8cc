package imslp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kitbuilder587/score-lookup/internal/pages"
	"github.com/kitbuilder587/score-lookup/internal/search"
)

const (
	defaultBaseURL   = "https://imslp.org"
	defaultUserAgent = "score-lookup/1.0 (+https://github.com/kitbuilder587/score-lookup)"
)

type Config struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
	UserAgent      string
}

// Client ходит в MediaWiki API архива: полнотекстовый поиск и разметка страниц.
// Один лимитер на оба вида запросов.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	logger    *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		logger:    logger,
	}
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type searchResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		Search []struct {
			NS      int    `json:"ns"`
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

type pageResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		Pages []struct {
			Title     string `json:"title"`
			Missing   bool   `json:"missing"`
			Invalid   bool   `json:"invalid"`
			Revisions []struct {
				Slots struct {
					Main struct {
						Content string `json:"content"`
					} `json:"main"`
				} `json:"slots"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

func (c *Client) Search(ctx context.Context, req search.SearchRequest) (*search.SearchResponse, error) {
	if req.MaxResults == 0 {
		req.MaxResults = 5
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", req.Query)
	params.Set("srlimit", strconv.Itoa(req.MaxResults))
	params.Set("srprop", "snippet")
	params.Set("format", "json")
	params.Set("formatversion", "2")

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", search.ErrInvalidRequest, resp.Error.Code, resp.Error.Info)
	}

	results := make([]search.SearchResult, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		if hit.NS != 0 || strings.TrimSpace(hit.Title) == "" {
			continue
		}
		results = append(results, search.SearchResult{
			Title:   hit.Title,
			URL:     search.PageURL(hit.Title),
			Snippet: hit.Snippet,
		})
	}

	if len(results) == 0 {
		return nil, search.ErrEmptyResults
	}

	return &search.SearchResponse{
		Query:   req.Query,
		Results: results,
	}, nil
}

// Content возвращает вики-разметку текущей ревизии страницы.
func (c *Client) Content(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "revisions")
	params.Set("rvprop", "content")
	params.Set("rvslots", "main")
	params.Set("titles", title)
	params.Set("format", "json")
	params.Set("formatversion", "2")

	body, err := c.get(ctx, params)
	if err != nil {
		return "", err
	}

	var resp pageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("%w: %s: %s", search.ErrInvalidRequest, resp.Error.Code, resp.Error.Info)
	}

	if len(resp.Query.Pages) == 0 {
		return "", pages.ErrNotFound
	}
	page := resp.Query.Pages[0]
	if page.Missing || page.Invalid || len(page.Revisions) == 0 {
		return "", pages.ErrNotFound
	}

	content := page.Revisions[0].Slots.Main.Content
	if strings.TrimSpace(content) == "" {
		return "", pages.ErrNotFound
	}
	return content, nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/api.php?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", search.ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, search.ErrRateLimit
	case resp.StatusCode == http.StatusNotFound:
		return nil, pages.ErrNotFound
	default:
		c.logger.Warn("archive API error",
			zap.Int("status", resp.StatusCode),
			zap.String("action", params.Get("list")+params.Get("prop")),
		)
		return nil, fmt.Errorf("%w: status %d", search.ErrSearchFailed, resp.StatusCode)
	}
}
