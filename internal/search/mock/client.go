package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/score-lookup/internal/search"
)

// Client отдаёт заранее заданную выдачу. ByQuery/ErrorsByQuery важнее общих Results/Error.
type Client struct {
	Results       []search.SearchResult
	Error         error
	Delay         time.Duration
	ByQuery       map[string][]search.SearchResult
	ErrorsByQuery map[string]error

	CallCount   int
	LastRequest search.SearchRequest
	AllRequests []search.SearchRequest

	mu sync.Mutex
}

func New() *Client {
	return &Client{
		ByQuery:       make(map[string][]search.SearchResult),
		ErrorsByQuery: make(map[string]error),
	}
}

func (c *Client) WithResults(results []search.SearchResult) *Client {
	c.Results = results
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.Delay = delay
	return c
}

func (c *Client) WithQueryResults(query string, results []search.SearchResult) *Client {
	c.ByQuery[query] = results
	return c
}

func (c *Client) WithQueryError(query string, err error) *Client {
	c.ErrorsByQuery[query] = err
	return c
}

func (c *Client) Search(ctx context.Context, req search.SearchRequest) (*search.SearchResponse, error) {
	c.mu.Lock()
	c.CallCount++
	c.LastRequest = req
	c.AllRequests = append(c.AllRequests, req)
	delay := c.Delay
	err := c.Error
	results := c.Results
	if e, ok := c.ErrorsByQuery[req.Query]; ok {
		err = e
	}
	if r, ok := c.ByQuery[req.Query]; ok {
		results = r
	}
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, search.ErrEmptyResults
	}

	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}

	return &search.SearchResponse{
		Query:   req.Query,
		Results: results,
	}, nil
}

func (c *Client) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.AllRequests))
	for i, r := range c.AllRequests {
		out[i] = r.Query
	}
	return out
}

func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCount = 0
	c.LastRequest = search.SearchRequest{}
	c.AllRequests = nil
}
