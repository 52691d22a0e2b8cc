package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/score-lookup/internal/llm"
)

type Client struct {
	Response string
	Error    error
	Delay    time.Duration

	CallCount  int
	LastSystem string
	LastPrompt string
	AllCalls   []LLMCall

	mu sync.Mutex
}

type LLMCall struct {
	System string
	Prompt string
}

func New() *Client {
	return &Client{
		Response: `["Violin Sonata No.6 (Ysaÿe, Eugène)", "6 Sonatas for Solo Violin, Op.27 (Ysaÿe, Eugène)"]`,
	}
}

func (c *Client) WithResponse(response string) *Client {
	c.Response = response
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

func (c *Client) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	c.mu.Lock()
	c.CallCount++
	c.LastSystem = system
	c.LastPrompt = prompt
	c.AllCalls = append(c.AllCalls, LLMCall{System: system, Prompt: prompt})
	delay, err, response := c.Delay, c.Error, c.Response
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	if err != nil {
		return "", err
	}

	return response, nil
}

func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CallCount
}

func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCount = 0
	c.LastSystem = ""
	c.LastPrompt = ""
	c.AllCalls = nil
}

var _ llm.Client = (*Client)(nil)
