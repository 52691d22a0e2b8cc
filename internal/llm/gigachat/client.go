package gigachat

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kitbuilder587/score-lookup/internal/llm"
)

// токен обновляем заранее, за tokenLeeway до истечения
const tokenLeeway = 5 * time.Minute

type Config struct {
	AuthKey      string // готовый ключ авторизации (предпочтительно)
	ClientID     string // альтернатива: будет base64(id:secret)
	ClientSecret string
	Scope        string
	Model        string
	AuthURL      string
	BaseURL      string
	Timeout      time.Duration
	// У Сбера сертификат от собственного корневого УЦ. Без него в системе проверку приходится отключать.
	InsecureSkipVerify bool
}

type Client struct {
	authKey string
	scope   string
	model   string
	authURL string
	baseURL string
	client  *http.Client
	logger  *zap.Logger

	mu          sync.RWMutex
	accessToken string
	tokenExpiry time.Time
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://gigachat.devices.sberbank.ru/api/v1"
	}
	if cfg.Scope == "" {
		cfg.Scope = "GIGACHAT_API_PERS"
	}
	if cfg.Model == "" {
		cfg.Model = "GigaChat"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	authKey := cfg.AuthKey
	if authKey == "" && cfg.ClientID != "" && cfg.ClientSecret != "" {
		authKey = base64.StdEncoding.EncodeToString([]byte(cfg.ClientID + ":" + cfg.ClientSecret))
	}

	return &Client{
		authKey: authKey,
		scope:   cfg.Scope,
		model:   cfg.Model,
		authURL: cfg.AuthURL,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
		logger:  logger,
	}
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// CompleteWithSystem при 401 один раз перевыпускает токен и повторяет запрос.
func (c *Client) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	if c.authKey == "" {
		return "", llm.ErrNotConfigured
	}

	for attempt := range 2 {
		token, err := c.getToken(ctx)
		if err != nil {
			return "", err
		}

		headers := map[string]string{"Authorization": "Bearer " + token}
		respBody, statusCode, err := llm.PostJSON(ctx, c.client, c.baseURL+"/chat/completions", headers, llm.NewChatRequest(c.model, system, prompt))
		if err != nil {
			return "", err
		}

		if statusCode == http.StatusUnauthorized && attempt == 0 {
			c.invalidateToken()
			continue
		}
		if statusCode != http.StatusOK {
			return "", llm.HandleHTTPError(statusCode, respBody, c.logger, "gigachat")
		}

		var chatResp llm.ChatResponse
		if err := json.Unmarshal(respBody, &chatResp); err != nil {
			return "", fmt.Errorf("unmarshal response: %w", err)
		}
		return llm.ExtractContent(&chatResp)
	}

	return "", llm.ErrAuthFailed
}

func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenLeeway)) {
		token := c.accessToken
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	return c.refreshToken(ctx)
}

func (c *Client) refreshToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// другой запрос мог обновить токен, пока ждали лок
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenLeeway)) {
		return c.accessToken, nil
	}

	data := url.Values{}
	data.Set("scope", c.scope)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("create auth request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Basic "+c.authKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("RqUID", uuid.NewString())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", llm.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("gigachat auth failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return "", llm.ErrAuthFailed
	}

	var authResp authResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}

	c.accessToken = authResp.AccessToken
	c.tokenExpiry = time.UnixMilli(authResp.ExpiresAt)

	c.logger.Debug("gigachat token refreshed",
		zap.Time("expires", c.tokenExpiry),
	)

	return c.accessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.tokenExpiry = time.Time{}
}

var _ llm.Client = (*Client)(nil)
