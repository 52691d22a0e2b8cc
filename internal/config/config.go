package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrUnknownOracleProvider = errors.New("ORACLE_PROVIDER must be one of anthropic, openrouter, gemini, gigachat, none")
	ErrUnknownSearchBackend  = errors.New("SEARCH_BACKEND must be imslp or tavily")
	ErrMissingTavilyKey      = errors.New("TAVILY_API_KEY is required for the tavily backend")
	ErrInvalidHistoryDSN     = errors.New("HISTORY_DSN must start with postgres://, postgresql:// or sqlite://")
	ErrInvalidFanout         = errors.New("FANOUT must be between 1 and 16")
)

const (
	OracleAnthropic  = "anthropic"
	OracleOpenRouter = "openrouter"
	OracleGemini     = "gemini"
	OracleGigaChat   = "gigachat"
	OracleNone       = "none"

	BackendIMSLP  = "imslp"
	BackendTavily = "tavily"

	HistoryPostgres = "postgres"
	HistorySQLite   = "sqlite"
)

type Config struct {
	HTTP      HTTPConfig
	Log       LogConfig
	Oracle    OracleConfig
	Search    SearchConfig
	Timeouts  TimeoutConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	History   HistoryConfig
	Telegram  TelegramConfig
}

type HTTPConfig struct {
	Addr string
}

type LogConfig struct {
	Level  string
	Format string
}

type OracleConfig struct {
	Provider   string
	Timeout    time.Duration
	Anthropic  AnthropicConfig
	OpenRouter OpenRouterConfig
	Gemini     GeminiConfig
	GigaChat   GigaChatConfig
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenRouterConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	FallbackModels []string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type GigaChatConfig struct {
	AuthKey            string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

type SearchConfig struct {
	Backend string
	Fanout  int
	IMSLP   IMSLPConfig
	Tavily  TavilyConfig
}

type IMSLPConfig struct {
	BaseURL        string
	RequestsPerSec float64
}

type TavilyConfig struct {
	APIKey  string
	BaseURL string
}

type TimeoutConfig struct {
	Search time.Duration
	Page   time.Duration
	Total  time.Duration
}

type CacheConfig struct {
	TTL time.Duration
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type HistoryConfig struct {
	DSN string
}

type TelegramConfig struct {
	Token string
}

var defaults = map[string]any{
	"http_addr":              ":8080",
	"log_level":              "info",
	"log_format":             "",
	"oracle_provider":        OracleAnthropic,
	"oracle_timeout_sec":     15,
	"anthropic_model":        "claude-sonnet-4-5-20250929",
	"anthropic_base_url":     "https://api.anthropic.com/v1",
	"openrouter_model":       "deepseek/deepseek-chat",
	"openrouter_base_url":    "https://openrouter.ai/api/v1",
	"openrouter_fallbacks":   "",
	"gemini_model":           "gemini-2.5-flash",
	"gigachat_scope":         "GIGACHAT_API_PERS",
	"gigachat_model":         "GigaChat",
	"gigachat_insecure_tls":  false,
	"search_backend":         BackendIMSLP,
	"imslp_base_url":         "https://imslp.org",
	"imslp_requests_per_sec": 5.0,
	"tavily_base_url":        "https://api.tavily.com",
	"search_timeout_sec":     10,
	"page_timeout_sec":       10,
	"total_timeout_sec":      45,
	"fanout":                 4,
	"page_cache_ttl_sec":     0,
	"rate_limit_per_minute":  10,
}

var envOnly = []string{
	"anthropic_api_key",
	"openrouter_api_key",
	"gemini_api_key",
	"gigachat_auth_key",
	"tavily_api_key",
	"history_dsn",
	"telegram_bot_token",
}

// Load читает score-lookup.yaml (если есть) и переменные окружения; окружение важнее файла.
// path="" - искать score-lookup.yaml в текущей директории.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range envOnly {
		v.SetDefault(key, "")
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("score-lookup")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		HTTP: HTTPConfig{Addr: v.GetString("http_addr")},
		Log:  LogConfig{Level: v.GetString("log_level"), Format: v.GetString("log_format")},
		Oracle: OracleConfig{
			Provider: strings.ToLower(v.GetString("oracle_provider")),
			Timeout:  seconds(v, "oracle_timeout_sec"),
			Anthropic: AnthropicConfig{
				APIKey:  v.GetString("anthropic_api_key"),
				Model:   v.GetString("anthropic_model"),
				BaseURL: v.GetString("anthropic_base_url"),
			},
			OpenRouter: OpenRouterConfig{
				APIKey:  v.GetString("openrouter_api_key"),
				Model:   v.GetString("openrouter_model"),
				BaseURL: v.GetString("openrouter_base_url"),

				// через запятую: OPENROUTER_FALLBACKS=a/model,b/model
				FallbackModels: splitList(v.GetString("openrouter_fallbacks")),
			},
			Gemini: GeminiConfig{
				APIKey: v.GetString("gemini_api_key"),
				Model:  v.GetString("gemini_model"),
			},
			GigaChat: GigaChatConfig{
				AuthKey:            v.GetString("gigachat_auth_key"),
				Scope:              v.GetString("gigachat_scope"),
				Model:              v.GetString("gigachat_model"),
				InsecureSkipVerify: v.GetBool("gigachat_insecure_tls"),
			},
		},
		Search: SearchConfig{
			Backend: strings.ToLower(v.GetString("search_backend")),
			Fanout:  v.GetInt("fanout"),
			IMSLP: IMSLPConfig{
				BaseURL:        v.GetString("imslp_base_url"),
				RequestsPerSec: v.GetFloat64("imslp_requests_per_sec"),
			},
			Tavily: TavilyConfig{
				APIKey:  v.GetString("tavily_api_key"),
				BaseURL: v.GetString("tavily_base_url"),
			},
		},
		Timeouts: TimeoutConfig{
			Search: seconds(v, "search_timeout_sec"),
			Page:   seconds(v, "page_timeout_sec"),
			Total:  seconds(v, "total_timeout_sec"),
		},
		Cache:     CacheConfig{TTL: seconds(v, "page_cache_ttl_sec")},
		RateLimit: RateLimitConfig{RequestsPerMinute: v.GetInt("rate_limit_per_minute")},
		History:   HistoryConfig{DSN: v.GetString("history_dsn")},
		Telegram:  TelegramConfig{Token: v.GetString("telegram_bot_token")},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Oracle.Provider {
	case OracleAnthropic, OracleOpenRouter, OracleGemini, OracleGigaChat, OracleNone:
	default:
		return ErrUnknownOracleProvider
	}

	switch c.Search.Backend {
	case BackendIMSLP:
	case BackendTavily:
		if c.Search.Tavily.APIKey == "" {
			return ErrMissingTavilyKey
		}
	default:
		return ErrUnknownSearchBackend
	}

	if c.Search.Fanout < 1 || c.Search.Fanout > 16 {
		return ErrInvalidFanout
	}

	if _, _, err := c.History.Backend(); err != nil {
		return err
	}
	return nil
}

// OracleAPIKey - ключ выбранного провайдера. Пустой ключ значит "оракул выключен".
func (c OracleConfig) OracleAPIKey() string {
	switch c.Provider {
	case OracleAnthropic:
		return c.Anthropic.APIKey
	case OracleOpenRouter:
		return c.OpenRouter.APIKey
	case OracleGemini:
		return c.Gemini.APIKey
	case OracleGigaChat:
		return c.GigaChat.AuthKey
	default:
		return ""
	}
}

// Backend разбирает DSN журнала: ("", "") - журнал выключен.
func (h HistoryConfig) Backend() (kind, target string, err error) {
	dsn := strings.TrimSpace(h.DSN)
	switch {
	case dsn == "":
		return "", "", nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return HistoryPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", ErrInvalidHistoryDSN
		}
		return HistorySQLite, path, nil
	default:
		return "", "", ErrInvalidHistoryDSN
	}
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Second
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
