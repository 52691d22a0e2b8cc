package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr error
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
		},
		{
			name:    "unknown oracle provider",
			envVars: map[string]string{"ORACLE_PROVIDER": "gigachat"},
			wantErr: ErrUnknownOracleProvider,
		},
		{
			name:    "unknown search backend",
			envVars: map[string]string{"SEARCH_BACKEND": "google"},
			wantErr: ErrUnknownSearchBackend,
		},
		{
			name:    "tavily without key",
			envVars: map[string]string{"SEARCH_BACKEND": "tavily"},
			wantErr: ErrMissingTavilyKey,
		},
		{
			name:    "tavily with key",
			envVars: map[string]string{"SEARCH_BACKEND": "tavily", "TAVILY_API_KEY": "tvly-test"},
		},
		{
			name:    "bad history dsn",
			envVars: map[string]string{"HISTORY_DSN": "mysql://localhost/db"},
			wantErr: ErrInvalidHistoryDSN,
		},
		{
			name:    "zero fanout",
			envVars: map[string]string{"FANOUT": "0"},
			wantErr: ErrInvalidFanout,
		},
		{
			name:    "provider is case-insensitive",
			envVars: map[string]string{"ORACLE_PROVIDER": "Gemini"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load("")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Load() unexpected error = %v", err)
			}
			if cfg == nil {
				t.Fatal("Load() returned nil config")
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %v, want info", cfg.Log.Level)
	}
	if cfg.Oracle.Provider != OracleAnthropic {
		t.Errorf("Oracle.Provider = %v, want anthropic", cfg.Oracle.Provider)
	}
	if cfg.Oracle.Timeout != 15*time.Second {
		t.Errorf("Oracle.Timeout = %v, want 15s", cfg.Oracle.Timeout)
	}
	if cfg.Search.Backend != BackendIMSLP {
		t.Errorf("Search.Backend = %v, want imslp", cfg.Search.Backend)
	}
	if cfg.Search.Fanout != 4 {
		t.Errorf("Search.Fanout = %d, want 4", cfg.Search.Fanout)
	}
	if cfg.Search.IMSLP.RequestsPerSec != 5 {
		t.Errorf("IMSLP.RequestsPerSec = %v, want 5", cfg.Search.IMSLP.RequestsPerSec)
	}
	if cfg.Timeouts.Search != 10*time.Second || cfg.Timeouts.Page != 10*time.Second {
		t.Errorf("Timeouts = %+v, want 10s search and page", cfg.Timeouts)
	}
	if cfg.Timeouts.Total != 45*time.Second {
		t.Errorf("Timeouts.Total = %v, want 45s", cfg.Timeouts.Total)
	}
	if cfg.Cache.TTL != 0 {
		t.Errorf("Cache.TTL = %v, want 0 (disabled)", cfg.Cache.TTL)
	}
	if cfg.RateLimit.RequestsPerMinute != 10 {
		t.Errorf("RateLimit.RequestsPerMinute = %v, want 10", cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.Oracle.OracleAPIKey() != "" {
		t.Error("no oracle key expected by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ORACLE_PROVIDER", "openrouter")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("TOTAL_TIMEOUT_SEC", "30")
	t.Setenv("PAGE_CACHE_TTL_SEC", "600")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Oracle.OracleAPIKey() != "sk-or-test" {
		t.Errorf("OracleAPIKey() = %q", cfg.Oracle.OracleAPIKey())
	}
	if cfg.Timeouts.Total != 30*time.Second {
		t.Errorf("Timeouts.Total = %v", cfg.Timeouts.Total)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("Telegram.Token = %q", cfg.Telegram.Token)
	}
}

func TestLoad_GigaChat(t *testing.T) {
	t.Setenv("ORACLE_PROVIDER", "GigaChat")
	t.Setenv("GIGACHAT_AUTH_KEY", "base64key")
	t.Setenv("GIGACHAT_INSECURE_TLS", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Oracle.Provider != OracleGigaChat {
		t.Errorf("Oracle.Provider = %q", cfg.Oracle.Provider)
	}
	if cfg.Oracle.OracleAPIKey() != "base64key" {
		t.Errorf("OracleAPIKey() = %q", cfg.Oracle.OracleAPIKey())
	}
	if !cfg.Oracle.GigaChat.InsecureSkipVerify {
		t.Error("GigaChat.InsecureSkipVerify = false, want true")
	}
	if cfg.Oracle.GigaChat.Scope != "GIGACHAT_API_PERS" || cfg.Oracle.GigaChat.Model != "GigaChat" {
		t.Errorf("GigaChat defaults = %+v", cfg.Oracle.GigaChat)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "score-lookup.yaml")
	content := "http_addr: \":7070\"\nsearch_backend: imslp\nfanout: 2\nhistory_dsn: sqlite:///tmp/history.db\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FANOUT", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.Addr != ":7070" {
		t.Errorf("HTTP.Addr = %q, want :7070 from file", cfg.HTTP.Addr)
	}
	if cfg.Search.Fanout != 3 {
		t.Errorf("Search.Fanout = %d, want 3 (env beats file)", cfg.Search.Fanout)
	}
	kind, target, err := cfg.History.Backend()
	if err != nil || kind != HistorySQLite || target != "/tmp/history.db" {
		t.Errorf("History.Backend() = %q, %q, %v", kind, target, err)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() should fail for a missing explicit config file")
	}
}

func TestHistoryConfig_Backend(t *testing.T) {
	tests := []struct {
		dsn        string
		wantKind   string
		wantTarget string
		wantErr    error
	}{
		{"", "", "", nil},
		{"postgres://u:p@localhost:5432/db", HistoryPostgres, "postgres://u:p@localhost:5432/db", nil},
		{"postgresql://localhost/db", HistoryPostgres, "postgresql://localhost/db", nil},
		{"sqlite://history.db", HistorySQLite, "history.db", nil},
		{"sqlite://", "", "", ErrInvalidHistoryDSN},
		{"redis://localhost", "", "", ErrInvalidHistoryDSN},
	}

	for _, tt := range tests {
		kind, target, err := HistoryConfig{DSN: tt.dsn}.Backend()
		if kind != tt.wantKind || target != tt.wantTarget || !errors.Is(err, tt.wantErr) {
			t.Errorf("Backend(%q) = %q, %q, %v; want %q, %q, %v", tt.dsn, kind, target, err, tt.wantKind, tt.wantTarget, tt.wantErr)
		}
	}
}

func TestLoad_OpenRouterFallbacks(t *testing.T) {
	t.Setenv("ORACLE_PROVIDER", "openrouter")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("OPENROUTER_FALLBACKS", " mistralai/mistral-small, ,qwen/qwen-2.5-72b-instruct ")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"mistralai/mistral-small", "qwen/qwen-2.5-72b-instruct"}
	if !slices.Equal(cfg.Oracle.OpenRouter.FallbackModels, want) {
		t.Errorf("FallbackModels = %v, want %v", cfg.Oracle.OpenRouter.FallbackModels, want)
	}
}
