package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lemconn/exbridge/dispatch"
	"github.com/shopspring/decimal"
)

const sampleYAML = `
exchanges:
  BitMEX:
    sandbox: true
    max_market_order_amount: "100"
    market_ttl: 30m
    rate_limit:
      rps: 5
      burst: 2
  binancefutures:
    api_key: file-key
    clock_skew:
      first_window: 5s
      second_delay: 1s
      second_window: 60s
    proxy_pool:
      - url: "http://proxy-{index}.internal:8080"
        credential: "user{index}:pass"
        min: 1
        max: 3
      - url: "http://proxy-{index}.internal:8080"
        min: 10
        max: 12
    relay:
      functions:
        - url: "relay-{index}"
          min: 0
          max: 4
    paper: true
    paper_balances:
      USDT: 1000
redis:
  addr: "127.0.0.1:6379"
log:
  format: text
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	bitmex, ok := cfg.Exchange("BITMEX")
	if !ok {
		t.Fatalf("bitmex config missing: %+v", cfg.Exchanges)
	}
	if !bitmex.Sandbox || !bitmex.MaxMarketOrderAmount.Equal(decimal.NewFromInt(100)) || bitmex.MarketTTL != 30*time.Minute {
		t.Fatalf("unexpected bitmex config %+v", bitmex)
	}
	if bitmex.RateLimit.RPS != 5 || bitmex.RateLimit.Burst != 2 {
		t.Fatalf("rate limit = %+v", bitmex.RateLimit)
	}
	if bitmex.Capabilities != nil {
		t.Fatalf("bitmex capabilities should fall back to defaults, got %+v", bitmex.Capabilities)
	}

	binance, _ := cfg.Exchange("binancefutures")
	if len(binance.ProxyPool) != 2 || binance.ProxyPool[0].Max != 3 || binance.ProxyPool[1].Min != 10 {
		t.Fatalf("proxy pool = %+v", binance.ProxyPool)
	}
	if !binance.Relay.Enabled() || binance.Relay.Functions[0].URLTemplate != "relay-{index}" {
		t.Fatalf("relay = %+v", binance.Relay)
	}
	if binance.SkewOrDefault() != dispatch.DefaultClockSkew {
		t.Fatalf("clock skew = %+v", binance.ClockSkew)
	}
	if !binance.Paper || !binance.PaperBalances["usdt"].Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("paper settings = %v %v", binance.Paper, binance.PaperBalances)
	}

	if cfg.Redis.Addr != "127.0.0.1:6379" {
		t.Fatalf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.Log.Format != "text" || cfg.Log.Level != "info" {
		t.Fatalf("log = %+v", cfg.Log)
	}
	if cfg.Markets.TTL != time.Hour || cfg.Markets.MinForceInterval != time.Minute {
		t.Fatalf("market defaults = %+v", cfg.Markets)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EXBRIDGE_LOG_LEVEL", "debug")
	t.Setenv("EXBRIDGE_BITMEX_SECRET_KEY", "env-secret")
	t.Setenv("EXBRIDGE_BINANCEFUTURES_API_KEY", "env-key")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level = %q, want env override", cfg.Log.Level)
	}
	bitmex, _ := cfg.Exchange("bitmex")
	if bitmex.SecretKey != "env-secret" {
		t.Fatalf("secret = %q", bitmex.SecretKey)
	}
	binance, _ := cfg.Exchange("binancefutures")
	if binance.APIKey != "file-key" {
		t.Fatalf("file value should win over env fallback, got %q", binance.APIKey)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	path := writeConfig(t, "exchanges:\n  bitmex:\n    sandbox: true\n")
	dotenv := filepath.Join(filepath.Dir(path), ".env")
	if err := os.WriteFile(dotenv, []byte("EXBRIDGE_BITMEX_API_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("EXBRIDGE_BITMEX_API_KEY") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ex, _ := cfg.Exchange("bitmex"); ex.APIKey != "from-dotenv" {
		t.Fatalf("api key = %q", ex.APIKey)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative max order", "exchanges:\n  bitmex:\n    max_market_order_amount: -1\n"},
		{"partner half set", "exchanges:\n  binancefutures:\n    partner_id: abc\n"},
		{"bad clock skew", "exchanges:\n  binancefutures:\n    clock_skew:\n      first_window: 0s\n      second_window: 60s\n"},
		{"bad decimal", "exchanges:\n  bitmex:\n    max_market_order_amount: lots\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatalf("Load() expected error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Load() expected error for missing file")
	}
}
