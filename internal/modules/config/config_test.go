package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useConfigDir(t *testing.T, yamlBody string) {
	t.Helper()
	dir := t.TempDir()
	if yamlBody != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(yamlBody), 0o600))
	}
	t.Setenv(configDirENV, dir)
	t.Setenv(configFilePathENV, "test.yaml")
}

func TestDefaultsWithoutFile(t *testing.T) {
	useConfigDir(t, "")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "1234", cfg.Webhook.Token)
	assert.Equal(t, "bitget", cfg.Exchange.Backend)
	assert.Equal(t, float64(200), cfg.Trading.MinNotional)
	assert.Equal(t, 60*time.Second, cfg.Trading.OrderCheckInterval)
	assert.Equal(t, "2", cfg.DefaultLeverage().String())
	assert.Equal(t, "0.1", cfg.DefaultPositionRatio().String())
	assert.Equal(t, FallbackTarget, cfg.Trading.FallbackQuantity)
	assert.True(t, cfg.Trading.SerializePerSymbol)
}

func TestFileThenEnv(t *testing.T) {
	useConfigDir(t, `
webhook:
  token: from-file
exchange:
  backend: binance
  symbols: [BTCUSDT, ETHUSDT]
trading:
  min_notional: 50
  order_check_interval: 30s
  enable_cache: true
`)
	t.Setenv("WEBHOOK_EXPECTED_TOKEN", "from-env")
	t.Setenv("ORDER_CHECK_INTERVAL", "5")
	t.Setenv("FALLBACK_QUANTITY", "Remaining")
	t.Setenv("QUOTE_SYMBOLS", "SOLUSDT, XRPUSDT")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Webhook.Token)
	assert.Equal(t, "binance", cfg.Exchange.Backend)
	assert.Equal(t, float64(50), cfg.Trading.MinNotional)
	assert.Equal(t, 5*time.Second, cfg.Trading.OrderCheckInterval)
	assert.True(t, cfg.Trading.EnableCache)
	assert.Equal(t, FallbackRemaining, cfg.Trading.FallbackQuantity)
	assert.Equal(t, []string{"SOLUSDT", "XRPUSDT"}, cfg.Exchange.Symbols)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"backend", func(c *Config) { c.Exchange.Backend = "kraken" }},
		{"token", func(c *Config) { c.Webhook.Token = "" }},
		{"interval", func(c *Config) { c.Trading.OrderCheckInterval = 0 }},
		{"leverage", func(c *Config) { c.Trading.DefaultLeverage = 0 }},
		{"ratio", func(c *Config) { c.Trading.DefaultPositionRatio = 1.5 }},
		{"purchase ratio", func(c *Config) { c.Trading.MaxPurchaseRatio = 0 }},
		{"fallback", func(c *Config) { c.Trading.FallbackQuantity = "all" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	c := defaults()
	assert.NoError(t, c.Validate())
}
