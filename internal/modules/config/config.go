package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
)

type FallbackQuantity string

const (
	// FallbackTarget resends the full target quantity after a partial fill.
	FallbackTarget FallbackQuantity = "target"
	// FallbackRemaining sends only what the limit order left unfilled.
	FallbackRemaining FallbackQuantity = "remaining"
)

// Config ...
type Config struct {
	Service struct {
		Name string `yaml:"name"`
		Addr string `yaml:"addr"`
	} `yaml:"service"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`

	Webhook struct {
		// Token is compared against the "token" field of every alert.
		Token string `yaml:"token"`
	} `yaml:"webhook"`

	Exchange struct {
		Backend string `yaml:"backend"` // bitget | binance

		APIKey     string `yaml:"api_key"`
		APISecret  string `yaml:"api_secret"`
		Passphrase string `yaml:"passphrase"`

		BaseURL     string  `yaml:"base_url"`
		WSURL       string  `yaml:"ws_url"`
		ProductType string  `yaml:"product_type"`
		MarginCoin  string  `yaml:"margin_coin"`
		Testnet     bool    `yaml:"testnet"`
		RateLimit   float64 `yaml:"rate_limit"`

		// Symbols are alert tickers whose top of book is streamed into the quote cache.
		Symbols        []string      `yaml:"symbols"`
		QuoteMaxAge    time.Duration `yaml:"quote_max_age"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"exchange"`

	Trading struct {
		// MinNotional is the smallest price*quantity accepted for any order.
		MinNotional          float64       `yaml:"min_notional"`
		OrderCheckInterval   time.Duration `yaml:"order_check_interval"`
		DefaultLeverage      float64       `yaml:"default_leverage"`
		DefaultPositionRatio float64       `yaml:"default_position_ratio"`
		// MaxPurchaseRatio scales the exchange's max-openable estimate in live mode.
		MaxPurchaseRatio float64 `yaml:"max_purchase_ratio"`
		// EnableCache sizes from the account snapshot and serves quotes from the feed.
		EnableCache bool `yaml:"enable_cache"`
		// MarginMode multiplies cached sizing by leverage.
		MarginMode         bool             `yaml:"margin_mode"`
		FallbackQuantity   FallbackQuantity `yaml:"fallback_quantity"`
		SerializePerSymbol bool             `yaml:"serialize_per_symbol"`
	} `yaml:"trading"`

	Account struct {
		RefreshInterval time.Duration `yaml:"refresh_interval"`
	} `yaml:"account"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
}

func defaults() Config {
	var c Config
	c.Service.Name = "signal_bot"
	c.Service.Addr = ":8080"
	c.Log.Level = "info"
	c.Tracing.Host = "localhost"
	c.Tracing.Port = 6831
	c.Webhook.Token = "1234"
	c.Exchange.Backend = "bitget"
	c.Exchange.ProductType = "umcbl"
	c.Exchange.MarginCoin = "USDT"
	c.Exchange.RateLimit = 10
	c.Exchange.QuoteMaxAge = 5 * time.Second
	c.Exchange.RequestTimeout = 10 * time.Second
	c.Trading.MinNotional = 200
	c.Trading.OrderCheckInterval = 60 * time.Second
	c.Trading.DefaultLeverage = 2
	c.Trading.DefaultPositionRatio = 0.1
	c.Trading.MaxPurchaseRatio = 1
	c.Trading.FallbackQuantity = FallbackTarget
	c.Trading.SerializePerSymbol = true
	c.Account.RefreshInterval = time.Minute
	return c
}

// envBindings maps config keys onto the environment variables that override them.
var envBindings = map[string][]string{
	"service.addr":                   {"HTTP_ADDR"},
	"log.level":                      {"LOG_LEVEL"},
	"tracing.enabled":                {"TRACING_ENABLED"},
	"tracing.host":                   {"JAEGER_AGENT_HOST"},
	"tracing.port":                   {"JAEGER_AGENT_PORT"},
	"webhook.token":                  {"WEBHOOK_EXPECTED_TOKEN"},
	"exchange.backend":               {"EXCHANGE"},
	"exchange.api_key":               {"BITGET_API_KEY", "BINANCE_API_KEY"},
	"exchange.api_secret":            {"BITGET_SECRET_KEY", "BINANCE_SECRET_KEY"},
	"exchange.passphrase":            {"BITGET_PASSPHRASE"},
	"exchange.base_url":              {"BITGET_BASE_URL", "BINANCE_BASE_URL"},
	"exchange.testnet":               {"BINANCE_TESTNET"},
	"exchange.symbols":               {"QUOTE_SYMBOLS"},
	"trading.min_notional":           {"MIN_PRICE_FILTER"},
	"trading.order_check_interval":   {"ORDER_CHECK_INTERVAL"},
	"trading.default_leverage":       {"DEFAULT_LEVERAGE"},
	"trading.default_position_ratio": {"DEFAULT_POSITION_RATIO"},
	"trading.max_purchase_ratio":     {"MAX_PURCHASE_RATIO"},
	"trading.enable_cache":           {"ENABLE_PRICE_CACHE"},
	"trading.margin_mode":            {"MARGIN_MODE"},
	"trading.fallback_quantity":      {"FALLBACK_QUANTITY"},
	"trading.serialize_per_symbol":   {"SERIALIZE_PER_SYMBOL"},
	"account.refresh_interval":       {"ACCOUNT_REFRESH_INTERVAL"},
	"telegram.token":                 {"TELEGRAM_TOKEN"},
	"telegram.chat_id":               {"TELEGRAM_CHAT_ID"},
}

func NewConfig() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	config := defaults()

	dir := os.Getenv(configDirENV)
	if dir == "" {
		dir = "configs"
	}
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	if err := decodeFile(filepath.Join(dir, configFileName), &config); err != nil {
		return nil, err
	}

	if err := applyEnv(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func decodeFile(path string, config *Config) error {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "open config file")
	}
	defer func() {
		_ = file.Close()
	}()

	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return errors.Wrapf(err, "decode config file %s", path)
	}
	return nil
}

func applyEnv(c *Config) error {
	v := viper.New()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return errors.Wrapf(err, "bind env %s", key)
		}
	}

	setString(v, "service.addr", &c.Service.Addr)
	setString(v, "log.level", &c.Log.Level)
	setBool(v, "tracing.enabled", &c.Tracing.Enabled)
	setString(v, "tracing.host", &c.Tracing.Host)
	setInt(v, "tracing.port", &c.Tracing.Port)
	setString(v, "webhook.token", &c.Webhook.Token)
	setString(v, "exchange.backend", &c.Exchange.Backend)
	setString(v, "exchange.api_key", &c.Exchange.APIKey)
	setString(v, "exchange.api_secret", &c.Exchange.APISecret)
	setString(v, "exchange.passphrase", &c.Exchange.Passphrase)
	setString(v, "exchange.base_url", &c.Exchange.BaseURL)
	setBool(v, "exchange.testnet", &c.Exchange.Testnet)
	if v.IsSet("exchange.symbols") {
		c.Exchange.Symbols = splitList(v.GetString("exchange.symbols"))
	}
	setFloat(v, "trading.min_notional", &c.Trading.MinNotional)
	setDuration(v, "trading.order_check_interval", &c.Trading.OrderCheckInterval)
	setFloat(v, "trading.default_leverage", &c.Trading.DefaultLeverage)
	setFloat(v, "trading.default_position_ratio", &c.Trading.DefaultPositionRatio)
	setFloat(v, "trading.max_purchase_ratio", &c.Trading.MaxPurchaseRatio)
	setBool(v, "trading.enable_cache", &c.Trading.EnableCache)
	setBool(v, "trading.margin_mode", &c.Trading.MarginMode)
	if v.IsSet("trading.fallback_quantity") {
		c.Trading.FallbackQuantity = FallbackQuantity(strings.ToLower(v.GetString("trading.fallback_quantity")))
	}
	setBool(v, "trading.serialize_per_symbol", &c.Trading.SerializePerSymbol)
	setDuration(v, "account.refresh_interval", &c.Account.RefreshInterval)
	setString(v, "telegram.token", &c.Telegram.Token)
	if v.IsSet("telegram.chat_id") {
		c.Telegram.ChatID = v.GetInt64("telegram.chat_id")
	}
	return nil
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func setBool(v *viper.Viper, key string, dst *bool) {
	if v.IsSet(key) {
		*dst = v.GetBool(key)
	}
}

func setInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func setFloat(v *viper.Viper, key string, dst *float64) {
	if v.IsSet(key) {
		*dst = v.GetFloat64(key)
	}
}

// setDuration accepts Go durations ("90s") and bare seconds ("60").
func setDuration(v *viper.Viper, key string, dst *time.Duration) {
	if !v.IsSet(key) {
		return
	}
	raw := strings.TrimSpace(v.GetString(key))
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
		return
	}
	if n := v.GetInt64(key); n > 0 {
		*dst = time.Duration(n) * time.Second
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	switch c.Exchange.Backend {
	case "bitget", "binance":
	default:
		return errors.Errorf("config: unknown exchange backend %q", c.Exchange.Backend)
	}
	if c.Webhook.Token == "" {
		return errors.New("config: webhook token must not be empty")
	}
	if c.Trading.MinNotional < 0 {
		return errors.New("config: min_notional must be >= 0")
	}
	if c.Trading.OrderCheckInterval <= 0 {
		return errors.New("config: order_check_interval must be positive")
	}
	if c.Trading.DefaultLeverage <= 0 {
		return errors.New("config: default_leverage must be positive")
	}
	if c.Trading.DefaultPositionRatio <= 0 || c.Trading.DefaultPositionRatio > 1 {
		return errors.New("config: default_position_ratio must be in (0, 1]")
	}
	if c.Trading.MaxPurchaseRatio <= 0 || c.Trading.MaxPurchaseRatio > 1 {
		return errors.New("config: max_purchase_ratio must be in (0, 1]")
	}
	switch c.Trading.FallbackQuantity {
	case FallbackTarget, FallbackRemaining:
	default:
		return errors.Errorf("config: fallback_quantity must be %q or %q", FallbackTarget, FallbackRemaining)
	}
	return nil
}

func (c *Config) MinNotional() decimal.Decimal {
	return decimal.NewFromFloat(c.Trading.MinNotional)
}

func (c *Config) DefaultLeverage() decimal.Decimal {
	return decimal.NewFromFloat(c.Trading.DefaultLeverage)
}

func (c *Config) DefaultPositionRatio() decimal.Decimal {
	return decimal.NewFromFloat(c.Trading.DefaultPositionRatio)
}

func (c *Config) MaxPurchaseRatio() decimal.Decimal {
	return decimal.NewFromFloat(c.Trading.MaxPurchaseRatio)
}
