// Package bitget implements exchange.Gateway over Bitget's v1 mix (USDT
// perpetual) REST API, plus a public websocket feed for top of book.
package bitget

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"signal_bot/internal/helper"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.bitget.com"
	DefaultWSURL   = "wss://ws.bitget.com/mix/v1/stream"

	codeOK = "00000"
)

type Config struct {
	BaseURL     string
	WSURL       string
	APIKey      string
	APISecret   string
	Passphrase  string
	ProductType string // umcbl
	MarginCoin  string // USDT
	// RateLimit is requests per second across all private and public calls.
	RateLimit float64
	Timeout   time.Duration
}

// APIError is a non-success envelope returned by Bitget.
type APIError struct {
	Code string
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bitget api error: code=%s msg=%s", e.Code, e.Msg)
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.WSURL == "" {
		cfg.WSURL = DefaultWSURL
	}
	if cfg.ProductType == "" {
		cfg.ProductType = "umcbl"
	}
	if cfg.MarginCoin == "" {
		cfg.MarginCoin = "USDT"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

func (c *Client) Name() string { return "bitget" }

// NormalizeSymbol turns "BTCUSDT" (or "BINANCE:BTCUSDT.P") into "BTCUSDT_UMCBL".
func (c *Client) NormalizeSymbol(ticker string) string {
	t := helper.BaseTicker(ticker)
	suffix := "_" + strings.ToUpper(c.cfg.ProductType)
	if strings.HasSuffix(t, suffix) {
		return t
	}
	return t + suffix
}

func (c *Client) sign(ts, method, requestPath, body string) string {
	h := hmac.New(sha256.New, []byte(c.cfg.APISecret))
	h.Write([]byte(ts + strings.ToUpper(method) + requestPath + body))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// do sends a signed request and returns the envelope's data field.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (gjson.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, errors.Wrap(err, "rate limit wait")
	}

	requestPath := path
	if len(query) > 0 {
		requestPath += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		b, err := sonic.Marshal(body)
		if err != nil {
			return gjson.Result{}, errors.Wrapf(err, "%s marshal", path)
		}
		payload = b
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+requestPath, bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "%s new request", path)
	}

	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	req.Header.Set("ACCESS-KEY", c.cfg.APIKey)
	req.Header.Set("ACCESS-SIGN", c.sign(ts, method, requestPath, string(payload)))
	req.Header.Set("ACCESS-TIMESTAMP", ts)
	req.Header.Set("ACCESS-PASSPHRASE", c.cfg.Passphrase)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("locale", "en-US")

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "%s do", path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "%s read body", path)
	}

	env := gjson.ParseBytes(data)
	if resp.StatusCode/100 != 2 {
		if code := env.Get("code"); code.Exists() {
			return gjson.Result{}, errors.Wrapf(&APIError{Code: code.String(), Msg: env.Get("msg").String()}, "%s http %d", path, resp.StatusCode)
		}
		return gjson.Result{}, errors.Errorf("%s http %d: %s", path, resp.StatusCode, string(data))
	}
	if code := env.Get("code").String(); code != codeOK {
		return gjson.Result{}, errors.Wrap(&APIError{Code: code, Msg: env.Get("msg").String()}, path)
	}
	return env.Get("data"), nil
}
