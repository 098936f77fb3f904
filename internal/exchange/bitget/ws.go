package bitget

import (
	"context"
	"strings"
	"time"

	"signal_bot/internal/exchange"
	"signal_bot/internal/helper"
	"signal_bot/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

// BookFeed keeps a QuoteCache current from the public books1 channel.
type BookFeed struct {
	url         string
	productType string
	dialer      *websocket.Dialer
	// OnConnect is called with true after subscribing and false on disconnect.
	OnConnect func(bool)
}

func NewBookFeed(c *Client) *BookFeed {
	return &BookFeed{
		url:         c.cfg.WSURL,
		productType: c.cfg.ProductType,
		dialer:      &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Run reconnects until ctx is cancelled. symbols are venue symbols
// ("BTCUSDT_UMCBL"); the websocket uses the bare instrument id.
func (f *BookFeed) Run(ctx context.Context, symbols []string, cache *exchange.QuoteCache) error {
	if len(symbols) == 0 {
		return nil
	}
	suffix := "_" + strings.ToUpper(f.productType)
	args := make([]map[string]string, 0, len(symbols))
	for _, s := range symbols {
		args = append(args, map[string]string{
			"instType": "mc",
			"channel":  "books1",
			"instId":   strings.TrimSuffix(s, suffix),
		})
	}

	for {
		err := f.session(ctx, args, suffix, cache)
		if f.OnConnect != nil {
			f.OnConnect(false)
		}
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("[WS] bitget books1 disconnected: %v", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

func (f *BookFeed) session(ctx context.Context, args []map[string]string, suffix string, cache *exchange.QuoteCache) error {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"op": "subscribe", "args": args}); err != nil {
		return err
	}
	logger.Info("[WS] bitget books1 subscribed, %d symbols", len(args))
	if f.OnConnect != nil {
		f.OnConnect(true)
	}

	// bitget drops idle connections after 2 minutes without a text ping
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		t := time.NewTicker(25 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-stop:
				return
			case <-t.C:
				if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if string(msg) == "pong" {
			continue
		}
		applyBooks1(msg, suffix, cache)
	}
}

func applyBooks1(msg []byte, suffix string, cache *exchange.QuoteCache) {
	frame := gjson.ParseBytes(msg)
	if frame.Get("arg.channel").String() != "books1" {
		return
	}
	instID := frame.Get("arg.instId").String()
	book := frame.Get("data.0")
	bid := helper.ParseDecimal(book.Get("bids.0.0").String())
	ask := helper.ParseDecimal(book.Get("asks.0.0").String())
	if instID == "" || !bid.IsPositive() || !ask.IsPositive() {
		return
	}
	cache.Set(instID+suffix, bid, ask)
}
