package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

type Sentiment string

const (
	SentimentLong  Sentiment = "long"
	SentimentShort Sentiment = "short"
	SentimentFlat  Sentiment = "flat"
)

// Signal is a normalized directional instruction from an external alert source.
type Signal struct {
	Ticker        string
	Action        Action
	Sentiment     Sentiment
	Leverage      decimal.Decimal
	PositionRatio decimal.Decimal
	// Price, when set, replaces the best bid/ask as the limit price.
	Price *decimal.Decimal
}

// NormalizeSignal lowercases action and sentiment and uppercases the ticker.
func NormalizeSignal(ticker, action, sentiment string) (string, Action, Sentiment) {
	return strings.ToUpper(strings.TrimSpace(ticker)),
		Action(strings.ToLower(strings.TrimSpace(action))),
		Sentiment(strings.ToLower(strings.TrimSpace(sentiment)))
}
