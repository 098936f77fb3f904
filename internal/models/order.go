package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	OpenLong   OrderSide = "open_long"
	OpenShort  OrderSide = "open_short"
	CloseLong  OrderSide = "close_long"
	CloseShort OrderSide = "close_short"
)

func (s OrderSide) IsClose() bool { return s == CloseLong || s == CloseShort }

// IsBuy reports whether the side buys on the book: opening a long or closing a short.
func (s OrderSide) IsBuy() bool { return s == OpenLong || s == CloseShort }

type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// OrderIntent is one submission attempt. A fallback is a new intent.
type OrderIntent struct {
	Symbol   string
	Side     OrderSide
	Type     OrderType
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Leverage decimal.Decimal
}

type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "new"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCanceled        OrderStatus = "canceled"
	OrderStatusRejected        OrderStatus = "rejected"
	OrderStatusUnknown         OrderStatus = "unknown"
)

// OrderState is the result of a single status poll.
type OrderState struct {
	Status         OrderStatus
	FilledQuantity decimal.Decimal
}

type OutcomeKind string

const (
	OutcomeFilled          OutcomeKind = "filled"
	OutcomePartiallyFilled OutcomeKind = "partially_filled"
	OutcomeUnfilled        OutcomeKind = "unfilled"
)

// OrderOutcome is the classified result of one limit order.
// Cancelled is meaningful for PartiallyFilled (remainder) and Unfilled.
type OrderOutcome struct {
	Kind      OutcomeKind
	Cancelled bool
}

// ExecutionReport is what a handled signal produces for notifiers and logs.
type ExecutionReport struct {
	Ticker    string
	Symbol    string
	Action    Action
	Sentiment Sentiment
	Side      OrderSide
	Leverage  decimal.Decimal
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	OrderID   string
	Outcome   *OrderOutcome
	// FallbackOrderID is set when a close fell back to a market order.
	FallbackOrderID string
	Skipped         string
	Err             error
	StartedAt       time.Time
	Duration        time.Duration
}
