package helper

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFloorQty(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2.99", "2"},
		{"1", "1"},
		{"0.4", "0"},
		{"-3.2", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := FloorQty(decimal.RequireFromString(tt.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParseDecimal(t *testing.T) {
	assert.True(t, ParseDecimal("").IsZero())
	assert.True(t, ParseDecimal("abc").IsZero())
	assert.Equal(t, "-5.5", ParseDecimal(" -5.5 ").String())
}

func TestBaseTicker(t *testing.T) {
	assert.Equal(t, "BTCUSDT", BaseTicker("BINANCE:BTCUSDT.P"))
	assert.Equal(t, "ETHUSDT", BaseTicker("ethusdt"))
}
