package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskValidator(t *testing.T) {
	v := NewRiskValidator(d("200"))

	tests := []struct {
		name  string
		price string
		qty   string
		want  error
	}{
		{"below one contract", "1000", "0", ErrMinQuantity},
		{"fractional contract", "1000", "0.5", ErrMinQuantity},
		{"exactly at notional", "100", "2", nil},
		{"just below notional", "99.99", "2", ErrMinNotional},
		{"comfortably above", "50", "10", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(d(tt.price), d(tt.qty))
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrRiskRejected)
		})
	}
}

func TestRiskValidatorZeroFloor(t *testing.T) {
	v := NewRiskValidator(d("0"))
	assert.NoError(t, v.Validate(d("0.0001"), d("1")))
	assert.ErrorIs(t, v.Validate(d("5"), d("0")), ErrMinQuantity)
}
