// AngelaMos | 2026
// money_test.go

package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckCents(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"0", true},
		{"100", true},
		{"100.5", true},
		{"100.05", true},
		{"100.050", true},
		{"-3.25", true},
		{"100.004", false},
		{"0.001", false},
		{"10.005", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := CheckCents("amount", decimal.RequireFromString(tt.value))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
