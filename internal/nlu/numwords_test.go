package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"500", 500},
		{"7.5", 7.5},
		{"eight", 8},
		{"zero", 0},
		{"nineteen", 19},
		{"forty-five", 45},
		{"forty five", 45},
		{"ninety", 90},
		{"five hundred", 500},
		{"five hundred twenty", 520},
		{"two thousand", 2000},
		{"seven and a half", 7.5},
		{"seven and a quarter", 7.25},
		{"seven and three quarters", 7.75},
		{"seven and three quarter", 7.75},
		{"two and a half", 2.5},
		{"eight and half", 8.5},
		{"7 and a half", 7.5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQuantity(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQuantityRejects(t *testing.T) {
	bad := []string{
		"", "toast", "seven toast", "eight fifteen", "twenty twenty",
		"and a half", "7.5.5",
	}
	for _, in := range bad {
		t.Run(in, func(t *testing.T) {
			_, err := ParseQuantity(in)
			assert.ErrorIs(t, err, ErrNotANumber)
		})
	}
}

func TestParseFraction(t *testing.T) {
	frac, n := parseFraction([]string{"three", "quarter"})
	assert.Equal(t, 0.75, frac)
	assert.Equal(t, 2, n)

	frac, n = parseFraction([]string{"and", "a", "half"})
	assert.Equal(t, 0.5, frac)
	assert.Equal(t, 3, n)

	_, n = parseFraction([]string{"and", "toast"})
	assert.Equal(t, 0, n)
}
