package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"thousands and decimals", "1.234,56", "1234.56", true},
		{"negative prefix", "-1,35", "-1.35", true},
		{"negative suffix", "1,35-", "-1.35", true},
		{"currency sign", "12,00 €", "12", true},
		{"integer", "20", "20", true},
		{"empty", "", "0", false},
		{"garbage", "abc", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestSum(t *testing.T) {
	got := Sum(MustParse("0,10"), MustParse("0,20"), MustParse("-0,05"))
	assert.Equal(t, "0.25", got.String())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1234,50", Format(decimal.RequireFromString("1234.5")))
}
