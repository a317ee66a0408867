package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyTransaction(t *testing.T) {
	tests := []struct {
		text string
		want TxKind
	}{
		{"Recarga monedero", TxRecharge},
		{"Venta título", TxRecharge},
		{"Validación entrada", TxEntry},
		{"Validación salida", TxExit},
		{"Validación", TxSingle},
		{"Transbordo", TxSingle},
		{"Anulación", TxUnknown},
		{"", TxUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTransaction(tt.text))
		})
	}
}

func TestIsWalletRechargeText(t *testing.T) {
	assert.True(t, IsWalletRechargeText("Recarga monedero"))
	assert.True(t, IsWalletRechargeText("Carga de saldo"))
	assert.False(t, IsWalletRechargeText("Venta título"))
	assert.False(t, IsWalletRechargeText("Validación monedero"))
}

func TestRecordKey(t *testing.T) {
	r := TransactionRecord{Page: 2, Cont: 14, Timestamp: time.Date(2024, 3, 1, 8, 5, 0, 0, time.UTC)}
	assert.Equal(t, "2:14:2024-03-01T08:05:00", r.Key())
	assert.Equal(t, "1:3:", TransactionRecord{Page: 1, Cont: 3}.Key())
}

func TestIsMeaningful(t *testing.T) {
	assert.False(t, TransactionRecord{Cont: 1, Page: 1}.IsMeaningful())
	assert.True(t, TransactionRecord{Operator: "METRO BILBAO"}.IsMeaningful())
	assert.True(t, TransactionRecord{Balance: decimal.NewFromInt(3)}.IsMeaningful())
}

func TestSortChronological(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	in := []TransactionRecord{
		{Cont: 3, Timestamp: t0.Add(time.Hour)},
		{Cont: 2, Timestamp: t0},
		{Cont: 1, Timestamp: t0},
	}
	out := SortChronological(in)
	assert.Equal(t, []int{1, 2, 3}, []int{out[0].Cont, out[1].Cont, out[2].Cont})
	assert.Equal(t, 3, in[0].Cont, "input must not be reordered")
}

func TestJourneyStatsAdd(t *testing.T) {
	a := JourneyStats{Rides: 2, Spent: decimal.RequireFromString("1.10"), TravelMinutes: 20}
	b := JourneyStats{Rides: 1, WalletRecharges: 1, Savings: decimal.RequireFromString("0.55")}
	sum := a.Add(b)
	assert.Equal(t, 3, sum.Rides)
	assert.Equal(t, 1, sum.WalletRecharges)
	assert.True(t, sum.Equal(SumJourneyStats(a, b)))
	assert.True(t, JourneyStats{}.IsZero())
	assert.True(t, a.Add(JourneyStats{}).Equal(a))
}
