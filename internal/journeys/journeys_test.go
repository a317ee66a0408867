package journeys

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/fares"
	"github.com/dvloznov/barik-insights/internal/tariff"
)

var t0 = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func rec(cont int, at time.Time, tx, amount string) domain.TransactionRecord {
	return domain.TransactionRecord{
		Cont:        cont,
		Page:        1,
		Timestamp:   at,
		Transaction: tx,
		Operator:    "METRO BILBAO",
		Title:       "Monedero",
		Amount:      decimal.RequireFromString(amount),
	}
}

func TestWalletRechargeAndTripScenario(t *testing.T) {
	records := []domain.TransactionRecord{
		{Cont: 1, Page: 1, Timestamp: t0, Transaction: "Recarga", Title: "MONEDERO CREDITRANS", Amount: decimal.RequireFromString("20.00")},
		rec(2, t0.Add(time.Hour), "Validación entrada", "-1.55"),
		rec(3, t0.Add(time.Hour+8*time.Minute), "Validación salida", "0"),
	}

	js := Build(records)
	require.Len(t, js, 2)
	// most recent first
	assert.Equal(t, domain.JourneyTrip, js[0].Kind)
	assert.Equal(t, 8, js[0].DurationMinutes)
	require.NotNil(t, js[0].End)
	assert.Equal(t, 3, js[0].End.Cont)
	assert.Equal(t, domain.JourneyRecharge, js[1].Kind)

	insights := fares.NewEngine(tariff.Default()).Compute(records)
	stats := Stats(js, insights)
	assert.Equal(t, 1, stats.Rides)
	assert.Equal(t, 1, stats.WalletRecharges)
	assert.Equal(t, 0, stats.TitlePurchases)
	assert.Equal(t, "21.55", stats.Spent.String())
	assert.True(t, stats.Savings.IsZero())
	assert.Equal(t, 8, stats.TravelMinutes)
}

func TestOvernightGapSplits(t *testing.T) {
	entry := time.Date(2024, 5, 10, 23, 50, 0, 0, time.UTC)
	records := []domain.TransactionRecord{
		rec(1, entry, "Validación entrada", "-0.97"),
		rec(2, time.Date(2024, 5, 11, 10, 5, 0, 0, time.UTC), "Validación salida", "0"),
	}
	js := Build(records)
	require.Len(t, js, 2)
	for _, j := range js {
		assert.Equal(t, domain.JourneySingle, j.Kind)
		assert.Equal(t, domain.ReasonExceedsWindow, j.Reason)
	}
}

func TestPairingCorrectness(t *testing.T) {
	tests := []struct {
		delta    time.Duration
		wantTrip bool
		wantMins int
		reason   domain.AnomalyReason
	}{
		{0, true, 1, ""},
		{20 * time.Second, true, 1, ""},
		{90 * time.Second, true, 2, ""},
		{37 * time.Minute, true, 37, ""},
		{600 * time.Minute, true, 600, ""},
		{600*time.Minute + time.Second, false, 0, domain.ReasonExceedsWindow},
	}
	for _, tt := range tests {
		t.Run(tt.delta.String(), func(t *testing.T) {
			entry := rec(1, t0, "Validación entrada", "-0.97")
			exit := rec(2, t0.Add(tt.delta), "Validación salida", "0")
			js := Build([]domain.TransactionRecord{exit, entry})
			if tt.wantTrip {
				require.Len(t, js, 1)
				assert.Equal(t, domain.JourneyTrip, js[0].Kind)
				assert.Equal(t, tt.wantMins, js[0].DurationMinutes)
				return
			}
			require.Len(t, js, 2)
			assert.Equal(t, tt.reason, js[0].Reason)
			assert.Equal(t, tt.reason, js[1].Reason)
		})
	}
}

func TestExitBeforeEntryNeverPairs(t *testing.T) {
	entry := rec(1, t0.Add(5*time.Minute), "Validación entrada", "-0.97")
	exit := rec(2, t0, "Validación salida", "0")

	js := Build([]domain.TransactionRecord{entry, exit})
	require.Len(t, js, 2)
	assert.Equal(t, domain.JourneySingle, js[0].Kind)
	assert.Equal(t, domain.ReasonEntryWithoutExit, js[0].Reason)
	assert.Equal(t, domain.JourneySingle, js[1].Kind)
	assert.Equal(t, domain.ReasonExitWithoutEntry, js[1].Reason)
}

func TestOrphans(t *testing.T) {
	records := []domain.TransactionRecord{
		rec(1, t0, "Validación salida", "0"),
		rec(2, t0.Add(time.Hour), "Validación entrada", "-0.97"),
		rec(3, t0.Add(2*time.Hour), "Validación entrada", "-0.97"),
		rec(4, t0.Add(3*time.Hour), "Anulación", "0"),
	}
	js := Build(records)
	require.Len(t, js, 4)

	byCont := make(map[int]domain.JourneyBlock)
	for _, j := range js {
		byCont[j.Start.Cont] = j
	}
	assert.Equal(t, domain.ReasonExitWithoutEntry, byCont[1].Reason)
	assert.Equal(t, domain.ReasonEntryWithoutExit, byCont[2].Reason)
	assert.Equal(t, domain.ReasonEntryWithoutExit, byCont[3].Reason)
	assert.Equal(t, domain.JourneyOther, byCont[4].Kind)
}

func TestOutputIsMostRecentFirst(t *testing.T) {
	records := randomRecords(rand.New(rand.NewSource(7)), 60)
	js := Build(records)
	for i := 1; i < len(js); i++ {
		assert.False(t, js[i].StartTime().After(js[i-1].StartTime()))
	}
}

func TestJourneyExhaustiveness(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 20; n++ {
		t.Run(fmt.Sprintf("seed run %d", n), func(t *testing.T) {
			records := randomRecords(rng, 1+rng.Intn(80))
			seen := make(map[string]int)
			for _, j := range Build(records) {
				for _, r := range j.Records {
					seen[r.Key()]++
				}
			}
			require.Len(t, seen, len(records))
			for _, r := range records {
				assert.Equal(t, 1, seen[r.Key()], r.Key())
			}
		})
	}
}

func TestStatsAdditivity(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for n := 0; n < 20; n++ {
		records := randomRecords(rng, 1+rng.Intn(80))
		insights := fares.NewEngine(tariff.Default()).Compute(records)
		js := Build(records)

		var a, b []domain.JourneyBlock
		for _, j := range js {
			if rng.Intn(2) == 0 {
				a = append(a, j)
			} else {
				b = append(b, j)
			}
		}
		whole := Stats(js, insights)
		split := domain.SumJourneyStats(Stats(a, insights), Stats(b, insights))
		assert.True(t, whole.Equal(split), "whole %+v split %+v", whole, split)
	}
}

func TestStatsUnderPass(t *testing.T) {
	records := []domain.TransactionRecord{
		{Cont: 1, Page: 1, Timestamp: t0, Transaction: "Venta título", Title: "Bonobus 10", Amount: decimal.RequireFromString("12.50")},
		{Cont: 2, Page: 1, Timestamp: t0.Add(time.Hour), Transaction: "Validación", Title: "Bonobus 10", Amount: decimal.RequireFromString("-1.25")},
	}
	insights := fares.NewEngine(tariff.Default()).Compute(records)
	stats := Stats(Build(records), insights)
	assert.Equal(t, 1, stats.TitlePurchases)
	assert.Equal(t, 1, stats.Rides)
	assert.Equal(t, "12.5", stats.Spent.String())
	assert.Equal(t, "1.25", stats.Savings.String())
}

func randomRecords(rng *rand.Rand, n int) []domain.TransactionRecord {
	kinds := []string{"Validación entrada", "Validación salida", "Validación", "Recarga monedero", "Venta título", "Anulación"}
	titles := []string{"Monedero", "Bonobus 10", "Mensual 1 Zona"}
	at := t0
	out := make([]domain.TransactionRecord, 0, n)
	for i := 0; i < n; i++ {
		at = at.Add(time.Duration(rng.Intn(12*60)) * time.Minute)
		out = append(out, domain.TransactionRecord{
			Cont:        i + 1,
			Page:        1 + i/20,
			Timestamp:   at,
			Transaction: kinds[rng.Intn(len(kinds))],
			Title:       titles[rng.Intn(len(titles))],
			Amount:      decimal.New(int64(rng.Intn(400)-200), -2),
		})
	}
	return out
}
