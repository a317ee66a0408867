package fares

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/tariff"
)

var t0 = time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

func rec(cont int, at time.Time, tx, title, amount string) domain.TransactionRecord {
	return domain.TransactionRecord{
		Cont:        cont,
		Page:        1,
		Timestamp:   at,
		Transaction: tx,
		Title:       title,
		Operator:    "BIZKAIBUS",
		Amount:      decimal.RequireFromString(amount),
	}
}

func bonobusScenario(rides int) []domain.TransactionRecord {
	records := []domain.TransactionRecord{rec(1, t0, "Venta título", "BONOBUS10", "12.50")}
	for i := 0; i < rides; i++ {
		records = append(records, rec(i+2, t0.Add(time.Duration(i+1)*time.Hour), "Validación", "BONOBUS10", "-1.25"))
	}
	return records
}

func TestBonobusScenario(t *testing.T) {
	records := bonobusScenario(10)
	ordered := NewEngine(tariff.Default()).ComputeOrdered(records)
	require.Len(t, ordered, 11)

	purchase := ordered[0]
	assert.Equal(t, domain.UsageTitleRecharge, purchase.Usage)
	require.NotNil(t, purchase.Pass)
	assert.Equal(t, 10, *purchase.Pass.RemainingTrips)
	assert.Equal(t, 30, purchase.Pass.ValidityDays)

	first := ordered[1]
	assert.Equal(t, domain.UsageRide, first.Usage)
	require.NotNil(t, first.Limited)
	assert.Equal(t, 9, first.Limited.RemainingTrips)
	assert.Equal(t, 10, first.Limited.TotalTrips)
	assert.Equal(t, "1.25", first.Limited.PricePerTrip.String())
	assert.Equal(t, "1.25", first.SavingsAmount().String())

	tenth := ordered[10]
	require.NotNil(t, tenth.Limited)
	assert.Equal(t, 0, tenth.Limited.RemainingTrips)

	s := Summarize(NewEngine(tariff.Default()).Compute(records))
	assert.Equal(t, 1, s.TitleRecharges)
	assert.Equal(t, 10, s.Rides)
	assert.Equal(t, 10, s.RidesUnderPass)
	assert.Equal(t, "12.5", s.Savings.String())
}

func TestPassDecrementMonotonicity(t *testing.T) {
	const total = 10
	for k := 0; k <= total+3; k++ {
		t.Run(fmt.Sprintf("%d rides", k), func(t *testing.T) {
			ordered := NewEngine(tariff.Default()).ComputeOrdered(bonobusScenario(k))
			remaining := total
			for _, in := range ordered[1:] {
				if in.Limited != nil {
					assert.GreaterOrEqual(t, in.Limited.RemainingTrips, 0)
					assert.LessOrEqual(t, in.Limited.RemainingTrips, remaining)
					remaining = in.Limited.RemainingTrips
				}
			}
			want := total - k
			if want < 0 {
				want = 0
			}
			assert.Equal(t, want, remaining)
		})
	}
}

func TestExhaustedPassStopsCovering(t *testing.T) {
	ordered := NewEngine(tariff.Default()).ComputeOrdered(bonobusScenario(11))
	last := ordered[11]
	assert.Nil(t, last.Pass)
	assert.Nil(t, last.Savings)
	assert.Equal(t, "Bonobus 10", last.TariffName)
}

func TestPurchaseValidationAtSameInstantDoesNotDecrement(t *testing.T) {
	records := []domain.TransactionRecord{
		rec(1, t0, "Venta título", "Bonobus 10", "12.50"),
		rec(2, t0, "Validación", "Bonobus 10", "0"),
		rec(3, t0.Add(time.Hour), "Validación", "Bonobus 10", "-1.25"),
	}
	ordered := NewEngine(tariff.Default()).ComputeOrdered(records)
	require.Len(t, ordered, 3)
	assert.Equal(t, 10, ordered[1].Limited.RemainingTrips)
	assert.Nil(t, ordered[1].Savings)
	assert.Equal(t, 9, ordered[2].Limited.RemainingTrips)
}

func TestInputOrderDoesNotMatter(t *testing.T) {
	records := bonobusScenario(3)
	reversed := make([]domain.TransactionRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}
	engine := NewEngine(tariff.Default())
	assert.Equal(t, engine.Compute(records), engine.Compute(reversed))
}

func TestNewPurchaseReplacesPass(t *testing.T) {
	records := append(bonobusScenario(4),
		rec(20, t0.Add(10*time.Hour), "Venta título", "Bonobus 10", "12.50"),
		rec(21, t0.Add(11*time.Hour), "Validación", "Bonobus 10", "-1.25"),
	)
	ordered := NewEngine(tariff.Default()).ComputeOrdered(records)
	last := ordered[len(ordered)-1]
	require.NotNil(t, last.Limited)
	assert.Equal(t, 9, last.Limited.RemainingTrips)
	assert.Equal(t, records[5].Key(), last.Pass.PurchaseKey)
}

func TestUnlimitedPassExpiry(t *testing.T) {
	records := []domain.TransactionRecord{
		rec(1, t0, "Compra título", "Mensual 1 Zona", "42.00"),
		rec(2, t0.Add(23*time.Hour), "Validación entrada", "Mensual 1 Zona", "-0.97"),
		rec(3, t0.Add(23*time.Hour+20*time.Minute), "Validación salida", "Mensual 1 Zona", "0"),
		rec(4, t0.AddDate(0, 0, 31), "Validación entrada", "Mensual 1 Zona", "-0.97"),
	}
	insights := NewEngine(tariff.Default()).Compute(records)

	entry := insights[records[1].Key()]
	require.NotNil(t, entry.Pass)
	assert.Nil(t, entry.Limited)
	assert.Nil(t, entry.Pass.RemainingTrips)
	require.NotNil(t, entry.DaysRemaining)
	assert.Equal(t, 30, *entry.DaysRemaining)
	assert.Equal(t, "0.97", entry.SavingsAmount().String())

	exit := insights[records[2].Key()]
	assert.True(t, exit.UnderPass())
	assert.Nil(t, exit.Savings)

	late := insights[records[3].Key()]
	assert.False(t, late.UnderPass())
}

func TestSavingsFallsBackToBaseFare(t *testing.T) {
	records := []domain.TransactionRecord{
		rec(1, t0, "Compra título", "Gizatrans", "12.00"),
		rec(2, t0.Add(time.Hour), "Validación", "Gizatrans", "0"),
	}
	insights := NewEngine(tariff.Default()).Compute(records)
	assert.Equal(t, "0.35", insights[records[1].Key()].SavingsAmount().String())
}

func TestWalletRecharges(t *testing.T) {
	records := []domain.TransactionRecord{
		rec(1, t0, "Recarga", "MONEDERO CREDITRANS", "20.00"),
		rec(2, t0.Add(time.Minute), "Recarga saldo", "Bonobus 10", "5.00"),
		rec(3, t0.Add(time.Hour), "Validación", "Monedero", "-1.35"),
	}
	insights := NewEngine(tariff.Default()).Compute(records)

	assert.Equal(t, domain.UsageWalletRecharge, insights[records[0].Key()].Usage)
	assert.Equal(t, "Monedero", insights[records[0].Key()].TariffName)
	assert.Equal(t, domain.UsageWalletRecharge, insights[records[1].Key()].Usage)
	assert.Equal(t, "Monedero", insights[records[1].Key()].TariffName)

	ride := insights[records[2].Key()]
	assert.Equal(t, domain.UsageRide, ride.Usage)
	assert.False(t, ride.UnderPass())
	assert.Nil(t, ride.Savings)
}

func TestOneInsightPerRecord(t *testing.T) {
	records := append(bonobusScenario(5), rec(99, t0, "Anulación", "", "0"))
	assert.Len(t, NewEngine(tariff.Default()).Compute(records), len(records))
}

func TestDaysRemaining(t *testing.T) {
	exp := t0.AddDate(0, 0, 30)
	assert.Equal(t, 30, daysRemaining(exp, t0))
	assert.Equal(t, 1, daysRemaining(exp, exp.Add(-time.Minute)))
	assert.Equal(t, 0, daysRemaining(exp, exp.Add(time.Hour)))
}
