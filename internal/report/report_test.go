package report

import (
	"bytes"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/fares"
)

func TestEuros(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.97", "0,97 €"},
		{"1234.5", "1.234,50 €"},
		{"-2.00", "-2,00 €"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Euros(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestCountAndDuration(t *testing.T) {
	assert.Equal(t, "12.345", Count(12345))
	assert.Equal(t, "7", Count(7))
	assert.Equal(t, "45 min", Duration(45))
	assert.Equal(t, "8 h 35 min", Duration(515))
	assert.Equal(t, "1 h 05 min", Duration(65))
}

func TestWriteSummary(t *testing.T) {
	months := make([]domain.MonthBucket, 12)
	for i := range months {
		months[i] = domain.MonthBucket{Month: time.Month(i + 1)}
	}
	months[2] = domain.MonthBucket{
		Month:      time.March,
		Stats:      domain.JourneyStats{Rides: 3, Spent: decimal.RequireFromString("2.91"), TravelMinutes: 70},
		ActiveDays: 2,
	}
	s := domain.AnnualSummary{
		Year:         2024,
		Records:      7,
		Journeys:     4,
		Totals:       domain.JourneyStats{Rides: 3, Spent: decimal.RequireFromString("2.91"), TravelMinutes: 70},
		ActiveDays:   2,
		CalendarDays: 366,
		TopStations: []domain.StationUsage{
			{Name: "ABANDO", Count: 2, TopOperator: "METRO BILBAO"},
			{Name: "SARRIKO", Count: 1, TopOperator: "BIZKAIBUS", LineCode: "A3247"},
		},
		TopOperators: []domain.OperatorUsage{{Name: "METRO BILBAO", Rides: 2}},
		Months:       months,
		LongestStreak: &domain.Streak{
			Start: civil.Date{Year: 2024, Month: time.March, Day: 1},
			End:   civil.Date{Year: 2024, Month: time.March, Day: 2},
			Days:  2,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, s, "A good year."))
	out := buf.String()

	assert.Contains(t, out, "Year 2024")
	assert.Contains(t, out, "2,91 €")
	assert.Contains(t, out, "1 h 10 min")
	assert.Contains(t, out, "2 of 366")
	assert.Contains(t, out, "2 days (2024-03-01 to 2024-03-02)")
	assert.Contains(t, out, "BIZKAIBUS line A3247")
	assert.Contains(t, out, "March")
	assert.NotContains(t, out, "January")
	assert.Contains(t, out, "A good year.")
}

func TestWriteJourneys(t *testing.T) {
	entry := domain.TransactionRecord{
		Page: 1, Cont: 1, Transaction: "ENTRADA", Operator: "METRO BILBAO", Equipment: "ABANDO",
		Timestamp: time.Date(2024, 2, 3, 8, 0, 0, 0, time.UTC),
	}
	exit := entry
	exit.Cont, exit.Transaction, exit.Equipment = 2, "SALIDA", "PLENTZIA"
	exit.Timestamp = entry.Timestamp.Add(40 * time.Minute)

	js := []domain.JourneyBlock{{
		Kind: domain.JourneyTrip, Start: entry, End: &exit, DurationMinutes: 40,
		Records: []domain.TransactionRecord{entry, exit},
	}}
	insights := domain.FareInsightsMap{entry.Key(): {TariffName: "BARIK"}}

	var buf bytes.Buffer
	require.NoError(t, WriteJourneys(&buf, js, insights))
	out := buf.String()
	assert.Contains(t, out, "2024-02-03 08:00")
	assert.Contains(t, out, "PLENTZIA")
	assert.Contains(t, out, "40")
	assert.Contains(t, out, "BARIK")
}

func TestWriteInsights(t *testing.T) {
	s := fares.Summary{
		Rides:          10,
		RidesUnderPass: 4,
		Savings:        decimal.RequireFromString("3.88"),
		Tariffs: []fares.TariffUsage{
			{Name: "BARIK 50", Code: "B50", Purchases: 1, Rides: 4, Savings: decimal.RequireFromString("3.88")},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteInsights(&buf, s))
	assert.Contains(t, buf.String(), "BARIK 50")
	assert.Contains(t, buf.String(), "3,88 €")
}

func TestWritePath(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePath(&buf, []string{"Abando", "Moyua"}))
	assert.Equal(t, "Abando > Moyua\n2 stops\n", buf.String())

	buf.Reset()
	require.NoError(t, WritePath(&buf, nil))
	assert.Equal(t, "No route\n", buf.String())
}
