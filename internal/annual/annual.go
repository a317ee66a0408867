// Package annual builds the year-in-review summary of a card statement.
package annual

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/fares"
	"github.com/dvloznov/barik-insights/internal/journeys"
	"github.com/dvloznov/barik-insights/internal/tariff"
	"github.com/dvloznov/barik-insights/internal/transit"
)

// DefaultTopN is the length of the station and operator rankings.
const DefaultTopN = 10

const moneyPlaces = 2

// Deps are the static collaborators of the aggregator.
type Deps struct {
	Catalog *tariff.Catalog
	Network *transit.Network
	TopN    int
}

// DefaultDeps uses the embedded reference data.
func DefaultDeps() Deps {
	return Deps{
		Catalog: tariff.Default(),
		Network: transit.DefaultNetwork(),
		TopN:    DefaultTopN,
	}
}

func (d Deps) topN() int {
	if d.TopN <= 0 {
		return DefaultTopN
	}
	return d.TopN
}

// Meaningful drops header and blank artifacts.
func Meaningful(records []domain.TransactionRecord) []domain.TransactionRecord {
	out := make([]domain.TransactionRecord, 0, len(records))
	for _, r := range records {
		if r.IsMeaningful() {
			out = append(out, r)
		}
	}
	return out
}

// AvailableYears lists the years with at least one dated record, most recent
// first.
func AvailableYears(records []domain.TransactionRecord) []int {
	seen := make(map[int]bool)
	var years []int
	for _, r := range Meaningful(records) {
		if !r.HasTimestamp() {
			continue
		}
		y := r.Timestamp.Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// ForYear returns the meaningful records dated in year, in chronological order.
func ForYear(records []domain.TransactionRecord, year int) []domain.TransactionRecord {
	var out []domain.TransactionRecord
	for _, r := range Meaningful(records) {
		if r.HasTimestamp() && r.Timestamp.Year() == year {
			out = append(out, r)
		}
	}
	return domain.SortChronological(out)
}

// BuildAll builds one summary per available year, most recent first.
func BuildAll(records []domain.TransactionRecord, deps Deps) []domain.AnnualSummary {
	years := AvailableYears(records)
	out := make([]domain.AnnualSummary, 0, len(years))
	for _, y := range years {
		out = append(out, Build(records, y, deps))
	}
	return out
}

// Build computes the summary of one year. Input without records for that year
// yields a zeroed summary with empty collections.
func Build(records []domain.TransactionRecord, year int, deps Deps) domain.AnnualSummary {
	s := emptySummary(year)
	recs := ForYear(records, year)
	if len(recs) == 0 {
		return s
	}
	if deps.Catalog == nil {
		deps.Catalog = tariff.Default()
	}
	if deps.Network == nil {
		deps.Network = transit.DefaultNetwork()
	}

	insights := fares.NewEngine(deps.Catalog).Compute(recs)
	js := journeys.Build(recs)

	s.Records = len(recs)
	s.Journeys = len(js)
	s.Totals = journeys.Stats(js, insights)

	s.TopStations = topStations(recs, deps.Network, deps.topN())
	s.TopOperators = topOperators(js, deps.topN())

	days := dayBuckets(js, insights)
	s.Days = days
	s.Months = monthBuckets(days)
	for _, d := range days {
		if d.Stats.Rides > 0 {
			s.ActiveDays++
		}
	}
	s.LongestStreak = longestStreak(days)
	s.PeakTravelDay = peakTravelDay(days)

	first, last := civil.DateOf(recs[0].Timestamp), civil.DateOf(recs[len(recs)-1].Timestamp)
	s.FirstDate, s.LastDate = &first, &last
	s.CalendarDays = last.DaysSince(first) + 1
	s.Averages = averages(s.Totals, s.ActiveDays, s.CalendarDays)

	s.Metro = metroSummary(js, deps.Network)
	return s
}

func emptySummary(year int) domain.AnnualSummary {
	s := domain.AnnualSummary{
		Year:         year,
		TopStations:  []domain.StationUsage{},
		TopOperators: []domain.OperatorUsage{},
		Days:         []domain.DayBucket{},
		Months:       make([]domain.MonthBucket, 12),
		Metro: domain.MetroSummary{
			Stations: []domain.MetroStationUsage{},
			Trips:    []domain.MetroTrip{},
		},
	}
	for i := range s.Months {
		s.Months[i] = domain.MonthBucket{Month: time.Month(i + 1), Operators: map[string]int{}}
	}
	return s
}

func averages(totals domain.JourneyStats, activeDays, calendarDays int) domain.Averages {
	var a domain.Averages
	if activeDays > 0 {
		n := float64(activeDays)
		a.RidesPerActiveDay = float64(totals.Rides) / n
		a.MinutesPerActiveDay = float64(totals.TravelMinutes) / n
		a.SpentPerActiveDay = totals.Spent.DivRound(decimal.NewFromInt(int64(activeDays)), moneyPlaces)
	}
	if calendarDays > 0 {
		n := float64(calendarDays)
		a.RidesPerCalendarDay = float64(totals.Rides) / n
		a.MinutesPerCalendarDay = float64(totals.TravelMinutes) / n
		a.SpentPerCalendarDay = totals.Spent.DivRound(decimal.NewFromInt(int64(calendarDays)), moneyPlaces)
	}
	return a
}
