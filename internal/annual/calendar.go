package annual

import (
	"sort"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/journeys"
)

func dayBuckets(js []domain.JourneyBlock, insights domain.FareInsightsMap) []domain.DayBucket {
	byDate := make(map[civil.Date]*domain.DayBucket)
	for _, j := range js {
		if !j.Start.HasTimestamp() {
			continue
		}
		date := civil.DateOf(j.StartTime())
		b, ok := byDate[date]
		if !ok {
			b = &domain.DayBucket{Date: date, Operators: map[string]int{}}
			byDate[date] = b
		}
		b.Stats = b.Stats.Add(journeys.StatsOf(j, insights))
		if isRide(j) {
			b.Operators[operatorOf(j)]++
		}
	}

	out := make([]domain.DayBucket, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func monthBuckets(days []domain.DayBucket) []domain.MonthBucket {
	months := emptySummary(0).Months
	for _, d := range days {
		m := &months[d.Date.Month-1]
		m.Stats = m.Stats.Add(d.Stats)
		if d.Stats.Rides > 0 {
			m.ActiveDays++
		}
		for op, n := range d.Operators {
			m.Operators[op] += n
		}
	}
	return months
}

// longestStreak finds the longest run of consecutive ride days; the first
// run found wins ties.
func longestStreak(days []domain.DayBucket) *domain.Streak {
	var (
		best     *domain.Streak
		curStart civil.Date
		prev     civil.Date
		cur      int
	)
	for _, d := range days {
		if d.Stats.Rides == 0 {
			continue
		}
		if cur > 0 && d.Date.DaysSince(prev) == 1 {
			cur++
		} else {
			cur = 1
			curStart = d.Date
		}
		prev = d.Date
		if best == nil || cur > best.Days {
			best = &domain.Streak{Start: curStart, End: d.Date, Days: cur}
		}
	}
	return best
}

// peakTravelDay is the earliest day with the most travel minutes.
func peakTravelDay(days []domain.DayBucket) *domain.DayHighlight {
	var best *domain.DayHighlight
	for _, d := range days {
		if d.Stats.TravelMinutes == 0 {
			continue
		}
		if best == nil || d.Stats.TravelMinutes > best.TravelMinutes {
			best = &domain.DayHighlight{Date: d.Date, TravelMinutes: d.Stats.TravelMinutes, Rides: d.Stats.Rides}
		}
	}
	return best
}
