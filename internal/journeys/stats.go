package journeys

import "github.com/dvloznov/barik-insights/internal/domain"

// StatsOf reduces a single journey. Recharges are classified through their
// fare insight. Ride amounts count as spend only when no pass covered them.
func StatsOf(j domain.JourneyBlock, insights domain.FareInsightsMap) domain.JourneyStats {
	var s domain.JourneyStats
	switch j.Kind {
	case domain.JourneyRecharge:
		if in, ok := insights[j.Start.Key()]; ok && in.Usage == domain.UsageTitleRecharge {
			s.TitlePurchases++
		} else {
			s.WalletRecharges++
		}
		for _, r := range j.Records {
			s.Spent = s.Spent.Add(r.Amount.Abs())
		}
	case domain.JourneyTrip, domain.JourneySingle:
		s.Rides++
		for _, r := range j.Records {
			in := insights[r.Key()]
			if !in.UnderPass() {
				s.Spent = s.Spent.Add(r.Amount.Abs())
			}
			if sv := in.SavingsAmount(); sv.IsPositive() {
				s.Savings = s.Savings.Add(sv)
			}
		}
		if j.Kind == domain.JourneyTrip {
			s.TravelMinutes += j.DurationMinutes
		}
	}
	return s
}

// Stats sums StatsOf over all journeys.
func Stats(journeys []domain.JourneyBlock, insights domain.FareInsightsMap) domain.JourneyStats {
	var total domain.JourneyStats
	for _, j := range journeys {
		total = total.Add(StatsOf(j, insights))
	}
	return total
}
