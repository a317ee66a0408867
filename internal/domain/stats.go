package domain

import "github.com/shopspring/decimal"

// JourneyStats accumulates counts and totals over a set of journeys.
// The zero value is the identity of Add.
type JourneyStats struct {
	Rides           int             `json:"rides"`
	WalletRecharges int             `json:"walletRecharges"`
	TitlePurchases  int             `json:"titlePurchases"`
	Savings         decimal.Decimal `json:"savings"`
	Spent           decimal.Decimal `json:"spent"`
	TravelMinutes   int             `json:"travelMinutes"`
}

// Add returns the field-wise sum of s and o.
func (s JourneyStats) Add(o JourneyStats) JourneyStats {
	return JourneyStats{
		Rides:           s.Rides + o.Rides,
		WalletRecharges: s.WalletRecharges + o.WalletRecharges,
		TitlePurchases:  s.TitlePurchases + o.TitlePurchases,
		Savings:         s.Savings.Add(o.Savings),
		Spent:           s.Spent.Add(o.Spent),
		TravelMinutes:   s.TravelMinutes + o.TravelMinutes,
	}
}

// Equal compares two stats, treating decimals by value.
func (s JourneyStats) Equal(o JourneyStats) bool {
	return s.Rides == o.Rides &&
		s.WalletRecharges == o.WalletRecharges &&
		s.TitlePurchases == o.TitlePurchases &&
		s.Savings.Equal(o.Savings) &&
		s.Spent.Equal(o.Spent) &&
		s.TravelMinutes == o.TravelMinutes
}

// IsZero reports whether nothing was accumulated.
func (s JourneyStats) IsZero() bool {
	return s.Equal(JourneyStats{})
}

// SumJourneyStats folds Add over all values.
func SumJourneyStats(values ...JourneyStats) JourneyStats {
	var total JourneyStats
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
