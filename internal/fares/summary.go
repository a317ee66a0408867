package fares

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/barik-insights/internal/domain"
)

// TariffUsage counts activity for one tariff.
type TariffUsage struct {
	Name      string          `json:"name"`
	Code      string          `json:"code"`
	Purchases int             `json:"purchases"`
	Rides     int             `json:"rides"`
	Savings   decimal.Decimal `json:"savings"`
}

// Summary counts insights per usage kind and per tariff.
type Summary struct {
	WalletRecharges int             `json:"walletRecharges"`
	TitleRecharges  int             `json:"titleRecharges"`
	Rides           int             `json:"rides"`
	RidesUnderPass  int             `json:"ridesUnderPass"`
	Savings         decimal.Decimal `json:"savings"`
	Tariffs         []TariffUsage   `json:"tariffs"`
}

// Summarize reduces an insight map. Tariffs are ordered by name.
func Summarize(insights domain.FareInsightsMap) Summary {
	var s Summary
	byTariff := make(map[string]*TariffUsage)
	usage := func(in domain.FareInsight) *TariffUsage {
		u, ok := byTariff[in.TariffName]
		if !ok {
			u = &TariffUsage{Name: in.TariffName, Code: in.TariffCode}
			byTariff[in.TariffName] = u
		}
		return u
	}

	for _, in := range insights {
		switch in.Usage {
		case domain.UsageWalletRecharge:
			s.WalletRecharges++
		case domain.UsageTitleRecharge:
			s.TitleRecharges++
			usage(in).Purchases++
		case domain.UsageRide:
			s.Rides++
			if in.UnderPass() {
				s.RidesUnderPass++
			}
			u := usage(in)
			u.Rides++
			u.Savings = u.Savings.Add(in.SavingsAmount())
		}
		s.Savings = s.Savings.Add(in.SavingsAmount())
	}

	for _, u := range byTariff {
		s.Tariffs = append(s.Tariffs, *u)
	}
	sort.Slice(s.Tariffs, func(i, j int) bool { return s.Tariffs[i].Name < s.Tariffs[j].Name })
	return s
}
