package annual

import (
	"sort"
	"strings"

	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/textnorm"
	"github.com/dvloznov/barik-insights/internal/transit"
)

const busOperator = "BIZKAIBUS"

func topStations(records []domain.TransactionRecord, network *transit.Network, n int) []domain.StationUsage {
	byKey := make(map[string]*domain.StationUsage)
	var order []string

	for _, r := range records {
		if r.Kind() == domain.TxRecharge {
			continue
		}
		key := textnorm.Key(r.Equipment)
		if key == "" {
			continue
		}
		u, ok := byKey[key]
		if !ok {
			u = &domain.StationUsage{Key: key, Name: r.Equipment, Operators: map[string]int{}}
			byKey[key] = u
			order = append(order, key)
		}
		u.Count++
		if op := textnorm.CollapseSpaces(r.Operator); op != "" {
			u.Operators[op]++
			if u.LineCode == "" && strings.Contains(textnorm.Key(op), busOperator) {
				if code, ok := network.BusLines.Match(r.Equipment); ok {
					u.LineCode = code
				}
			}
		}
	}

	out := make([]domain.StationUsage, 0, len(order))
	for _, key := range order {
		u := byKey[key]
		u.TopOperator = dominant(u.Operators)
		out = append(out, *u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func topOperators(js []domain.JourneyBlock, n int) []domain.OperatorUsage {
	counts := make(map[string]int)
	for _, j := range js {
		if !isRide(j) {
			continue
		}
		counts[operatorOf(j)]++
	}
	out := make([]domain.OperatorUsage, 0, len(counts))
	for name, rides := range counts {
		out = append(out, domain.OperatorUsage{Name: name, Rides: rides})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rides != out[j].Rides {
			return out[i].Rides > out[j].Rides
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// dominant returns the most used key, ties broken alphabetically.
func dominant(counts map[string]int) string {
	best, bestN := "", 0
	for k, n := range counts {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	return best
}

func isRide(j domain.JourneyBlock) bool {
	return j.Kind == domain.JourneyTrip || j.Kind == domain.JourneySingle
}

func operatorOf(j domain.JourneyBlock) string {
	if op := textnorm.CollapseSpaces(j.Start.Operator); op != "" {
		return op
	}
	if j.End != nil {
		if op := textnorm.CollapseSpaces(j.End.Operator); op != "" {
			return op
		}
	}
	return "Desconocido"
}
