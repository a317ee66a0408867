package annual

import (
	"sort"

	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/transit"
)

// metroSummary reconstructs the path of every paired trip whose both ends
// resolve to stations, and counts entries, exits and pass-throughs.
func metroSummary(js []domain.JourneyBlock, network *transit.Network) domain.MetroSummary {
	out := domain.MetroSummary{
		Stations: []domain.MetroStationUsage{},
		Trips:    []domain.MetroTrip{},
	}
	usage := make(map[string]*domain.MetroStationUsage)
	touch := func(code string) *domain.MetroStationUsage {
		u, ok := usage[code]
		if !ok {
			st, _ := network.Graph.Station(code)
			u = &domain.MetroStationUsage{Code: code, Name: st.Name, Line: st.Line}
			usage[code] = u
		}
		return u
	}

	for _, j := range js {
		if j.Kind != domain.JourneyTrip || j.End == nil {
			continue
		}
		from, ok := network.Stations.ResolveFor(j.Start.Operator, j.Start.Equipment)
		if !ok {
			continue
		}
		to, ok := network.Stations.ResolveFor(j.End.Operator, j.End.Equipment)
		if !ok {
			continue
		}

		path := network.Graph.FindPath(from.Code, to.Code)
		touch(from.Code).Entries++
		touch(to.Code).Exits++
		for i := 1; i < len(path)-1; i++ {
			touch(path[i]).PassThrough++
		}

		out.Trips = append(out.Trips, domain.MetroTrip{
			JourneyID:       j.ID,
			From:            from.Code,
			To:              to.Code,
			Path:            path,
			Names:           network.Graph.Names(path),
			Start:           j.StartTime(),
			DurationMinutes: j.DurationMinutes,
			Polyline:        network.Graph.Polyline(path),
		})
	}

	sort.SliceStable(out.Trips, func(i, j int) bool {
		return out.Trips[i].Start.Before(out.Trips[j].Start)
	})
	for _, u := range usage {
		out.Stations = append(out.Stations, *u)
	}
	sort.Slice(out.Stations, func(i, j int) bool {
		a, b := out.Stations[i], out.Stations[j]
		ta, tb := a.Entries+a.Exits+a.PassThrough, b.Entries+b.Exits+b.PassThrough
		if ta != tb {
			return ta > tb
		}
		return a.Code < b.Code
	})
	return out
}
