// Package journeys pairs validation records into journeys and reduces
// journeys into statistics.
package journeys

import (
	"math"
	"sort"

	"github.com/dvloznov/barik-insights/internal/domain"
)

// Build reconstructs journeys from records. Pairing runs in ascending time
// with a single pending-entry slot; the result is sorted most recent first.
// Every record ends up in exactly one journey.
func Build(records []domain.TransactionRecord) []domain.JourneyBlock {
	var (
		out     []domain.JourneyBlock
		pending *domain.TransactionRecord
	)
	orphan := func(r domain.TransactionRecord, reason domain.AnomalyReason) {
		out = append(out, single(r, reason))
	}

	for _, r := range domain.SortChronological(records) {
		switch r.Kind() {
		case domain.TxRecharge:
			out = append(out, block(domain.JourneyRecharge, r))
		case domain.TxSingle:
			out = append(out, single(r, domain.ReasonNone))
		case domain.TxEntry:
			if pending != nil {
				orphan(*pending, domain.ReasonEntryWithoutExit)
			}
			pending = &r
		case domain.TxExit:
			if pending == nil {
				orphan(r, domain.ReasonExitWithoutEntry)
				continue
			}
			entry := *pending
			pending = nil
			delta := r.Timestamp.Sub(entry.Timestamp)
			switch {
			case delta < 0:
				orphan(entry, domain.ReasonClockDisorder)
				orphan(r, domain.ReasonClockDisorder)
			case delta > domain.MaxTripDuration:
				orphan(entry, domain.ReasonExceedsWindow)
				orphan(r, domain.ReasonExceedsWindow)
			default:
				out = append(out, trip(entry, r))
			}
		default:
			out = append(out, block(domain.JourneyOther, r))
		}
	}
	if pending != nil {
		orphan(*pending, domain.ReasonEntryWithoutExit)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime().After(out[j].StartTime())
	})
	return out
}

func block(kind domain.JourneyKind, r domain.TransactionRecord) domain.JourneyBlock {
	return domain.JourneyBlock{
		ID:      r.Key(),
		Kind:    kind,
		Start:   r,
		Records: []domain.TransactionRecord{r},
	}
}

func single(r domain.TransactionRecord, reason domain.AnomalyReason) domain.JourneyBlock {
	b := block(domain.JourneySingle, r)
	b.Reason = reason
	return b
}

func trip(entry, exit domain.TransactionRecord) domain.JourneyBlock {
	end := exit
	return domain.JourneyBlock{
		ID:              entry.Key(),
		Kind:            domain.JourneyTrip,
		Start:           entry,
		End:             &end,
		DurationMinutes: DurationMinutes(entry, exit),
		Records:         []domain.TransactionRecord{entry, exit},
	}
}

// DurationMinutes rounds the entry to exit gap to whole minutes, minimum one.
func DurationMinutes(entry, exit domain.TransactionRecord) int {
	minutes := int(math.Round(exit.Timestamp.Sub(entry.Timestamp).Minutes()))
	if minutes < 1 {
		return 1
	}
	return minutes
}
