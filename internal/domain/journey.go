package domain

import "time"

// JourneyKind is the semantic type of a journey block.
type JourneyKind string

const (
	JourneyTrip     JourneyKind = "viaje"
	JourneySingle   JourneyKind = "viaje-unico"
	JourneyRecharge JourneyKind = "recarga"
	JourneyOther    JourneyKind = "otros"
)

// AnomalyReason explains why a validation was not paired.
type AnomalyReason string

const (
	ReasonNone             AnomalyReason = ""
	ReasonEntryWithoutExit AnomalyReason = "entry-without-exit"
	ReasonExitWithoutEntry AnomalyReason = "exit-without-entry"
	ReasonClockDisorder    AnomalyReason = "clock-disorder"
	ReasonExceedsWindow    AnomalyReason = "exceeds-window"
)

// MaxTripDuration is the widest entry to exit gap that still forms a trip.
const MaxTripDuration = 10 * time.Hour

// JourneyBlock is one semantic event built from one or more records.
type JourneyBlock struct {
	ID              string              `json:"id"`
	Kind            JourneyKind         `json:"kind"`
	Start           TransactionRecord   `json:"start"`
	End             *TransactionRecord  `json:"end,omitempty"`
	DurationMinutes int                 `json:"durationMinutes,omitempty"`
	Reason          AnomalyReason       `json:"reason,omitempty"`
	Records         []TransactionRecord `json:"records"`
}

// StartTime is the timestamp of the first record.
func (j JourneyBlock) StartTime() time.Time {
	return j.Start.Timestamp
}
