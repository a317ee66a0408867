package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// StationUsage counts validations at one station or stop.
type StationUsage struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	Count       int            `json:"count"`
	Operators   map[string]int `json:"operators"`
	TopOperator string         `json:"topOperator"`
	LineCode    string         `json:"lineCode,omitempty"`
}

// OperatorUsage counts rides per operator.
type OperatorUsage struct {
	Name  string `json:"name"`
	Rides int    `json:"rides"`
}

// DayBucket aggregates one calendar day.
type DayBucket struct {
	Date      civil.Date     `json:"date"`
	Stats     JourneyStats   `json:"stats"`
	Operators map[string]int `json:"operators"`
}

// MonthBucket aggregates one calendar month.
type MonthBucket struct {
	Month      time.Month     `json:"month"`
	Stats      JourneyStats   `json:"stats"`
	ActiveDays int            `json:"activeDays"`
	Operators  map[string]int `json:"operators"`
}

// Streak is a run of consecutive days with at least one ride.
type Streak struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
	Days  int        `json:"days"`
}

// DayHighlight is the day with the most travel time.
type DayHighlight struct {
	Date          civil.Date `json:"date"`
	TravelMinutes int        `json:"travelMinutes"`
	Rides         int        `json:"rides"`
}

// Averages normalises totals by active days and by the calendar span.
type Averages struct {
	RidesPerActiveDay     float64         `json:"ridesPerActiveDay"`
	RidesPerCalendarDay   float64         `json:"ridesPerCalendarDay"`
	SpentPerActiveDay     decimal.Decimal `json:"spentPerActiveDay"`
	SpentPerCalendarDay   decimal.Decimal `json:"spentPerCalendarDay"`
	MinutesPerActiveDay   float64         `json:"minutesPerActiveDay"`
	MinutesPerCalendarDay float64         `json:"minutesPerCalendarDay"`
}

// MetroStationUsage counts metro activity at one station.
type MetroStationUsage struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Line        string `json:"line"`
	Entries     int    `json:"entries"`
	Exits       int    `json:"exits"`
	PassThrough int    `json:"passThrough"`
}

// MetroTrip is a reconstructed metro ride.
type MetroTrip struct {
	JourneyID       string    `json:"journeyId"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	Path            []string  `json:"path"`
	Names           []string  `json:"names"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"durationMinutes"`
	Polyline        string    `json:"polyline"`
}

// MetroSummary is the metro-specific part of an annual summary.
type MetroSummary struct {
	Stations []MetroStationUsage `json:"stations"`
	Trips    []MetroTrip         `json:"trips"`
}

// AnnualSummary is the aggregate for one calendar year.
type AnnualSummary struct {
	Year          int             `json:"year"`
	Records       int             `json:"records"`
	Journeys      int             `json:"journeys"`
	Totals        JourneyStats    `json:"totals"`
	ActiveDays    int             `json:"activeDays"`
	CalendarDays  int             `json:"calendarDays"`
	FirstDate     *civil.Date     `json:"firstDate,omitempty"`
	LastDate      *civil.Date     `json:"lastDate,omitempty"`
	Averages      Averages        `json:"averages"`
	TopStations   []StationUsage  `json:"topStations"`
	TopOperators  []OperatorUsage `json:"topOperators"`
	Months        []MonthBucket   `json:"months"`
	Days          []DayBucket     `json:"days"`
	LongestStreak *Streak         `json:"longestStreak,omitempty"`
	PeakTravelDay *DayHighlight   `json:"peakTravelDay,omitempty"`
	Metro         MetroSummary    `json:"metro"`
}
