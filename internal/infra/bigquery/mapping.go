package bigquery

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/journeys"
)

const maxErrorLen = 2000

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func nullTimestamp(r *domain.TransactionRecord) bigquery.NullTimestamp {
	if r == nil || !r.HasTimestamp() {
		return bigquery.NullTimestamp{}
	}
	return bigquery.NullTimestamp{Timestamp: r.Timestamp, Valid: true}
}

func nullDate(d *civil.Date) bigquery.NullDate {
	if d == nil {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: *d, Valid: true}
}

func truncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	return msg
}

// NewRecordRows maps records and their insights to table rows.
func NewRecordRows(runID string, records []domain.TransactionRecord, insights domain.FareInsightsMap, now time.Time) []*RecordRow {
	rows := make([]*RecordRow, 0, len(records))
	for _, r := range records {
		row := &RecordRow{
			RunID:           runID,
			RecordKey:       r.Key(),
			PageNo:          int64(r.Page),
			Cont:            int64(r.Cont),
			Fecha:           r.Fecha,
			Hora:            r.Hora,
			TransactionText: r.Transaction,
			Operator:        r.Operator,
			Equipment:       r.Equipment,
			Title:           r.Title,
			Profile:         r.Profile,
			Stage:           r.Stage,
			Kind:            string(r.Kind()),
			Amount:          r.Amount.Rat(),
			Balance:         r.Balance.Rat(),
			CreatedTS:       now,
		}
		if r.HasTimestamp() {
			row.TxDatetime = bigquery.NullDateTime{DateTime: civil.DateTimeOf(r.Timestamp), Valid: true}
		}
		if in, ok := insights[r.Key()]; ok {
			row.Usage = nullString(string(in.Usage))
			row.TariffCode = nullString(in.TariffCode)
			row.UnderPass = in.UnderPass()
			if in.Savings != nil {
				row.Savings = in.Savings.Rat()
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// NewJourneyRows maps journey blocks to table rows.
func NewJourneyRows(runID string, js []domain.JourneyBlock, insights domain.FareInsightsMap, now time.Time) []*JourneyRow {
	rows := make([]*JourneyRow, 0, len(js))
	for _, j := range js {
		stats := journeys.StatsOf(j, insights)
		keys := make([]string, 0, len(j.Records))
		for _, r := range j.Records {
			keys = append(keys, r.Key())
		}
		row := &JourneyRow{
			RunID:           runID,
			JourneyID:       j.ID,
			Kind:            string(j.Kind),
			Reason:          nullString(string(j.Reason)),
			StartTS:         nullTimestamp(&j.Start),
			EndTS:           nullTimestamp(j.End),
			DurationMinutes: int64(j.DurationMinutes),
			Operator:        j.Start.Operator,
			FromEquipment:   j.Start.Equipment,
			Rides:           int64(stats.Rides),
			Spent:           stats.Spent.Rat(),
			Savings:         stats.Savings.Rat(),
			RecordKeys:      keys,
			CreatedTS:       now,
		}
		if j.End != nil {
			row.ToEquipment = nullString(j.End.Equipment)
		}
		rows = append(rows, row)
	}
	return rows
}

// NewSummaryRow maps an annual summary to its row.
func NewSummaryRow(runID string, s domain.AnnualSummary, now time.Time) (*SummaryRow, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("NewSummaryRow: encoding payload: %w", err)
	}
	return &SummaryRow{
		RunID:           runID,
		Year:            int64(s.Year),
		Records:         int64(s.Records),
		Journeys:        int64(s.Journeys),
		Rides:           int64(s.Totals.Rides),
		WalletRecharges: int64(s.Totals.WalletRecharges),
		TitlePurchases:  int64(s.Totals.TitlePurchases),
		Spent:           s.Totals.Spent.Rat(),
		Savings:         s.Totals.Savings.Rat(),
		TravelMinutes:   int64(s.Totals.TravelMinutes),
		ActiveDays:      int64(s.ActiveDays),
		FirstDate:       nullDate(s.FirstDate),
		LastDate:        nullDate(s.LastDate),
		Payload:         bigquery.NullJSON{JSONVal: string(payload), Valid: true},
		CreatedTS:       now,
	}, nil
}

// Summary decodes the stored payload.
func (r *SummaryRow) Summary() (domain.AnnualSummary, error) {
	var s domain.AnnualSummary
	if !r.Payload.Valid {
		return s, fmt.Errorf("Summary: run %s year %d has no payload", r.RunID, r.Year)
	}
	if err := json.Unmarshal([]byte(r.Payload.JSONVal), &s); err != nil {
		return s, fmt.Errorf("Summary: decoding payload: %w", err)
	}
	return s, nil
}
