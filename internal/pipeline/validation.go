package pipeline

import (
	"errors"
	"fmt"

	"github.com/dvloznov/barik-insights/internal/domain"
)

// ErrNoRecords is returned when a statement yields no usable record.
var ErrNoRecords = errors.New("statement contains no records")

// RecordReport describes the quality of an extracted statement.
type RecordReport struct {
	Total        int
	Meaningful   int
	Undated      int
	UnknownKinds []string
}

// ValidateRecords counts the usable records and collects the transaction
// labels that match no known kind. It fails with ErrNoRecords when nothing
// usable was extracted.
func ValidateRecords(records []domain.TransactionRecord) (RecordReport, error) {
	report := RecordReport{Total: len(records)}
	seen := make(map[string]bool)

	for _, r := range records {
		if !r.IsMeaningful() {
			continue
		}
		report.Meaningful++
		if !r.HasTimestamp() {
			report.Undated++
		}
		if r.Kind() == domain.TxUnknown && r.Transaction != "" && !seen[r.Transaction] {
			seen[r.Transaction] = true
			report.UnknownKinds = append(report.UnknownKinds, r.Transaction)
		}
	}

	if report.Meaningful == 0 {
		return report, fmt.Errorf("ValidateRecords: %d rows extracted: %w", report.Total, ErrNoRecords)
	}
	return report, nil
}
