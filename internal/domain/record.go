package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the ISO form used in record keys and JSON output.
const TimestampLayout = "2006-01-02T15:04:05"

// TransactionRecord is one row of a card statement. Timestamps carry the
// statement's wall-clock time in UTC.
type TransactionRecord struct {
	Cont        int             `json:"cont"`
	Fecha       string          `json:"fecha"`
	Hora        string          `json:"hora"`
	Timestamp   time.Time       `json:"timestamp"`
	Transaction string          `json:"transaction"`
	Operator    string          `json:"operator"`
	Equipment   string          `json:"equipment"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"`
	Title       string          `json:"title"`
	Profile     string          `json:"profile"`
	Stage       string          `json:"stage"`
	Page        int             `json:"page"`
}

// Key identifies a record by page, sequence number and timestamp.
func (r TransactionRecord) Key() string {
	ts := ""
	if !r.Timestamp.IsZero() {
		ts = r.Timestamp.Format(TimestampLayout)
	}
	return fmt.Sprintf("%d:%d:%s", r.Page, r.Cont, ts)
}

// HasTimestamp reports whether a date was parsed for the record.
func (r TransactionRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// Kind classifies the record's transaction label.
func (r TransactionRecord) Kind() TxKind {
	return ClassifyTransaction(r.Transaction)
}

// IsMeaningful reports whether the record carries any usable content.
// Header and blank artifacts that survive extraction fail this test.
func (r TransactionRecord) IsMeaningful() bool {
	for _, s := range []string{r.Transaction, r.Operator, r.Equipment, r.Title, r.Fecha} {
		if s != "" {
			return true
		}
	}
	return r.HasTimestamp() || !r.Amount.IsZero() || !r.Balance.IsZero()
}

// SortChronological returns a copy of records ordered by ascending timestamp.
// Ties keep statement order (page, then cont).
func SortChronological(records []TransactionRecord) []TransactionRecord {
	out := make([]TransactionRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		return a.Cont < b.Cont
	})
	return out
}
