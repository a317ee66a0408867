package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
)

// Run statuses.
const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

// RunRow is one processing of a statement.
type RunRow struct {
	RunID          string `bigquery:"run_id"`          // REQUIRED
	Source         string `bigquery:"source"`          // REQUIRED
	SourceFilename string `bigquery:"source_filename"` // NULLABLE

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	Status       string `bigquery:"status"`
	ErrorMessage string `bigquery:"error_message"`

	Pages       bigquery.NullInt64 `bigquery:"pages"`
	Records     bigquery.NullInt64 `bigquery:"records"`
	DroppedRows bigquery.NullInt64 `bigquery:"dropped_rows"`
	Duplicates  bigquery.NullInt64 `bigquery:"duplicates"`
}

// RunCounts are the extraction counters stored when a run succeeds.
type RunCounts struct {
	Pages       int
	Records     int
	DroppedRows int
	Duplicates  int
}

// RecordRow is one extracted statement row with its fare insight.
type RecordRow struct {
	RunID     string `bigquery:"run_id"`     // REQUIRED
	RecordKey string `bigquery:"record_key"` // REQUIRED

	PageNo int64 `bigquery:"page_no"`
	Cont   int64 `bigquery:"cont"`

	TxDatetime bigquery.NullDateTime `bigquery:"tx_datetime"` // NULLABLE
	Fecha      string                `bigquery:"fecha"`
	Hora       string                `bigquery:"hora"`

	TransactionText string `bigquery:"transaction_text"`
	Operator        string `bigquery:"operator"`
	Equipment       string `bigquery:"equipment"`
	Title           string `bigquery:"title"`
	Profile         string `bigquery:"profile"`
	Stage           string `bigquery:"stage"`
	Kind            string `bigquery:"kind"`

	Amount  *big.Rat `bigquery:"amount"`  // REQUIRED NUMERIC
	Balance *big.Rat `bigquery:"balance"` // REQUIRED NUMERIC

	Usage      bigquery.NullString `bigquery:"usage"`
	TariffCode bigquery.NullString `bigquery:"tariff_code"`
	UnderPass  bool                `bigquery:"under_pass"`
	Savings    *big.Rat            `bigquery:"savings"` // NULLABLE NUMERIC

	CreatedTS time.Time `bigquery:"created_ts"`
}

// JourneyRow is one journey block.
type JourneyRow struct {
	RunID     string `bigquery:"run_id"`     // REQUIRED
	JourneyID string `bigquery:"journey_id"` // REQUIRED

	Kind   string              `bigquery:"kind"`
	Reason bigquery.NullString `bigquery:"reason"`

	StartTS         bigquery.NullTimestamp `bigquery:"start_ts"`
	EndTS           bigquery.NullTimestamp `bigquery:"end_ts"`
	DurationMinutes int64                  `bigquery:"duration_minutes"`

	Operator      string              `bigquery:"operator"`
	FromEquipment string              `bigquery:"from_equipment"`
	ToEquipment   bigquery.NullString `bigquery:"to_equipment"`

	Rides   int64    `bigquery:"rides"`
	Spent   *big.Rat `bigquery:"spent"`
	Savings *big.Rat `bigquery:"savings"`

	RecordKeys []string `bigquery:"record_keys"` // REPEATED STRING

	CreatedTS time.Time `bigquery:"created_ts"`
}

// SummaryRow is one annual summary; the full summary is kept as JSON payload.
type SummaryRow struct {
	RunID string `bigquery:"run_id"` // REQUIRED
	Year  int64  `bigquery:"year"`   // REQUIRED

	Records         int64    `bigquery:"records"`
	Journeys        int64    `bigquery:"journeys"`
	Rides           int64    `bigquery:"rides"`
	WalletRecharges int64    `bigquery:"wallet_recharges"`
	TitlePurchases  int64    `bigquery:"title_purchases"`
	Spent           *big.Rat `bigquery:"spent"`
	Savings         *big.Rat `bigquery:"savings"`
	TravelMinutes   int64    `bigquery:"travel_minutes"`
	ActiveDays      int64    `bigquery:"active_days"`

	FirstDate bigquery.NullDate `bigquery:"first_date"`
	LastDate  bigquery.NullDate `bigquery:"last_date"`

	Payload bigquery.NullJSON `bigquery:"payload"`

	CreatedTS time.Time `bigquery:"created_ts"`
}
