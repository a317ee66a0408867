package notionsync

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/barik-insights/internal/domain"
)

// Property names of the summary database.
const (
	PropKey           = "Period"
	PropKind          = "Kind"
	PropYear          = "Year"
	PropStart         = "Start"
	PropRides         = "Rides"
	PropSpent         = "Spent"
	PropSavings       = "Savings"
	PropMinutes       = "Travel minutes"
	PropActiveDays    = "Active days"
	PropRecharges     = "Wallet recharges"
	PropPassPurchases = "Pass purchases"
	PropTopOperator   = "Top operator"
	PropRecap         = "Recap"
)

// Row kinds.
const (
	KindYear  = "year"
	KindMonth = "month"
)

// maxRichText is the Notion limit for one rich text content block.
const maxRichText = 2000

// Row is one page of the summary database.
type Row struct {
	Key         string
	Kind        string
	Year        int
	Start       time.Time
	Stats       domain.JourneyStats
	ActiveDays  int
	TopOperator string
	Recap       string
}

// SummaryRows flattens an annual summary into a year row followed by one row
// per month with activity.
func SummaryRows(s domain.AnnualSummary, recap string) []Row {
	rows := []Row{{
		Key:         strconv.Itoa(s.Year),
		Kind:        KindYear,
		Year:        s.Year,
		Start:       time.Date(s.Year, time.January, 1, 0, 0, 0, 0, time.UTC),
		Stats:       s.Totals,
		ActiveDays:  s.ActiveDays,
		TopOperator: topOperator(s),
		Recap:       recap,
	}}

	for _, m := range s.Months {
		if m.Stats.IsZero() {
			continue
		}
		rows = append(rows, Row{
			Key:         fmt.Sprintf("%d-%02d", s.Year, int(m.Month)),
			Kind:        KindMonth,
			Year:        s.Year,
			Start:       time.Date(s.Year, m.Month, 1, 0, 0, 0, 0, time.UTC),
			Stats:       m.Stats,
			ActiveDays:  m.ActiveDays,
			TopOperator: dominant(m.Operators),
		})
	}
	return rows
}

// RowToNotionProperties converts a Row to Notion page properties.
func RowToNotionProperties(r Row) notionapi.Properties {
	start := notionapi.Date(r.Start)
	props := notionapi.Properties{
		PropKey: notionapi.TitleProperty{
			Title: []notionapi.RichText{text(r.Key)},
		},
		PropKind: notionapi.SelectProperty{
			Select: notionapi.Option{Name: r.Kind},
		},
		PropYear: notionapi.NumberProperty{Number: float64(r.Year)},
		PropStart: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &start},
		},
		PropRides:         notionapi.NumberProperty{Number: float64(r.Stats.Rides)},
		PropSpent:         notionapi.NumberProperty{Number: r.Stats.Spent.InexactFloat64()},
		PropSavings:       notionapi.NumberProperty{Number: r.Stats.Savings.InexactFloat64()},
		PropMinutes:       notionapi.NumberProperty{Number: float64(r.Stats.TravelMinutes)},
		PropActiveDays:    notionapi.NumberProperty{Number: float64(r.ActiveDays)},
		PropRecharges:     notionapi.NumberProperty{Number: float64(r.Stats.WalletRecharges)},
		PropPassPurchases: notionapi.NumberProperty{Number: float64(r.Stats.TitlePurchases)},
	}

	if r.TopOperator != "" {
		props[PropTopOperator] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: r.TopOperator},
		}
	}
	if r.Recap != "" {
		props[PropRecap] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{text(truncate(r.Recap, maxRichText))},
		}
	}
	return props
}

// extractKey reads the Period title of a page, or "".
func extractKey(page notionapi.Page) string {
	if prop, ok := page.Properties[PropKey]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok && len(title.Title) > 0 {
			return title.Title[0].PlainText
		}
	}
	return ""
}

func text(s string) notionapi.RichText {
	return notionapi.RichText{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func topOperator(s domain.AnnualSummary) string {
	if len(s.TopOperators) == 0 {
		return ""
	}
	return s.TopOperators[0].Name
}

// dominant returns the most frequent key; ties go to the smallest name.
func dominant(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestN := "", 0
	for _, k := range keys {
		if counts[k] > bestN {
			best, bestN = k, counts[k]
		}
	}
	return best
}
