// Package report renders pipeline results as plain text tables for the CLI.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/fares"
)

// Euros renders an amount the way statements print it, with a dot as the
// thousands separator and a comma before the cents.
func Euros(d decimal.Decimal) string {
	return humanize.FormatFloat("#.###,##", d.InexactFloat64()) + " €"
}

// Count renders an integer with dot thousands separators.
func Count(n int) string {
	return humanize.FormatInteger("#.###,", n)
}

// Duration renders a number of minutes as hours and minutes.
func Duration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d h %02d min", minutes/60, minutes%60)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// WriteSummary prints the headline figures, rankings and months of a year.
func WriteSummary(w io.Writer, s domain.AnnualSummary, recap string) error {
	tw := newTable(w)

	fmt.Fprintf(tw, "Year %d\n", s.Year)
	fmt.Fprintf(tw, "  Records\t%s\n", Count(s.Records))
	fmt.Fprintf(tw, "  Journeys\t%s\n", Count(s.Journeys))
	fmt.Fprintf(tw, "  Rides\t%s\n", Count(s.Totals.Rides))
	fmt.Fprintf(tw, "  Spent\t%s\n", Euros(s.Totals.Spent))
	fmt.Fprintf(tw, "  Savings\t%s\n", Euros(s.Totals.Savings))
	fmt.Fprintf(tw, "  Travel time\t%s\n", Duration(s.Totals.TravelMinutes))
	fmt.Fprintf(tw, "  Active days\t%d of %d\n", s.ActiveDays, s.CalendarDays)
	fmt.Fprintf(tw, "  Wallet recharges\t%d\n", s.Totals.WalletRecharges)
	fmt.Fprintf(tw, "  Pass purchases\t%d\n", s.Totals.TitlePurchases)
	if st := s.LongestStreak; st != nil {
		fmt.Fprintf(tw, "  Longest streak\t%d days (%s to %s)\n", st.Days, st.Start, st.End)
	}
	if p := s.PeakTravelDay; p != nil {
		fmt.Fprintf(tw, "  Busiest day\t%s, %s over %d rides\n", p.Date, Duration(p.TravelMinutes), p.Rides)
	}

	if len(s.TopStations) > 0 {
		fmt.Fprintln(tw, "\nTop stations")
		for i, st := range s.TopStations {
			label := st.TopOperator
			if st.LineCode != "" {
				label += " line " + st.LineCode
			}
			fmt.Fprintf(tw, "  %d\t%s\t%d\t%s\n", i+1, st.Name, st.Count, label)
		}
	}

	if len(s.TopOperators) > 0 {
		fmt.Fprintln(tw, "\nTop operators")
		for i, op := range s.TopOperators {
			fmt.Fprintf(tw, "  %d\t%s\t%d rides\n", i+1, op.Name, op.Rides)
		}
	}

	fmt.Fprintln(tw, "\nMonths")
	for _, m := range s.Months {
		if m.Stats.IsZero() {
			continue
		}
		fmt.Fprintf(tw, "  %s\t%d rides\t%s\t%s\t%d days\n",
			m.Month, m.Stats.Rides, Euros(m.Stats.Spent), Duration(m.Stats.TravelMinutes), m.ActiveDays)
	}

	if n := len(s.Metro.Trips); n > 0 {
		fmt.Fprintf(tw, "\nMetro\n  Trips\t%d\n  Stations\t%d\n", n, len(s.Metro.Stations))
	}

	if recap != "" {
		fmt.Fprintf(tw, "\nRecap\n%s\n", recap)
	}
	return tw.Flush()
}

// WriteJourneys prints one line per journey in chronological order.
func WriteJourneys(w io.Writer, js []domain.JourneyBlock, insights domain.FareInsightsMap) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "START\tKIND\tFROM\tTO\tMIN\tOPERATOR\tTARIFF\tNOTE")
	for _, j := range js {
		to := ""
		if j.End != nil {
			to = j.End.Equipment
		}
		minutes := ""
		if j.DurationMinutes > 0 {
			minutes = fmt.Sprint(j.DurationMinutes)
		}
		tariff := ""
		if in, ok := insights[j.Start.Key()]; ok {
			tariff = in.TariffName
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			stamp(j.StartTime()), j.Kind, j.Start.Equipment, to, minutes, j.Start.Operator, tariff, j.Reason)
	}
	return tw.Flush()
}

// WriteRecords prints the extracted statement rows.
func WriteRecords(w io.Writer, records []domain.TransactionRecord) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "PAGE\tCONT\tWHEN\tTRANSACTION\tOPERATOR\tEQUIPMENT\tAMOUNT\tBALANCE\tTITLE")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Page, r.Cont, stamp(r.Timestamp), r.Transaction, r.Operator, r.Equipment,
			Euros(r.Amount), Euros(r.Balance), r.Title)
	}
	return tw.Flush()
}

// WriteInsights prints fare usage per tariff.
func WriteInsights(w io.Writer, s fares.Summary) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Rides\t%d\n", s.Rides)
	fmt.Fprintf(tw, "Rides under a pass\t%d\n", s.RidesUnderPass)
	fmt.Fprintf(tw, "Wallet recharges\t%d\n", s.WalletRecharges)
	fmt.Fprintf(tw, "Pass purchases\t%d\n", s.TitleRecharges)
	fmt.Fprintf(tw, "Savings\t%s\n", Euros(s.Savings))
	if len(s.Tariffs) > 0 {
		fmt.Fprintln(tw, "\nTARIFF\tCODE\tPURCHASES\tRIDES\tSAVINGS")
		for _, t := range s.Tariffs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", t.Name, t.Code, t.Purchases, t.Rides, Euros(t.Savings))
		}
	}
	return tw.Flush()
}

// WritePath prints a metro route.
func WritePath(w io.Writer, names []string) error {
	if len(names) == 0 {
		_, err := fmt.Fprintln(w, "No route")
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n%d stops\n", strings.Join(names, " > "), len(names))
	return err
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
