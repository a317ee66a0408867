// Package extractor turns the positioned text fragments of a Barik statement
// page into transaction records.
package extractor

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/money"
	"github.com/dvloznov/barik-insights/internal/textnorm"
)

const (
	// DefaultColumnGap separates a column's end from the next column's start.
	DefaultColumnGap = 2.0
	// DefaultColumnWidth is used when the next column header is missing.
	DefaultColumnWidth = 60.0
)

var headerMarkers = []string{"FECHA", "OPERADOR", "IMPORTE"}

var columnPatterns = [numColumns]*regexp.Regexp{
	ColCont:        regexp.MustCompile(`^(CONT|Nº|N°|NUM|NO\.?$)`),
	ColFecha:       regexp.MustCompile(`FECHA`),
	ColTransaction: regexp.MustCompile(`TRANSAC|OPERACION|TIPO`),
	ColOperator:    regexp.MustCompile(`OPERADOR`),
	ColEquipment:   regexp.MustCompile(`EQUIPO|ESTACION|PARADA`),
	ColAmount:      regexp.MustCompile(`IMPORTE`),
	ColBalance:     regexp.MustCompile(`SALDO`),
	ColTitle:       regexp.MustCompile(`TITULO`),
	ColProfile:     regexp.MustCompile(`PERFIL`),
	ColStage:       regexp.MustCompile(`ETAPA`),
}

var (
	contPattern   = regexp.MustCompile(`^\d+$`)
	datePattern   = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`)
	timePattern   = regexp.MustCompile(`(\d{2}):(\d{2})(?::(\d{2}))?`)
	digitPattern  = regexp.MustCompile(`\d`)
	footerPattern = regexp.MustCompile(`^(PAGINA|PAG\.|TOTAL)`)
)

// Extractor converts pages into records. The zero value is not usable; use New.
type Extractor struct {
	join  JoinStrategy
	gap   float64
	width float64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithJoinStrategy replaces the fragment join heuristic.
func WithJoinStrategy(s JoinStrategy) Option {
	return func(e *Extractor) { e.join = s }
}

// WithColumnGap sets the gap between adjacent column boundaries.
func WithColumnGap(gap float64) Option {
	return func(e *Extractor) { e.gap = gap }
}

// WithDefaultWidth sets the fallback column width.
func WithDefaultWidth(width float64) Option {
	return func(e *Extractor) { e.width = width }
}

// New creates an Extractor with the default join heuristic.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		join:  DefaultJoin{},
		gap:   DefaultColumnGap,
		width: DefaultColumnWidth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractPage runs a default Extractor over one page.
func ExtractPage(page Page) ([]domain.TransactionRecord, PageStats) {
	return New().ExtractPage(page)
}

// Extract runs a default Extractor over a document.
func Extract(pages []Page) ([]domain.TransactionRecord, ExtractStats) {
	return New().Extract(pages)
}

// Extract processes every page in order and drops records whose identity key
// was already produced by an earlier page.
func (e *Extractor) Extract(pages []Page) ([]domain.TransactionRecord, ExtractStats) {
	stats := ExtractStats{Pages: len(pages)}
	seen := make(map[string]bool)
	var out []domain.TransactionRecord

	for _, p := range pages {
		records, ps := e.ExtractPage(p)
		if !ps.HeaderFound {
			stats.PagesWithoutHeader++
		}
		stats.DroppedRows += ps.DroppedRows
		stats.SkippedLines += ps.SkippedLines
		for _, r := range records {
			key := r.Key()
			if seen[key] {
				stats.Duplicates++
				continue
			}
			seen[key] = true
			out = append(out, r)
		}
	}
	stats.Records = len(out)
	return out, stats
}

type line struct {
	y         float64
	fragments []Fragment
}

func (l line) text() string {
	parts := make([]string, 0, len(l.fragments))
	for _, f := range l.fragments {
		parts = append(parts, f.Text)
	}
	return strings.Join(parts, " ")
}

type row struct {
	cells [numColumns]string
}

// ExtractPage returns the records of a page in order of appearance. A page
// without a recognizable header yields no records.
func (e *Extractor) ExtractPage(page Page) ([]domain.TransactionRecord, PageStats) {
	stats := PageStats{Page: page.Number}
	lines := groupLines(page.Fragments)

	headerIdx := -1
	for i, l := range lines {
		if isHeader(l) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, stats
	}
	stats.HeaderFound = true
	bounds := e.Boundaries(lines[headerIdx].fragments)

	var (
		rows    []*row
		current *row
	)
	leadingHeader := true
	for _, l := range lines[headerIdx+1:] {
		text := l.text()
		if leadingHeader && !digitPattern.MatchString(text) {
			stats.SkippedLines++
			continue
		}
		leadingHeader = false

		if isHeader(l) || footerPattern.MatchString(textnorm.Key(text)) {
			stats.SkippedLines++
			continue
		}

		cells := e.bucket(l.fragments, bounds)
		if contPattern.MatchString(strings.TrimSpace(cells[ColCont])) {
			current = &row{}
			current.cells[ColCont] = strings.TrimSpace(cells[ColCont])
			rows = append(rows, current)
		} else if current == nil {
			stats.SkippedLines++
			continue
		}
		for c := Column(0); c < numColumns; c++ {
			// cont is fixed when the row starts
			if c != ColCont && cells[c] != "" {
				current.cells[c] = e.join.Join(current.cells[c], cells[c])
			}
		}
	}

	records := make([]domain.TransactionRecord, 0, len(rows))
	for _, r := range rows {
		rec, ok := normalizeRow(r, page.Number)
		if !ok {
			stats.DroppedRows++
			continue
		}
		records = append(records, rec)
	}
	stats.Records = len(records)
	return records, stats
}

// Boundaries derives the column extents from the header fragments. Columns are
// expected in statement order; the first column starts at the left edge and the
// last one is unbounded.
func (e *Extractor) Boundaries(header []Fragment) []Boundary {
	bounds := make([]Boundary, numColumns)
	for c := Column(0); c < numColumns; c++ {
		bounds[c].Column = c
	}
	for _, f := range header {
		key := textnorm.Key(f.Text)
		for c := Column(0); c < numColumns; c++ {
			if !bounds[c].Detected && columnPatterns[c].MatchString(key) {
				bounds[c].Start = f.X
				bounds[c].Detected = true
				break
			}
		}
	}

	for c := Column(0); c < numColumns; c++ {
		switch {
		case c == 0:
			bounds[c].Start = 0
		case !bounds[c].Detected:
			bounds[c].Start = bounds[c-1].Start + e.width
		}
	}
	for c := Column(0); c < numColumns; c++ {
		switch {
		case c == numColumns-1:
			bounds[c].End = math.Inf(1)
		case bounds[c+1].Detected:
			bounds[c].End = bounds[c+1].Start - e.gap
		default:
			bounds[c].End = bounds[c].Start + e.width
		}
	}
	return bounds
}

func (e *Extractor) bucket(fragments []Fragment, bounds []Boundary) [numColumns]string {
	var cells [numColumns]string
	for _, f := range fragments {
		col := ColStage
		for _, b := range bounds {
			if b.contains(f.X) {
				col = b.Column
				break
			}
		}
		cells[col] = e.join.Join(cells[col], f.Text)
	}
	return cells
}

func groupLines(fragments []Fragment) []line {
	byY := make(map[float64]*line)
	for _, f := range fragments {
		f.Text = strings.TrimSpace(f.Text)
		if f.Text == "" {
			continue
		}
		y := math.Round(f.Y)
		l, ok := byY[y]
		if !ok {
			l = &line{y: y}
			byY[y] = l
		}
		l.fragments = append(l.fragments, f)
	}

	lines := make([]line, 0, len(byY))
	for _, l := range byY {
		sort.SliceStable(l.fragments, func(i, j int) bool {
			return l.fragments[i].X < l.fragments[j].X
		})
		lines = append(lines, *l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].y > lines[j].y })
	return lines
}

func isHeader(l line) bool {
	key := textnorm.Key(l.text())
	for _, m := range headerMarkers {
		if !strings.Contains(key, m) {
			return false
		}
	}
	return true
}

func normalizeRow(r *row, page int) (domain.TransactionRecord, bool) {
	cont, err := strconv.Atoi(strings.TrimSpace(r.cells[ColCont]))
	if err != nil {
		return domain.TransactionRecord{}, false
	}

	fecha := textnorm.CollapseSpaces(r.cells[ColFecha])
	date, hora, ts := parseDateTime(fecha)
	amount, _ := money.Parse(r.cells[ColAmount])
	balance, _ := money.Parse(r.cells[ColBalance])

	return domain.TransactionRecord{
		Cont:        cont,
		Fecha:       date,
		Hora:        hora,
		Timestamp:   ts,
		Transaction: textnorm.CollapseSpaces(r.cells[ColTransaction]),
		Operator:    textnorm.CollapseSpaces(r.cells[ColOperator]),
		Equipment:   textnorm.CollapseSpaces(r.cells[ColEquipment]),
		Amount:      amount,
		Balance:     balance,
		Title:       textnorm.CollapseSpaces(r.cells[ColTitle]),
		Profile:     textnorm.CollapseSpaces(r.cells[ColProfile]),
		Stage:       textnorm.CollapseSpaces(r.cells[ColStage]),
		Page:        page,
	}, true
}

// parseDateTime returns the DD/MM/YYYY date, the time of day and the combined
// timestamp. Missing seconds default to zero, a missing time to midnight, and
// an invalid date leaves the timestamp zero.
func parseDateTime(raw string) (string, string, time.Time) {
	dm := datePattern.FindStringSubmatch(raw)
	if dm == nil {
		return "", "", time.Time{}
	}
	date := dm[0]

	rest := strings.Replace(raw, date, " ", 1)
	hour, minute, second := 0, 0, 0
	hora := ""
	if tm := timePattern.FindStringSubmatch(rest); tm != nil {
		hour, _ = strconv.Atoi(tm[1])
		minute, _ = strconv.Atoi(tm[2])
		if tm[3] != "" {
			second, _ = strconv.Atoi(tm[3])
		}
		hora = tm[0]
		if tm[3] == "" {
			hora += ":00"
		}
	}

	day, _ := strconv.Atoi(dm[1])
	month, _ := strconv.Atoi(dm[2])
	year, _ := strconv.Atoi(dm[3])
	if hour > 23 || minute > 59 || second > 59 {
		return date, hora, time.Time{}
	}
	ts := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if ts.Day() != day || int(ts.Month()) != month || ts.Year() != year {
		return date, hora, time.Time{}
	}
	return date, hora, ts
}
