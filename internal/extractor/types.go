package extractor

// Fragment is a run of text at a position on the page. Y grows upwards, as
// in PDF user space.
type Fragment struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Page is the ordered list of fragments of one PDF page. Number is 1-based.
type Page struct {
	Number    int        `json:"number"`
	Fragments []Fragment `json:"fragments"`
}

// PageStats reports what happened to a page.
type PageStats struct {
	Page         int  `json:"page"`
	HeaderFound  bool `json:"headerFound"`
	Records      int  `json:"records"`
	DroppedRows  int  `json:"droppedRows"`
	SkippedLines int  `json:"skippedLines"`
}

// ExtractStats aggregates PageStats over a document.
type ExtractStats struct {
	Pages              int `json:"pages"`
	PagesWithoutHeader int `json:"pagesWithoutHeader"`
	Records            int `json:"records"`
	DroppedRows        int `json:"droppedRows"`
	SkippedLines       int `json:"skippedLines"`
	Duplicates         int `json:"duplicates"`
}

// Column identifies one of the statement table columns.
type Column int

const (
	ColCont Column = iota
	ColFecha
	ColTransaction
	ColOperator
	ColEquipment
	ColAmount
	ColBalance
	ColTitle
	ColProfile
	ColStage
	numColumns
)

var columnNames = [numColumns]string{
	"cont", "fecha", "transaction", "operator", "equipment",
	"amount", "balance", "title", "profile", "stage",
}

func (c Column) String() string {
	if c < 0 || c >= numColumns {
		return "unknown"
	}
	return columnNames[c]
}

// Boundary is the horizontal extent [Start, End) of a column.
type Boundary struct {
	Column   Column
	Start    float64
	End      float64
	Detected bool
}

func (b Boundary) contains(x float64) bool {
	return x >= b.Start && x < b.End
}
