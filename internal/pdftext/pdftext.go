// Package pdftext produces positioned text fragments from statement PDFs, or
// loads them from a JSON file written by another extractor.
package pdftext

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"rsc.io/pdf"

	"github.com/dvloznov/barik-insights/internal/extractor"
)

// ErrNoPages is returned when a document has no pages.
var ErrNoPages = errors.New("document has no pages")

// ReadFile opens a PDF on disk and returns its pages.
func ReadFile(path string) ([]extractor.Page, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: opening %s: %w", path, err)
	}
	return pages(r)
}

// Read parses a PDF held in memory or any ReaderAt.
func Read(ra io.ReaderAt, size int64) ([]extractor.Page, error) {
	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("Read: parsing pdf: %w", err)
	}
	return pages(r)
}

// ReadBytes is Read over a byte slice.
func ReadBytes(data []byte) ([]extractor.Page, error) {
	return Read(bytes.NewReader(data), int64(len(data)))
}

func pages(r *pdf.Reader) (out []extractor.Page, err error) {
	// rsc.io/pdf panics on malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("pages: malformed pdf: %v", rec)
		}
	}()

	n := r.NumPage()
	if n == 0 {
		return nil, ErrNoPages
	}
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		out = append(out, extractor.Page{
			Number:    i,
			Fragments: Phrases(p.Content().Text),
		})
	}
	return out, nil
}

// Phrases groups glyphs into fragments. Glyphs on the same baseline are
// merged while the horizontal gap stays under a word space; a wider gap
// starts a new fragment, which is what separates table cells.
func Phrases(chars []pdf.Text) []extractor.Fragment {
	if len(chars) == 0 {
		return nil
	}
	chars = append([]pdf.Text(nil), chars...)

	const nudge = 1
	sort.Sort(pdf.TextVertical(chars))
	old := -100000.0
	for i, c := range chars {
		if c.Y != old && math.Abs(old-c.Y) < nudge {
			chars[i].Y = old
		} else {
			old = c.Y
		}
	}
	sort.Sort(pdf.TextVertical(chars))

	var out []extractor.Fragment
	for i := 0; i < len(chars); {
		j := i + 1
		for j < len(chars) && chars[j].Y == chars[i].Y {
			j++
		}
		for k := i; k < j; {
			ck := chars[k]
			var sb strings.Builder
			sb.WriteString(ck.S)
			end := ck.X + ck.W
			charSpace := ck.FontSize / 6
			wordSpace := ck.FontSize * 2 / 3
			l := k + 1
			for l < j {
				cl := chars[l]
				if cl.X <= end+charSpace {
					sb.WriteString(cl.S)
				} else if cl.X <= end+wordSpace {
					sb.WriteString(" ")
					sb.WriteString(cl.S)
				} else {
					break
				}
				end = cl.X + cl.W
				l++
			}
			if text := strings.TrimSpace(sb.String()); text != "" {
				out = append(out, extractor.Fragment{Text: text, X: ck.X, Y: ck.Y})
			}
			k = l
		}
		i = j
	}
	return out
}

// LoadFragmentsJSON reads pages from a JSON array of
// {"number":1,"fragments":[{"text":"..","x":0,"y":0}]} objects.
func LoadFragmentsJSON(r io.Reader) ([]extractor.Page, error) {
	var pages []extractor.Page
	if err := json.NewDecoder(r).Decode(&pages); err != nil {
		return nil, fmt.Errorf("LoadFragmentsJSON: decoding: %w", err)
	}
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	for i := range pages {
		if pages[i].Number == 0 {
			pages[i].Number = i + 1
		}
	}
	return pages, nil
}

// LoadFragmentsFile is LoadFragmentsJSON over a file.
func LoadFragmentsFile(path string) ([]extractor.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFragmentsFile: opening %s: %w", path, err)
	}
	defer f.Close()
	return LoadFragmentsJSON(f)
}

// Load picks the reader from the content: PDF bytes or a JSON fragments file.
func Load(data []byte) ([]extractor.Page, error) {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("%PDF")) {
		return ReadBytes(data)
	}
	return LoadFragmentsJSON(bytes.NewReader(data))
}
