package transit

import (
	"github.com/twpayne/go-polyline"

	"github.com/dvloznov/barik-insights/internal/refdata"
)

// Network bundles the station graph with the label resolvers built on it.
type Network struct {
	Graph    *Graph
	Stations *Resolver
	BusLines *LineMatcher
}

// NewNetwork builds a Network from reference data.
func NewNetwork(d *refdata.Data) *Network {
	g := NewGraph(d.Metro)
	return &Network{
		Graph:    g,
		Stations: NewResolver(g),
		BusLines: NewLineMatcher(d.BusLines),
	}
}

// DefaultNetwork builds a Network from the embedded reference data.
func DefaultNetwork() *Network {
	return NewNetwork(refdata.Default())
}

// Polyline encodes the layout positions of a station path. Unknown codes are
// skipped.
func (g *Graph) Polyline(path []string) string {
	coords := make([][]float64, 0, len(path))
	for _, code := range path {
		s, ok := g.stations[code]
		if !ok {
			continue
		}
		coords = append(coords, []float64{s.Y, s.X})
	}
	if len(coords) == 0 {
		return ""
	}
	return string(polyline.EncodeCoords(coords))
}

// Names maps station codes to display names, keeping unknown codes as is.
func (g *Graph) Names(path []string) []string {
	out := make([]string, len(path))
	for i, code := range path {
		if s, ok := g.stations[code]; ok {
			out[i] = s.Name
		} else {
			out[i] = code
		}
	}
	return out
}
