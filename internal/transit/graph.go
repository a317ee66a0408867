// Package transit models the metro network as an undirected station graph
// and resolves free-text equipment labels to stations and bus lines.
package transit

import (
	"sort"

	"github.com/dvloznov/barik-insights/internal/refdata"
)

// Station is a graph node.
type Station struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Line       string   `json:"line"`
	Operator   string   `json:"operator"`
	Zone       string   `json:"zone"`
	Weight     int      `json:"weight"`
	Connection bool     `json:"connection"`
	Aliases    []string `json:"aliases,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
}

// Graph is the read-only station graph. Neighbour order is fixed at
// construction so path results are stable.
type Graph struct {
	stations map[string]Station
	order    []string
	adj      map[string][]string
	lines    []refdata.Line
	byLine   map[string][]string
}

// NewGraph builds the graph from a layout. Stations are deduplicated by
// (line, code) and ordered by weight within their line. Consecutive stations
// are connected, then the trunk's last station is joined to the first station
// of each merging line, then the pivot and any explicit connectors are added.
func NewGraph(layout refdata.MetroFile) *Graph {
	g := &Graph{
		stations: make(map[string]Station),
		adj:      make(map[string][]string),
		byLine:   make(map[string][]string),
	}

	g.lines = append(g.lines, layout.Lines...)
	sort.SliceStable(g.lines, func(i, j int) bool {
		if g.lines[i].Order != g.lines[j].Order {
			return g.lines[i].Order < g.lines[j].Order
		}
		return g.lines[i].Code < g.lines[j].Code
	})
	operators := make(map[string]string, len(g.lines))
	for _, l := range g.lines {
		operators[l.Code] = l.Operator
	}

	grouped := make(map[string][]refdata.Station)
	seen := make(map[[2]string]bool)
	var lineCodes []string
	for _, s := range layout.Stations {
		k := [2]string{s.Line, s.Code}
		if seen[k] {
			continue
		}
		seen[k] = true
		if _, ok := grouped[s.Line]; !ok {
			lineCodes = append(lineCodes, s.Line)
		}
		grouped[s.Line] = append(grouped[s.Line], s)
	}
	// lines present in the station rows but missing from the line table go last
	for _, code := range lineCodes {
		if _, ok := operators[code]; !ok {
			g.lines = append(g.lines, refdata.Line{Code: code, Order: len(g.lines) + 1})
		}
	}

	for lane, l := range g.lines {
		rows := grouped[l.Code]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Weight < rows[j].Weight })
		for idx, s := range rows {
			st := Station{
				Code:       s.Code,
				Name:       s.Name,
				Line:       s.Line,
				Operator:   l.Operator,
				Zone:       s.Zone,
				Weight:     s.Weight,
				Connection: s.Connection,
				Aliases:    s.Aliases,
				X:          s.X,
				Y:          s.Y,
			}
			if st.X == 0 && st.Y == 0 {
				st.X, st.Y = float64(idx), float64(lane)
			}
			if _, exists := g.stations[st.Code]; !exists {
				g.stations[st.Code] = st
				g.order = append(g.order, st.Code)
			}
			g.byLine[l.Code] = append(g.byLine[l.Code], st.Code)
			if idx > 0 {
				g.addEdge(rows[idx-1].Code, st.Code)
			}
		}
	}

	if trunk := g.byLine[layout.Trunk]; len(trunk) > 0 {
		last := trunk[len(trunk)-1]
		for _, m := range layout.Merging {
			if branch := g.byLine[m]; len(branch) > 0 {
				g.addEdge(last, branch[0])
			}
		}
	}
	if layout.Pivot != nil {
		g.addEdge(layout.Pivot.From, layout.Pivot.To)
	}
	for _, c := range layout.Connectors {
		g.addEdge(c.From, c.To)
	}
	return g
}

func (g *Graph) addEdge(a, b string) {
	if a == b {
		return
	}
	if _, ok := g.stations[a]; !ok {
		return
	}
	if _, ok := g.stations[b]; !ok {
		return
	}
	for _, n := range g.adj[a] {
		if n == b {
			return
		}
	}
	g.adj[a] = append(g.adj[a], b)
	g.adj[b] = append(g.adj[b], a)
}

// Station looks up a node by code.
func (g *Graph) Station(code string) (Station, bool) {
	s, ok := g.stations[code]
	return s, ok
}

// Stations lists all nodes in construction order.
func (g *Graph) Stations() []Station {
	out := make([]Station, 0, len(g.order))
	for _, code := range g.order {
		out = append(out, g.stations[code])
	}
	return out
}

// Lines lists the lines in display order.
func (g *Graph) Lines() []refdata.Line {
	out := make([]refdata.Line, len(g.lines))
	copy(out, g.lines)
	return out
}

// LineStations lists the station codes of a line in order.
func (g *Graph) LineStations(line string) []string {
	return append([]string(nil), g.byLine[line]...)
}

// Neighbors lists adjacent station codes in insertion order.
func (g *Graph) Neighbors(code string) []string {
	return append([]string(nil), g.adj[code]...)
}

// FindPath returns the first shortest path found by breadth-first search.
// Unknown endpoints degrade to a one-element path with the known endpoint, or
// nil when neither is known; unreachable targets yield the start alone.
func (g *Graph) FindPath(from, to string) []string {
	_, fromOK := g.stations[from]
	_, toOK := g.stations[to]
	switch {
	case !fromOK && !toOK:
		return nil
	case !fromOK:
		return []string{to}
	case !toOK, from == to:
		return []string{from}
	}

	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			break
		}
		for _, n := range g.adj[cur] {
			if _, visited := prev[n]; visited {
				continue
			}
			prev[n] = cur
			queue = append(queue, n)
		}
	}
	if _, reached := prev[to]; !reached {
		return []string{from}
	}

	var path []string
	for at := to; at != ""; at = prev[at] {
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
