package transit

import (
	"sort"
	"strings"

	"github.com/dvloznov/barik-insights/internal/textnorm"
)

type nameEntry struct {
	key      string
	code     string
	operator string
}

// Resolver maps equipment labels such as "METRO ABANDO 2" to stations.
type Resolver struct {
	graph     *Graph
	entries   []nameEntry
	operators []string
}

// NewResolver indexes station names and aliases of g. Longer names are tried
// first so "SAN INAZIO" wins over a shorter name it contains.
func NewResolver(g *Graph) *Resolver {
	r := &Resolver{graph: g}
	seenOp := make(map[string]bool)
	rank := make(map[string]int)
	for i, code := range g.order {
		rank[code] = i
		s := g.stations[code]
		op := textnorm.Key(s.Operator)
		if op != "" && !seenOp[op] {
			seenOp[op] = true
			r.operators = append(r.operators, op)
		}
		names := append([]string{s.Name}, s.Aliases...)
		for _, n := range names {
			key := strings.Join(textnorm.Tokens(n), " ")
			if key == "" {
				continue
			}
			r.entries = append(r.entries, nameEntry{key: key, code: s.Code, operator: op})
		}
	}
	sort.SliceStable(r.entries, func(i, j int) bool {
		a, b := r.entries[i], r.entries[j]
		if len(a.key) != len(b.key) {
			return len(a.key) > len(b.key)
		}
		return rank[a.code] < rank[b.code]
	})
	return r
}

// Resolve matches a label against every station.
func (r *Resolver) Resolve(label string) (Station, bool) {
	return r.match(label, "")
}

// ResolveFor matches a label against stations run by the given operator.
// An operator that runs no line resolves nothing; an empty one matches all.
func (r *Resolver) ResolveFor(operator, label string) (Station, bool) {
	op := textnorm.Key(operator)
	if op == "" {
		return r.match(label, "")
	}
	for _, known := range r.operators {
		if strings.Contains(op, known) {
			return r.match(label, known)
		}
	}
	return Station{}, false
}

func (r *Resolver) match(label, operator string) (Station, bool) {
	tokens := textnorm.Tokens(label)
	if len(tokens) == 0 {
		return Station{}, false
	}
	padded := " " + strings.Join(tokens, " ") + " "
	for _, e := range r.entries {
		if operator != "" && e.operator != operator {
			continue
		}
		if strings.Contains(padded, " "+e.key+" ") {
			return r.graph.stations[e.code], true
		}
	}
	return Station{}, false
}
