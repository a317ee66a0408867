package transit

import (
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dvloznov/barik-insights/internal/refdata"
	"github.com/dvloznov/barik-insights/internal/textnorm"
)

const (
	scoreCodeToken     = 10
	scoreCodeSubstring = 5
	scoreDescToken     = 2
	minLineScore       = 2
)

type busLine struct {
	code       string
	descTokens map[string]bool
}

type lineMatch struct {
	code string
	ok   bool
}

// LineMatcher guesses the bus line serving a stop label by scoring label
// tokens against the line catalog. Results, including misses, are memoized
// until the catalog is replaced.
type LineMatcher struct {
	mu      sync.RWMutex
	lines   []busLine
	ignored map[string]bool
	cache   *gocache.Cache
}

// NewLineMatcher creates a matcher over a catalog.
func NewLineMatcher(catalog refdata.BusLineFile) *LineMatcher {
	m := &LineMatcher{cache: gocache.New(gocache.NoExpiration, 0)}
	m.load(catalog)
	return m
}

// Reset replaces the catalog and drops every memoized result.
func (m *LineMatcher) Reset(catalog refdata.BusLineFile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.load(catalog)
	m.cache.Flush()
}

func (m *LineMatcher) load(catalog refdata.BusLineFile) {
	m.ignored = make(map[string]bool, len(catalog.IgnoredTokens))
	for _, t := range catalog.IgnoredTokens {
		m.ignored[textnorm.Key(t)] = true
	}
	m.lines = m.lines[:0]
	for _, l := range catalog.Lines {
		bl := busLine{code: textnorm.Key(l.Code), descTokens: make(map[string]bool)}
		for _, t := range textnorm.Tokens(l.Description) {
			if !m.ignored[t] {
				bl.descTokens[t] = true
			}
		}
		m.lines = append(m.lines, bl)
	}
}

// CachedEntries reports how many labels are memoized.
func (m *LineMatcher) CachedEntries() int {
	return m.cache.ItemCount()
}

// Match returns the best scoring line code for a stop label.
func (m *LineMatcher) Match(stop string) (string, bool) {
	key := textnorm.Key(stop)
	if key == "" {
		return "", false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if v, found := m.cache.Get(key); found {
		res := v.(lineMatch)
		return res.code, res.ok
	}
	res := m.score(key)
	m.cache.Set(key, res, gocache.NoExpiration)
	return res.code, res.ok
}

func (m *LineMatcher) score(key string) lineMatch {
	var tokens []string
	for _, t := range textnorm.Tokens(key) {
		if !m.ignored[t] {
			tokens = append(tokens, t)
		}
	}

	best, bestScore := "", 0
	for _, l := range m.lines {
		score := 0
		for _, t := range tokens {
			switch {
			case t == l.code:
				score += scoreCodeToken
			case len(t) >= 3 && (strings.Contains(l.code, t) || strings.Contains(t, l.code)):
				score += scoreCodeSubstring
			}
			if l.descTokens[t] {
				score += scoreDescToken
			}
		}
		if score > bestScore {
			best, bestScore = l.code, score
		}
	}
	if bestScore < minLineScore {
		return lineMatch{}
	}
	return lineMatch{code: best, ok: true}
}
