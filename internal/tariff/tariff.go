// Package tariff holds the catalog of Barik fare products and resolves the
// free-text title printed on statements to one of them.
package tariff

import (
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/refdata"
	"github.com/dvloznov/barik-insights/internal/textnorm"
)

const (
	CategoryPurse   = "MONEDERO"
	CategoryMonthly = "MENSUAL"
	CategoryAnnual  = "ANUAL"

	// PassValidityDays is the validity window of every pass product.
	PassValidityDays = 30
)

// Definition is a catalog entry.
type Definition struct {
	Code      string
	Name      string
	Key       string
	Category  string
	TripLimit int
	Kind      domain.TariffKind
	// Rates is keyed by "zone:type".
	Rates map[string]decimal.Decimal
}

// BaseFare is the lowest rate in the table, or zero.
func (d Definition) BaseFare() decimal.Decimal {
	var base decimal.Decimal
	first := true
	for _, r := range d.Rates {
		if first || r.LessThan(base) {
			base = r
			first = false
		}
	}
	return base
}

// ValidityDays is the pass validity window, zero for the purse.
func (d Definition) ValidityDays() int {
	if d.Kind.IsPass() {
		return PassValidityDays
	}
	return 0
}

// IsWallet reports whether the tariff is paid from the purse.
func (d Definition) IsWallet() bool {
	return d.Kind == domain.TariffWallet
}

// InferKind derives the tariff behaviour from its category and trip limit.
func InferKind(category string, tripLimit int) domain.TariffKind {
	category = textnorm.Key(category)
	switch {
	case category == CategoryPurse:
		return domain.TariffWallet
	case tripLimit > 0:
		return domain.TariffLimitedPass
	case strings.Contains(category, CategoryMonthly), strings.Contains(category, CategoryAnnual):
		return domain.TariffUnlimitedPass
	default:
		return domain.TariffWallet
	}
}

// Catalog resolves titles to definitions. It is immutable after construction.
type Catalog struct {
	defs        []Definition
	byKey       map[string]int
	byCompact   map[string]int
	aliases     map[string]string
	aliasTokens []string
	fallback    Definition
}

// NewCatalog builds a catalog from raw definitions.
func NewCatalog(f refdata.TariffFile) *Catalog {
	c := &Catalog{
		byKey:     make(map[string]int),
		byCompact: make(map[string]int),
		aliases:   make(map[string]string),
	}
	for _, t := range f.Tariffs {
		def := Definition{
			Code:      t.Code,
			Name:      t.Name,
			Key:       textnorm.Key(t.Name),
			Category:  textnorm.Key(t.Category),
			TripLimit: t.TripLimit,
			Kind:      InferKind(t.Category, t.TripLimit),
			Rates:     make(map[string]decimal.Decimal, len(t.Rates)),
		}
		for _, r := range t.Rates {
			amount, err := decimal.NewFromString(r.Amount)
			if err != nil {
				continue
			}
			def.Rates[textnorm.Key(r.Zone)+":"+textnorm.Key(r.Type)] = amount
		}
		if _, dup := c.byKey[def.Key]; dup {
			continue
		}
		c.byKey[def.Key] = len(c.defs)
		c.byCompact[strings.ReplaceAll(def.Key, " ", "")] = len(c.defs)
		c.defs = append(c.defs, def)
	}

	for alias, target := range f.Aliases {
		a := textnorm.Key(alias)
		c.aliases[a] = textnorm.Key(target)
		if isWord(a) {
			c.aliasTokens = append(c.aliasTokens, a)
		}
	}
	sort.Strings(c.aliasTokens)

	walletKey := textnorm.Key(f.DefaultWallet)
	if i, ok := c.byKey[walletKey]; ok {
		c.fallback = c.defs[i]
	} else {
		c.fallback = Definition{
			Name:     f.DefaultWallet,
			Key:      walletKey,
			Category: CategoryPurse,
			Kind:     domain.TariffWallet,
			Rates:    map[string]decimal.Decimal{},
		}
	}
	return c
}

// Default returns the catalog built from the embedded reference data.
func Default() *Catalog {
	return NewCatalog(refdata.Default().Tariffs)
}

// DefaultWallet is the fallback purse tariff.
func (c *Catalog) DefaultWallet() Definition {
	return c.fallback
}

// All lists the definitions in catalog order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Lookup resolves a title label. It never fails: unknown titles resolve to
// the default wallet.
func (c *Catalog) Lookup(title string) Definition {
	key := textnorm.Key(title)
	if def, ok := c.find(key); ok {
		return def
	}

	if stripped := c.stripAliasTokens(key); stripped != key && stripped != "" {
		if def, ok := c.find(stripped); ok {
			return def
		}
	}

	if i, ok := c.byCompact[strings.ReplaceAll(key, " ", "")]; ok {
		return c.defs[i]
	}
	return c.fallback
}

func (c *Catalog) find(key string) (Definition, bool) {
	if i, ok := c.byKey[key]; ok {
		return c.defs[i], true
	}
	if target, ok := c.aliases[key]; ok {
		if i, ok := c.byKey[target]; ok {
			return c.defs[i], true
		}
		if target == c.fallback.Key {
			return c.fallback, true
		}
	}
	return Definition{}, false
}

func (c *Catalog) stripAliasTokens(key string) string {
	fields := strings.Fields(key)
	kept := fields[:0]
	for _, f := range fields {
		drop := false
		for _, a := range c.aliasTokens {
			if f == a {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
