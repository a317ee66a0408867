// Package fares classifies every statement record as a wallet recharge, a
// title purchase or a ride, tracking the passes bought along the way.
package fares

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/tariff"
)

const pricePrecision = 4

// passState is the mutable tracking record of one active pass.
type passState struct {
	def            tariff.Definition
	total          *int
	remaining      *int
	purchaseAmount decimal.Decimal
	purchasedAt    time.Time
	expiresAt      *time.Time
	purchaseKey    string
	ignoreNext     bool
}

func (p *passState) limited() bool {
	return p.total != nil
}

func (p *passState) expired(at time.Time) bool {
	return p.expiresAt != nil && at.After(*p.expiresAt)
}

func (p *passState) exhausted() bool {
	return p.limited() && *p.remaining <= 0
}

func (p *passState) snapshot() *domain.PassSnapshot {
	s := &domain.PassSnapshot{
		TariffName:     p.def.Name,
		TariffCode:     p.def.Code,
		Kind:           p.def.Kind,
		PurchaseAmount: p.purchaseAmount,
		PurchasedAt:    p.purchasedAt,
		ValidityDays:   p.def.ValidityDays(),
		PurchaseKey:    p.purchaseKey,
	}
	if p.total != nil {
		total, remaining := *p.total, *p.remaining
		s.TotalTrips = &total
		s.RemainingTrips = &remaining
	}
	if p.expiresAt != nil {
		exp := *p.expiresAt
		s.ExpiresAt = &exp
	}
	return s
}

// Engine computes fare insights against a tariff catalog.
type Engine struct {
	catalog *tariff.Catalog
}

// NewEngine creates an Engine.
func NewEngine(catalog *tariff.Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Compute returns one insight per record, keyed by record key. Records are
// processed in ascending time regardless of input order; pass state lives
// only for the duration of the call.
func (e *Engine) Compute(records []domain.TransactionRecord) domain.FareInsightsMap {
	insights := make(domain.FareInsightsMap, len(records))
	for _, in := range e.ComputeOrdered(records) {
		insights[in.RecordKey] = in
	}
	return insights
}

// ComputeOrdered is Compute returning insights in processing order.
func (e *Engine) ComputeOrdered(records []domain.TransactionRecord) []domain.FareInsight {
	passes := make(map[string]*passState)
	out := make([]domain.FareInsight, 0, len(records))

	for _, r := range domain.SortChronological(records) {
		def := e.catalog.Lookup(r.Title)
		kind := r.Kind()

		switch {
		case kind == domain.TxRecharge && def.IsWallet():
			out = append(out, baseInsight(r, domain.UsageWalletRecharge, def))
		case kind == domain.TxRecharge && domain.IsWalletRechargeText(r.Transaction):
			out = append(out, baseInsight(r, domain.UsageWalletRecharge, e.catalog.DefaultWallet()))
		case kind == domain.TxRecharge:
			p := purchase(r, def)
			passes[def.Key] = p
			in := baseInsight(r, domain.UsageTitleRecharge, def)
			in.Pass = p.snapshot()
			out = append(out, in)
		default:
			out = append(out, ride(r, kind, def, passes[def.Key]))
		}
	}
	return out
}

func baseInsight(r domain.TransactionRecord, usage domain.UsageKind, def tariff.Definition) domain.FareInsight {
	return domain.FareInsight{
		RecordKey:  r.Key(),
		Usage:      usage,
		TariffName: def.Name,
		TariffCode: def.Code,
		TariffKind: def.Kind,
	}
}

func purchase(r domain.TransactionRecord, def tariff.Definition) *passState {
	p := &passState{
		def:            def,
		purchaseAmount: r.Amount.Abs(),
		purchasedAt:    r.Timestamp,
		purchaseKey:    r.Key(),
	}
	if days := def.ValidityDays(); days > 0 && r.HasTimestamp() {
		exp := r.Timestamp.AddDate(0, 0, days)
		p.expiresAt = &exp
	}
	if def.Kind == domain.TariffLimitedPass && def.TripLimit > 0 {
		total, remaining := def.TripLimit, def.TripLimit
		p.total = &total
		p.remaining = &remaining
		p.ignoreNext = true
	}
	return p
}

func ride(r domain.TransactionRecord, kind domain.TxKind, def tariff.Definition, p *passState) domain.FareInsight {
	in := baseInsight(r, domain.UsageRide, def)
	if p == nil || p.expired(r.Timestamp) {
		return in
	}

	var savings *decimal.Decimal
	switch kind {
	case domain.TxEntry, domain.TxSingle:
		ignored := p.ignoreNext && r.Timestamp.Equal(p.purchasedAt)
		if p.exhausted() && !ignored {
			return in
		}
		if p.limited() {
			if !ignored {
				*p.remaining--
			}
			p.ignoreNext = false
		}
		if !ignored {
			s := r.Amount.Abs()
			if s.IsZero() {
				s = def.BaseFare()
			}
			savings = &s
		}
	case domain.TxExit:
		// exits keep the pass context without consuming a trip
	default:
		return in
	}

	in.Pass = p.snapshot()
	in.Savings = savings
	if p.expiresAt != nil {
		days := daysRemaining(*p.expiresAt, r.Timestamp)
		in.DaysRemaining = &days
	}
	if p.limited() {
		lc := &domain.LimitedContext{
			RemainingTrips: *p.remaining,
			TotalTrips:     *p.total,
		}
		if *p.total > 0 {
			lc.PricePerTrip = p.purchaseAmount.DivRound(decimal.NewFromInt(int64(*p.total)), pricePrecision)
		}
		if savings != nil {
			lc.Savings = *savings
		}
		in.Limited = lc
	}
	return in
}

func daysRemaining(expires, at time.Time) int {
	days := int(math.Ceil(expires.Sub(at).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}
