package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UsageKind is the fare classification of a single record.
type UsageKind string

const (
	UsageWalletRecharge UsageKind = "wallet-recharge"
	UsageTitleRecharge  UsageKind = "title-recharge"
	UsageRide           UsageKind = "ride"
)

// TariffKind is the behaviour inferred for a tariff.
type TariffKind string

const (
	TariffWallet        TariffKind = "wallet"
	TariffLimitedPass   TariffKind = "limited-pass"
	TariffUnlimitedPass TariffKind = "unlimited-pass"
)

// IsPass reports whether the tariff is consumed by rides instead of fares.
func (k TariffKind) IsPass() bool {
	return k == TariffLimitedPass || k == TariffUnlimitedPass
}

// PassSnapshot is a point-in-time copy of an active pass.
// TotalTrips and RemainingTrips are nil for unlimited passes.
type PassSnapshot struct {
	TariffName     string          `json:"tariffName"`
	TariffCode     string          `json:"tariffCode"`
	Kind           TariffKind      `json:"kind"`
	TotalTrips     *int            `json:"totalTrips,omitempty"`
	RemainingTrips *int            `json:"remainingTrips,omitempty"`
	PurchaseAmount decimal.Decimal `json:"purchaseAmount"`
	PurchasedAt    time.Time       `json:"purchasedAt"`
	ValidityDays   int             `json:"validityDays,omitempty"`
	ExpiresAt      *time.Time      `json:"expiresAt,omitempty"`
	PurchaseKey    string          `json:"purchaseKey"`
}

// LimitedContext describes a ride taken under a trip-limited pass.
type LimitedContext struct {
	RemainingTrips int             `json:"remainingTrips"`
	TotalTrips     int             `json:"totalTrips"`
	PricePerTrip   decimal.Decimal `json:"pricePerTrip"`
	Savings        decimal.Decimal `json:"savings"`
}

// FareInsight is the classification computed for one record.
type FareInsight struct {
	RecordKey     string           `json:"recordKey"`
	Usage         UsageKind        `json:"usage"`
	TariffName    string           `json:"tariffName"`
	TariffCode    string           `json:"tariffCode"`
	TariffKind    TariffKind       `json:"tariffKind"`
	Pass          *PassSnapshot    `json:"pass,omitempty"`
	Savings       *decimal.Decimal `json:"savings,omitempty"`
	DaysRemaining *int             `json:"daysRemaining,omitempty"`
	Limited       *LimitedContext  `json:"limited,omitempty"`
}

// UnderPass reports whether the ride was covered by an active pass.
func (f FareInsight) UnderPass() bool {
	return f.Usage == UsageRide && f.Pass != nil
}

// SavingsAmount returns the savings or zero.
func (f FareInsight) SavingsAmount() decimal.Decimal {
	if f.Savings == nil {
		return decimal.Zero
	}
	return *f.Savings
}

// FareInsightsMap indexes insights by record key.
type FareInsightsMap map[string]FareInsight
