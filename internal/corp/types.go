package corp

import (
	"time"

	"github.com/google/uuid"
)

type ShareholderKind string

const (
	KindPlayer ShareholderKind = "player"
	KindNPC    ShareholderKind = "npc"
)

type BoardSentiment string

const (
	SentimentSupportive BoardSentiment = "supportive"
	SentimentNeutral    BoardSentiment = "neutral"
	SentimentCautious   BoardSentiment = "cautious"
	SentimentSkeptical  BoardSentiment = "skeptical"
	SentimentHostile    BoardSentiment = "hostile"
)

// Company is the snapshot the pure engines operate on. OwnershipPct is a
// mirror of the player's ledger entry, populated on load and written back
// only through ledger updates.
type Company struct {
	ID                   int64   `json:"id"`
	Name                 string  `json:"name"`
	CapitalMicros        int64   `json:"capital_micros"`
	ValuationMicros      int64   `json:"valuation_micros"`
	SharePriceMicros     int64   `json:"share_price_micros"`
	DailyChangePct       float64 `json:"daily_change_pct"`
	OwnershipPct         float64 `json:"ownership_pct"`
	DebtMicros           int64   `json:"debt_micros"`
	AnnualProfitMicros   int64   `json:"annual_profit_micros"`
	MonthlyRevenueMicros int64   `json:"monthly_revenue_micros"`
	IsPublic             bool    `json:"is_public"`
}

type Shareholder struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Kind         ShareholderKind `json:"kind"`
	Percentage   float64         `json:"percentage"`
	Relationship int             `json:"relationship"`
	Bio          string          `json:"bio,omitempty"`
	IsFloat      bool            `json:"is_float"`
}

type AcquisitionTarget struct {
	ID                 int64          `json:"id"`
	Name               string         `json:"name"`
	Category           string         `json:"category"`
	MarketCapMicros    int64          `json:"market_cap_micros"`
	Premium            float64        `json:"premium"`
	Synergy            float64        `json:"synergy"`
	Sentiment          BoardSentiment `json:"sentiment"`
	AnnualProfitMicros int64          `json:"annual_profit_micros"`
}

type Subsidiary struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	MarketCapMicros     int64     `json:"market_cap_micros"`
	BaseProfitMicros    int64     `json:"base_profit_micros"`
	CurrentProfitMicros int64     `json:"current_profit_micros"`
	PurchasePriceMicros int64     `json:"purchase_price_micros"`
	AcquiredAt          time.Time `json:"acquired_at"`
}

// IsLossMaking is always derived from the profit sign, never stored.
func (s Subsidiary) IsLossMaking() bool {
	return s.CurrentProfitMicros < 0
}

// Health reported to the UI layer.
func (s Subsidiary) Health() string {
	if s.IsLossMaking() {
		return "critical"
	}
	return "healthy"
}

type Rating struct {
	Label   string  `json:"label"`
	RatePct float64 `json:"rate_pct"`
}

type CreditView struct {
	Rating      Rating   `json:"rating"`
	BondRatePct *float64 `json:"bond_rate_pct,omitempty"`
}

// CapitalResult carries the computed numbers and warning flags of one
// capital operation; the caller journals and commits them.
type CapitalResult struct {
	Op                  string  `json:"op"`
	CapitalRaisedMicros int64   `json:"capital_raised_micros,omitempty"`
	CostMicros          int64   `json:"cost_micros,omitempty"`
	PoolMicros          int64   `json:"pool_micros,omitempty"`
	PlayerPayoutMicros  int64   `json:"player_payout_micros,omitempty"`
	NewOwnershipPct     float64 `json:"new_ownership_pct,omitempty"`
	NewSharePriceMicros int64   `json:"new_share_price_micros,omitempty"`
	MajorityLost        bool    `json:"majority_lost,omitempty"`
	ReserveRisk         bool    `json:"reserve_risk,omitempty"`
}

type Dashboard struct {
	Company      Company          `json:"company"`
	CashMicros   int64            `json:"cash_micros"`
	Reputation   int              `json:"reputation"`
	Shareholders []Shareholder    `json:"shareholders"`
	Subsidiaries []SubsidiaryView `json:"subsidiaries"`
	Credit       CreditView       `json:"credit"`
}

type SubsidiaryView struct {
	Subsidiary
	Health string `json:"health"`
}

type CapitalOpInput struct {
	UserID         string
	Pct            float64
	IdempotencyKey string
}

type ShareBuyInput struct {
	UserID         string
	ShareholderID  uuid.UUID
	PriceMicros    int64
	Lots           int
	IdempotencyKey string
}

type ShareSellInput struct {
	UserID         string
	ShareholderID  uuid.UUID
	Lots           int
	IdempotencyKey string
}

type AcquisitionInput struct {
	UserID         string
	TargetID       int64
	OfferMicros    int64
	IdempotencyKey string
}

type SubsidiaryActionInput struct {
	UserID         string
	SubsidiaryID   uuid.UUID
	Mode           string // sell only: fire_sale | market_price
	IdempotencyKey string
}
