package corp

import (
	"errors"
	"testing"
)

func noDraw(t *testing.T) func() float64 {
	return func() float64 {
		t.Helper()
		t.Fatalf("draw consumed on a deterministic branch")
		return 0
	}
}

func TestDecideShareBuyHighRelationship(t *testing.T) {
	tune := defaultShareTuning()
	if !decideShareBuy(tune, 85, 0.9, noDraw(t)) {
		t.Fatalf("trusted npc should accept at ratio 0.9")
	}
	if decideShareBuy(tune, 85, 0.85, noDraw(t)) {
		t.Fatalf("ratio below 0.9 should fail even for a trusted npc")
	}
}

func TestDecideShareBuyLowRelationship(t *testing.T) {
	tune := defaultShareTuning()
	if !decideShareBuy(tune, 20, 1.25, noDraw(t)) {
		t.Fatalf("hostile npc should still take a 25%% premium")
	}
	if decideShareBuy(tune, 20, 1.2, noDraw(t)) {
		t.Fatalf("hostile npc requires strictly above 1.2")
	}
}

func TestDecideShareBuyFairBand(t *testing.T) {
	tune := defaultShareTuning()
	if !decideShareBuy(tune, 50, 1.0, noDraw(t)) {
		t.Fatalf("market price should always close in the fair band")
	}
	// coin flip band: draw above chance accepts, below rejects
	if !decideShareBuy(tune, 50, 0.97, func() float64 { return 0.9 }) {
		t.Fatalf("winning coin flip should accept")
	}
	if decideShareBuy(tune, 50, 0.97, func() float64 { return 0.1 }) {
		t.Fatalf("losing coin flip should reject")
	}
	// below the coin-flip floor nothing is drawn
	if decideShareBuy(tune, 50, 0.90, noDraw(t)) {
		t.Fatalf("deep discount should reject outright")
	}
}

func TestSellOfferMicros(t *testing.T) {
	tune := defaultShareTuning()
	got := sellOfferMicros(tune, 100*MicrosPerCoin)
	if got != 120*MicrosPerCoin {
		t.Fatalf("offer %d want %d", got, 120*MicrosPerCoin)
	}
}

func TestMaxBuyLots(t *testing.T) {
	tests := []struct {
		pct  float64
		want int
	}{
		{pct: 8.0, want: 80},
		{pct: 0.15, want: 1},
		{pct: 0.05, want: 0},
	}
	for _, tc := range tests {
		if got := maxBuyLots(tc.pct); got != tc.want {
			t.Fatalf("pct=%.2f got=%d want=%d", tc.pct, got, tc.want)
		}
	}
}

func TestValidateBuyLots(t *testing.T) {
	npc := Shareholder{Name: "Maya Vale", Kind: KindNPC, Percentage: 2.0}
	if err := validateBuyLots(20, npc); err != nil {
		t.Fatalf("20 lots of a 2%% holder should pass: %v", err)
	}
	if err := validateBuyLots(21, npc); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("want ErrInvalidParameter past the stake, got %v", err)
	}
	if err := validateBuyLots(0, npc); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("want ErrInvalidParameter for zero lots, got %v", err)
	}
}

func TestValidateSellLots(t *testing.T) {
	tune := defaultShareTuning()
	if err := validateSellLots(tune, 10, 72); err != nil {
		t.Fatalf("10 lots should pass: %v", err)
	}
	if err := validateSellLots(tune, 11, 72); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("want per-sale cap, got %v", err)
	}
	if err := validateSellLots(tune, 5, 0.3); !errors.Is(err, ErrInsufficientStake) {
		t.Fatalf("want ErrInsufficientStake, got %v", err)
	}
}
