package corp

import (
	"errors"
	"testing"
)

func testSub() Subsidiary {
	return Subsidiary{
		Name:                "Pylon Foundries",
		MarketCapMicros:     2_800_000 * MicrosPerCoin,
		BaseProfitMicros:    190_000 * MicrosPerCoin,
		CurrentProfitMicros: 190_000 * MicrosPerCoin,
		PurchasePriceMicros: 3_000_000 * MicrosPerCoin,
	}
}

func TestApplyInvest(t *testing.T) {
	sub := testSub()
	next := applyInvest(sub)
	want := mulMicros(sub.BaseProfitMicros, InvestProfitGrowth)
	if next.BaseProfitMicros != want {
		t.Fatalf("base profit %d want %d", next.BaseProfitMicros, want)
	}
	if next.CurrentProfitMicros != want {
		t.Fatalf("healthy subsidiary tracks its base, got %d", next.CurrentProfitMicros)
	}
}

func TestApplyInvestLossMaker(t *testing.T) {
	sub := testSub()
	sub.CurrentProfitMicros = -50_000 * MicrosPerCoin
	next := applyInvest(sub)
	if next.CurrentProfitMicros != sub.CurrentProfitMicros {
		t.Fatalf("investing must not heal a loss-maker, got %d", next.CurrentProfitMicros)
	}
	if next.BaseProfitMicros <= sub.BaseProfitMicros {
		t.Fatalf("base should still grow")
	}
}

func TestApplyRestructure(t *testing.T) {
	sub := testSub()
	sub.CurrentProfitMicros = -50_000 * MicrosPerCoin
	next, err := applyRestructure(sub)
	if err != nil {
		t.Fatalf("restructure failed: %v", err)
	}
	if next.CurrentProfitMicros != sub.BaseProfitMicros {
		t.Fatalf("restructure should restore the base, got %d", next.CurrentProfitMicros)
	}

	if _, err := applyRestructure(testSub()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("healthy subsidiary must not restructure, got %v", err)
	}
}

func TestSaleProceeds(t *testing.T) {
	sub := testSub()

	if got, want := fireSaleProceedsMicros(sub), mulMicros(sub.MarketCapMicros, FireSaleRecoveryRate); got != want {
		t.Fatalf("fire sale %d want %d", got, want)
	}

	// performing exactly at the acquisition base sells at purchase price
	if got := marketSalePriceMicros(sub); got != sub.PurchasePriceMicros {
		t.Fatalf("market sale %d want purchase price %d", got, sub.PurchasePriceMicros)
	}

	// profit doubled since acquisition doubles the price
	doubled := sub
	doubled.CurrentProfitMicros = 2 * sub.BaseProfitMicros
	if got := marketSalePriceMicros(doubled); got != 2*sub.PurchasePriceMicros {
		t.Fatalf("market sale %d want %d", got, 2*sub.PurchasePriceMicros)
	}

	// a loss-maker never yields a negative price
	broke := sub
	broke.CurrentProfitMicros = -sub.BaseProfitMicros
	if got := marketSalePriceMicros(broke); got != 0 {
		t.Fatalf("market sale %d want 0", got)
	}
}

func TestSubsidiaryHealth(t *testing.T) {
	sub := testSub()
	if sub.Health() != "healthy" {
		t.Fatalf("got %q", sub.Health())
	}
	sub.CurrentProfitMicros = -1
	if sub.Health() != "critical" {
		t.Fatalf("got %q", sub.Health())
	}
}
