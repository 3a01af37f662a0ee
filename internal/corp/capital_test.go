package corp

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

func testCompany() Company {
	return Company{
		ID:                   1,
		Name:                 "Founder Holdings",
		CapitalMicros:        2_000_000 * MicrosPerCoin,
		ValuationMicros:      18_600_000 * MicrosPerCoin,
		SharePriceMicros:     120 * MicrosPerCoin,
		AnnualProfitMicros:   450_000 * MicrosPerCoin,
		MonthlyRevenueMicros: 180_000 * MicrosPerCoin,
		IsPublic:             true,
	}
}

func TestApplyDilution(t *testing.T) {
	c := testCompany()
	led := testLedger()

	next, nextLed, res, err := ApplyDilution(c, led, 5)
	if err != nil {
		t.Fatalf("dilution failed: %v", err)
	}
	wantRaised := int64(930_000) * MicrosPerCoin // 5% of 18.6M
	if res.CapitalRaisedMicros != wantRaised {
		t.Fatalf("raised %d want %d", res.CapitalRaisedMicros, wantRaised)
	}
	if next.CapitalMicros != c.CapitalMicros+wantRaised {
		t.Fatalf("capital %d want %d", next.CapitalMicros, c.CapitalMicros+wantRaised)
	}
	if math.Abs(next.OwnershipPct-68.4) > PercentEpsilon {
		t.Fatalf("ownership %.4f want 68.4", next.OwnershipPct)
	}
	wantPrice := mulMicros(c.SharePriceMicros, DilutionPriceDiscount)
	if next.SharePriceMicros != wantPrice {
		t.Fatalf("share price %d want %d", next.SharePriceMicros, wantPrice)
	}
	if res.MajorityLost {
		t.Fatalf("68.4%% keeps the majority")
	}
	if err := nextLed.Validate(); err != nil {
		t.Fatalf("ledger invalid: %v", err)
	}
}

func TestApplyDilutionMajorityLost(t *testing.T) {
	led := Ledger{
		{ID: uuid.New(), Name: "You", Kind: KindPlayer, Percentage: 52},
		{ID: uuid.New(), Name: OpenMarketName, Kind: KindNPC, Percentage: 48, IsFloat: true},
	}
	_, _, res, err := ApplyDilution(testCompany(), led, 5)
	if err != nil {
		t.Fatalf("dilution failed: %v", err)
	}
	if !res.MajorityLost {
		t.Fatalf("52%% diluted 5%% falls to 49.4%%, majority flag expected")
	}
}

func TestApplyDilutionGates(t *testing.T) {
	c := testCompany()
	led := testLedger()

	private := c
	private.IsPublic = false
	if _, _, _, err := ApplyDilution(private, led, 5); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("want ErrInvalidState for private company, got %v", err)
	}
	for _, pct := range []float64{0.5, 20.5, math.NaN()} {
		if _, _, _, err := ApplyDilution(c, led, pct); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("pct=%v want ErrInvalidParameter, got %v", pct, err)
		}
	}
}

func TestApplyBuyback(t *testing.T) {
	c := testCompany()
	led := testLedger()

	next, nextLed, res, err := ApplyBuyback(c, led, 5)
	if err != nil {
		t.Fatalf("buyback failed: %v", err)
	}
	wantCost := int64(930_000) * MicrosPerCoin
	if res.CostMicros != wantCost {
		t.Fatalf("cost %d want %d", res.CostMicros, wantCost)
	}
	if next.CapitalMicros != c.CapitalMicros-wantCost {
		t.Fatalf("capital %d want %d", next.CapitalMicros, c.CapitalMicros-wantCost)
	}
	want := 72 / 0.95
	if math.Abs(next.OwnershipPct-want) > PercentEpsilon {
		t.Fatalf("ownership %.6f want %.6f", next.OwnershipPct, want)
	}
	if err := nextLed.Validate(); err != nil {
		t.Fatalf("ledger invalid: %v", err)
	}
}

func TestApplyBuybackGates(t *testing.T) {
	c := testCompany()
	led := testLedger()

	if _, _, _, err := ApplyBuyback(c, led, 1.3); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("want step violation, got %v", err)
	}

	broke := c
	broke.CapitalMicros = 100 * MicrosPerCoin
	if _, _, _, err := ApplyBuyback(broke, led, 5); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
}

func TestApplyBuybackFloatShortfall(t *testing.T) {
	c := testCompany()
	led := Ledger{
		{ID: uuid.New(), Name: "You", Kind: KindPlayer, Percentage: 70},
		{ID: uuid.New(), Name: "Maya Vale", Kind: KindNPC, Percentage: 30, Relationship: 74},
		{ID: uuid.New(), Name: OpenMarketName, Kind: KindNPC, Percentage: 0, IsFloat: true},
	}
	// An exhausted float must reject the retirement instead of charging
	// full cost for a ledger that ends up unchanged.
	if _, _, _, err := ApplyBuyback(c, led, 10); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("want ErrInvalidState, got %v", err)
	}
}

func TestApplyDividend(t *testing.T) {
	c := testCompany()
	led := testLedger()

	next, res, err := ApplyDividend(c, led, 10)
	if err != nil {
		t.Fatalf("dividend failed: %v", err)
	}
	wantPool := pctOfMicros(c.CapitalMicros, 10)
	if res.PoolMicros != wantPool {
		t.Fatalf("pool %d want %d", res.PoolMicros, wantPool)
	}
	wantPayout := pctOfMicros(wantPool, 72)
	if res.PlayerPayoutMicros != wantPayout {
		t.Fatalf("payout %d want %d", res.PlayerPayoutMicros, wantPayout)
	}
	if next.CapitalMicros != c.CapitalMicros-wantPool {
		t.Fatalf("capital %d want %d", next.CapitalMicros, c.CapitalMicros-wantPool)
	}
	if res.ReserveRisk {
		t.Fatalf("10%% leaves 90%% of capital, no reserve risk")
	}
}

func TestApplyDividendGates(t *testing.T) {
	c := testCompany()
	led := testLedger()
	for _, pct := range []float64{0.5, 51} {
		if _, _, err := ApplyDividend(c, led, pct); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("pct=%v want ErrInvalidParameter, got %v", pct, err)
		}
	}
}

func TestApplyStockSplit(t *testing.T) {
	c := testCompany()
	c.SharePriceMicros = 1500 * MicrosPerCoin

	next, res, err := ApplyStockSplit(c)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if next.SharePriceMicros != 150*MicrosPerCoin {
		t.Fatalf("share price %d want %d", next.SharePriceMicros, 150*MicrosPerCoin)
	}
	if res.NewSharePriceMicros != next.SharePriceMicros {
		t.Fatalf("result price mismatch")
	}
	if next.ValuationMicros != c.ValuationMicros {
		t.Fatalf("valuation must not move on a split")
	}
}

func TestApplyStockSplitThreshold(t *testing.T) {
	c := testCompany() // price 120, below threshold
	if _, _, err := ApplyStockSplit(c); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("want ErrInvalidState below threshold, got %v", err)
	}
}
