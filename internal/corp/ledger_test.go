package corp

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

func testLedger() Ledger {
	return Ledger{
		{ID: uuid.New(), Name: "You", Kind: KindPlayer, Percentage: 72},
		{ID: uuid.New(), Name: OpenMarketName, Kind: KindNPC, Percentage: 10, IsFloat: true},
		{ID: uuid.New(), Name: "Maya Vale", Kind: KindNPC, Percentage: 12, Relationship: 74},
		{ID: uuid.New(), Name: "Arun Pike", Kind: KindNPC, Percentage: 6, Relationship: 58},
	}
}

func TestLedgerValidate(t *testing.T) {
	led := testLedger()
	if err := led.Validate(); err != nil {
		t.Fatalf("expected valid ledger: %v", err)
	}

	bad := append(Ledger(nil), led...)
	bad[0].Percentage = 71
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected sum != 100 to fail")
	}

	neg := append(Ledger(nil), led...)
	neg[2].Percentage = -1
	neg[0].Percentage = 85
	if err := neg.Validate(); err == nil {
		t.Fatalf("expected negative stake to fail")
	}
}

func TestTransferStakeZeroSum(t *testing.T) {
	led := testLedger()
	from, to := led[2].ID, led[0].ID

	next, err := led.TransferStake(from, to, 2.5)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if math.Abs(next.Sum()-100) > PercentEpsilon {
		t.Fatalf("sum drifted to %.8f", next.Sum())
	}
	if got := next[2].Percentage; math.Abs(got-9.5) > PercentEpsilon {
		t.Fatalf("from stake %.4f want 9.5", got)
	}
	if got := next[0].Percentage; math.Abs(got-74.5) > PercentEpsilon {
		t.Fatalf("to stake %.4f want 74.5", got)
	}
	// original untouched
	if led[0].Percentage != 72 {
		t.Fatalf("input ledger mutated")
	}
}

func TestTransferStakeInsufficient(t *testing.T) {
	led := testLedger()
	_, err := led.TransferStake(led[3].ID, led[0].ID, 6.5)
	if !errors.Is(err, ErrInsufficientStake) {
		t.Fatalf("want ErrInsufficientStake, got %v", err)
	}
}

func TestAdjustRelationshipClamps(t *testing.T) {
	led := testLedger()

	next, err := led.AdjustRelationship(led[2].ID, 40)
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if next[2].Relationship != 100 {
		t.Fatalf("relationship %d want 100", next[2].Relationship)
	}

	next, err = led.AdjustRelationship(led[3].ID, -70)
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if next[3].Relationship != 0 {
		t.Fatalf("relationship %d want 0", next[3].Relationship)
	}

	if _, err := led.AdjustRelationship(led[0].ID, 5); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected player adjust to fail, got %v", err)
	}
}

func TestDiluteIssuesToFloat(t *testing.T) {
	led := testLedger()
	next, err := led.dilute(5)
	if err != nil {
		t.Fatalf("dilute failed: %v", err)
	}
	if err := next.Validate(); err != nil {
		t.Fatalf("diluted ledger invalid: %v", err)
	}
	if got := next.PlayerStake(); math.Abs(got-68.4) > PercentEpsilon {
		t.Fatalf("player stake %.4f want 68.4", got)
	}
	// 5% of every non-float holder lands on the float
	wantFloat := 10 + 0.05*(72+12+6)
	if got := next[1].Percentage; math.Abs(got-wantFloat) > PercentEpsilon {
		t.Fatalf("float stake %.4f want %.4f", got, wantFloat)
	}
}

func TestBuyBackRetiresFloat(t *testing.T) {
	led := testLedger()
	next, err := led.buyBack(1 / (1 - 0.05))
	if err != nil {
		t.Fatalf("buyback failed: %v", err)
	}
	if err := next.Validate(); err != nil {
		t.Fatalf("ledger invalid after buyback: %v", err)
	}
	if got := next.PlayerStake(); math.Abs(got-72/0.95) > PercentEpsilon {
		t.Fatalf("player stake %.6f want %.6f", got, 72/0.95)
	}
	if next[1].Percentage >= 10 {
		t.Fatalf("float should shrink, got %.4f", next[1].Percentage)
	}
}

func TestBuyBackExactFloatExhaustion(t *testing.T) {
	led := Ledger{
		{ID: uuid.New(), Name: "You", Kind: KindPlayer, Percentage: 70},
		{ID: uuid.New(), Name: "Maya Vale", Kind: KindNPC, Percentage: 20, Relationship: 74},
		{ID: uuid.New(), Name: OpenMarketName, Kind: KindNPC, Percentage: 10, IsFloat: true},
	}
	next, err := led.buyBack(1 / (1 - 0.10))
	if err != nil {
		t.Fatalf("buyback failed: %v", err)
	}
	if err := next.Validate(); err != nil {
		t.Fatalf("ledger invalid: %v", err)
	}
	if got := next.PlayerStake(); math.Abs(got-70/0.9) > PercentEpsilon {
		t.Fatalf("player stake %.6f want %.6f", got, 70/0.9)
	}
	if next[2].Percentage > PercentEpsilon {
		t.Fatalf("float should be exhausted, got %.6f", next[2].Percentage)
	}
}

func TestBuyBackFloatShortfall(t *testing.T) {
	// With co-owners and too little float, rescaling the overshoot back
	// to 100 would undo the multiplier, so the retirement must fail.
	cases := []Ledger{
		{
			{ID: uuid.New(), Name: "You", Kind: KindPlayer, Percentage: 70},
			{ID: uuid.New(), Name: "Maya Vale", Kind: KindNPC, Percentage: 30, Relationship: 74},
			{ID: uuid.New(), Name: OpenMarketName, Kind: KindNPC, Percentage: 0, IsFloat: true},
		},
		{
			{ID: uuid.New(), Name: "You", Kind: KindPlayer, Percentage: 70},
			{ID: uuid.New(), Name: "Maya Vale", Kind: KindNPC, Percentage: 25, Relationship: 74},
			{ID: uuid.New(), Name: OpenMarketName, Kind: KindNPC, Percentage: 5, IsFloat: true},
		},
	}
	for i, led := range cases {
		if _, err := led.buyBack(1 / (1 - 0.10)); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("case %d: want ErrInvalidState, got %v", i, err)
		}
	}
}

func TestBuyBackCapsAtHundred(t *testing.T) {
	led := Ledger{
		{ID: uuid.New(), Name: "You", Kind: KindPlayer, Percentage: 98},
		{ID: uuid.New(), Name: OpenMarketName, Kind: KindNPC, Percentage: 2, IsFloat: true},
	}
	next, err := led.buyBack(1 / (1 - 0.10))
	if err != nil {
		t.Fatalf("buyback failed: %v", err)
	}
	if err := next.Validate(); err != nil {
		t.Fatalf("ledger invalid: %v", err)
	}
	if got := next.PlayerStake(); math.Abs(got-100) > PercentEpsilon {
		t.Fatalf("player stake %.6f want 100", got)
	}
	if next[1].Percentage != 0 {
		t.Fatalf("float should be exhausted, got %.6f", next[1].Percentage)
	}
}
