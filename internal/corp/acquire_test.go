package corp

import (
	"math"
	"testing"
)

func TestBoardApprovalChance(t *testing.T) {
	tune := defaultAcquisitionTuning()

	base := boardApprovalChance(tune, 50, 60, SentimentNeutral)
	if base != 50+15 {
		t.Fatalf("neutral chance %.1f want 65", base)
	}
	// reputation contribution is capped
	capped := boardApprovalChance(tune, 1000, 60, SentimentNeutral)
	if capped != 50+30 {
		t.Fatalf("capped chance %.1f want 80", capped)
	}
	hostile := boardApprovalChance(tune, 0, 30, SentimentHostile)
	if hostile != 50-25-30 {
		t.Fatalf("hostile chance %.1f want -5", hostile)
	}
	best := boardApprovalChance(tune, 100, 90, SentimentSupportive)
	if best != 50+30+25+10 {
		t.Fatalf("best chance %.1f want 115", best)
	}
}

func TestDecideBoardVoteMajorityAutoApproves(t *testing.T) {
	tune := defaultAcquisitionTuning()
	target := AcquisitionTarget{Synergy: 10, Sentiment: SentimentHostile}
	if !decideBoardVote(tune, 51, 0, target, noDraw(t)) {
		t.Fatalf("majority stake must bypass the vote")
	}
}

func TestDecideBoardVoteDraw(t *testing.T) {
	tune := defaultAcquisitionTuning()
	target := AcquisitionTarget{Synergy: 60, Sentiment: SentimentNeutral}
	// chance is 65: a draw of 0.64 approves, 0.66 rejects
	if !decideBoardVote(tune, 40, 50, target, func() float64 { return 0.64 }) {
		t.Fatalf("draw under the chance should approve")
	}
	if decideBoardVote(tune, 40, 50, target, func() float64 { return 0.66 }) {
		t.Fatalf("draw over the chance should reject")
	}
}

func TestDecideTargetResponse(t *testing.T) {
	tune := defaultAcquisitionTuning()
	target := AcquisitionTarget{
		Name:            "Nimbus Logistics",
		MarketCapMicros: 4_200_000 * MicrosPerCoin,
		Premium:         1.15,
	}

	// below market cap: deterministic rejection, no draw
	ok, reason := decideTargetResponse(tune, 4_000_000*MicrosPerCoin, target, noDraw(t))
	if ok || reason != ReasonBelowMarketCap {
		t.Fatalf("got ok=%v reason=%q", ok, reason)
	}

	// at or above asking price: deterministic acceptance
	asking := askingPriceMicros(target)
	ok, reason = decideTargetResponse(tune, asking, target, noDraw(t))
	if !ok || reason != "" {
		t.Fatalf("asking price should close, got ok=%v reason=%q", ok, reason)
	}

	// between market cap and asking: the target may insist on a premium
	mid := (target.MarketCapMicros + asking) / 2
	ok, reason = decideTargetResponse(tune, mid, target, func() float64 { return 0.5 })
	if ok || reason != ReasonInsistOnPremium {
		t.Fatalf("draw under insist chance should reject, got ok=%v reason=%q", ok, reason)
	}
	ok, _ = decideTargetResponse(tune, mid, target, func() float64 { return 0.7 })
	if !ok {
		t.Fatalf("draw over insist chance should accept")
	}
}

func TestAskingPriceMicros(t *testing.T) {
	target := AcquisitionTarget{MarketCapMicros: 1_000_000 * MicrosPerCoin, Premium: 1.25}
	want := int64(1_250_000) * MicrosPerCoin
	if got := askingPriceMicros(target); got != want {
		t.Fatalf("asking %d want %d", got, want)
	}
}

func TestSubsidiaryFromDeal(t *testing.T) {
	target := AcquisitionTarget{
		Name:               "Vectra Analytics",
		MarketCapMicros:    8_500_000 * MicrosPerCoin,
		AnnualProfitMicros: 910_000 * MicrosPerCoin,
	}
	offer := int64(9_000_000) * MicrosPerCoin
	sub := subsidiaryFromDeal(target, offer)
	if sub.PurchasePriceMicros != offer {
		t.Fatalf("purchase price %d want %d", sub.PurchasePriceMicros, offer)
	}
	if sub.BaseProfitMicros != target.AnnualProfitMicros || sub.CurrentProfitMicros != target.AnnualProfitMicros {
		t.Fatalf("profit base should start at the target's annual profit")
	}
	if sub.IsLossMaking() {
		t.Fatalf("profitable target should not start critical")
	}
}

func TestTargetCatalogSane(t *testing.T) {
	for _, spec := range targetCatalog {
		if spec.MarketCapMicros <= 0 || spec.Premium < 1 {
			t.Fatalf("%s: bad market cap or premium", spec.Name)
		}
		if spec.Synergy < 0 || spec.Synergy > 100 {
			t.Fatalf("%s: synergy out of range", spec.Name)
		}
	}
}

func TestFounderRosterSumsToHundred(t *testing.T) {
	total := StarterPlayerStakePct + StarterFloatPct
	for _, f := range founderRoster {
		total += f.Percentage
	}
	if math.Abs(total-100) > PercentEpsilon {
		t.Fatalf("starter ledger sums to %.4f", total)
	}
}
