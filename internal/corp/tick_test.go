package corp

import (
	mathrand "math/rand"
	"testing"
)

func TestScaleProfit(t *testing.T) {
	profit := int64(100_000) * MicrosPerCoin
	if got := scaleProfit(profit, 1.1); got != mulMicros(profit, 1.1) {
		t.Fatalf("positive profit got %d", got)
	}

	loss := -profit
	// factor > 1 is a good day: the loss shrinks
	if got := scaleProfit(loss, 1.1); got >= 0 || got <= loss {
		t.Fatalf("good day should shrink the loss, got %d", got)
	}
	// factor < 1 is a bad day: the loss deepens
	if got := scaleProfit(loss, 0.9); got >= loss {
		t.Fatalf("bad day should deepen the loss, got %d", got)
	}
}

func TestDriftFactorFloor(t *testing.T) {
	s := NewService(nil, nil, WithRand(mathrand.New(mathrand.NewSource(7))))
	dyn := driftParams("wild")
	for i := 0; i < 2000; i++ {
		f := s.driftFactor(dyn.PriceNoiseScale, dyn.PriceShockProb, dyn.PriceShockScale, dyn.MaxDropPerDay)
		if f < 1-dyn.MaxDropPerDay {
			t.Fatalf("factor %.4f below floor", f)
		}
	}
}

func TestDriftParamsModes(t *testing.T) {
	calm := driftParams("calm")
	wild := driftParams(" WILD ")
	def := driftParams("")
	if calm.PriceNoiseScale >= def.PriceNoiseScale || def.PriceNoiseScale >= wild.PriceNoiseScale {
		t.Fatalf("noise should order calm < default < wild")
	}
	if wild.PriceShockProb <= calm.PriceShockProb {
		t.Fatalf("wild should shock more often")
	}
}
