package corp

import "testing"

func TestMoneyHelpersShareRoundingRule(t *testing.T) {
	// Both helpers round to the nearest micro, so amounts derived two
	// ways from the same inputs agree.
	if got := pctOfMicros(101, 0.5); got != 1 {
		t.Fatalf("pctOfMicros(101, 0.5) = %d, want 1", got)
	}
	if got := mulMicros(101, 0.005); got != 1 {
		t.Fatalf("mulMicros(101, 0.005) = %d, want 1", got)
	}
	if got := pctOfMicros(1, 25); got != 0 {
		t.Fatalf("pctOfMicros(1, 25) = %d, want 0", got)
	}
	if got := pctOfMicros(-101, 0.5); got != -1 {
		t.Fatalf("pctOfMicros(-101, 0.5) = %d, want -1", got)
	}
}

func TestPctOfMicrosLargeAmounts(t *testing.T) {
	amount := int64(1) << 62
	if got := pctOfMicros(amount, 100); got != amount {
		t.Fatalf("100%% of %d = %d", amount, got)
	}
	if got := pctOfMicros(amount, 50); got != amount/2 {
		t.Fatalf("50%% of %d = %d, want %d", amount, got, amount/2)
	}
}
