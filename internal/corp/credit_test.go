package corp

import "testing"

func TestRate(t *testing.T) {
	tests := []struct {
		name    string
		profit  int64
		debt    int64
		revenue int64
		want    string
		rate    float64
	}{
		{name: "profitable low debt", profit: 100 * MicrosPerCoin, debt: 50 * MicrosPerCoin, revenue: 80 * MicrosPerCoin, want: "AAA", rate: RateAAAPct},
		{name: "profitable heavy debt", profit: 100 * MicrosPerCoin, debt: 500 * MicrosPerCoin, revenue: 80 * MicrosPerCoin, want: "B", rate: RateBPct},
		{name: "loss making", profit: -10 * MicrosPerCoin, debt: 0, revenue: 80 * MicrosPerCoin, want: "C", rate: RateCPct},
		{name: "zero profit", profit: 0, debt: 0, revenue: 80 * MicrosPerCoin, want: "C", rate: RateCPct},
		{name: "debt equals revenue", profit: 100 * MicrosPerCoin, debt: 80 * MicrosPerCoin, revenue: 80 * MicrosPerCoin, want: "B", rate: RateBPct},
	}
	for _, tc := range tests {
		got := Rate(tc.profit, tc.debt, tc.revenue)
		if got.Label != tc.want || got.RatePct != tc.rate {
			t.Fatalf("%s: got %s/%.0f want %s/%.0f", tc.name, got.Label, got.RatePct, tc.want, tc.rate)
		}
	}
}

func TestBondRatePct(t *testing.T) {
	if got := BondRatePct(Rating{Label: "AAA", RatePct: RateAAAPct}); got != 3 {
		t.Fatalf("AAA bond rate %.1f want 3", got)
	}
	// floor kicks in when the discount would undercut it
	if got := BondRatePct(Rating{Label: "X", RatePct: 3}); got != BondRateFloorPct {
		t.Fatalf("floored bond rate %.1f want %.1f", got, BondRateFloorPct)
	}
}
