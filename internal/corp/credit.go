package corp

// Rate derives the financing tier from the company's annual profit, total
// debt and monthly revenue. Consumed by the financing hub; pure.
func Rate(profitMicros, debtMicros, revenueMonthlyMicros int64) Rating {
	switch {
	case profitMicros > 0 && debtMicros < revenueMonthlyMicros:
		return Rating{Label: "AAA", RatePct: RateAAAPct}
	case profitMicros > 0:
		return Rating{Label: "B", RatePct: RateBPct}
	default:
		return Rating{Label: "C", RatePct: RateCPct}
	}
}

// BondRatePct is the discounted bond tier, floored, offered to public
// companies only (the caller gates on IsPublic).
func BondRatePct(r Rating) float64 {
	rate := r.RatePct - BondRateDiscountPct
	if rate < BondRateFloorPct {
		return BondRateFloorPct
	}
	return rate
}
