package corp

import (
	"fmt"
	"math"
)

// Capital operations are pure transformations of (Company, Ledger). They
// return the new snapshots plus a result record; the Service journals and
// commits them in one transaction, so a failed precondition leaves every
// entity untouched.

func ApplyDilution(c Company, led Ledger, pct float64) (Company, Ledger, CapitalResult, error) {
	var res CapitalResult
	if !c.IsPublic {
		return c, led, res, fmt.Errorf("%w: dilution requires a public company", ErrInvalidState)
	}
	if err := validatePctRange(pct, DilutionMinPct, DilutionMaxPct); err != nil {
		return c, led, res, err
	}

	raised := pctOfMicros(c.ValuationMicros, pct)
	prior := led.PlayerStake()
	nextLed, err := led.dilute(pct)
	if err != nil {
		return c, led, res, err
	}

	c.CapitalMicros += raised
	c.SharePriceMicros = mulMicros(c.SharePriceMicros, DilutionPriceDiscount)
	c.OwnershipPct = nextLed.PlayerStake()

	res = CapitalResult{
		Op:                  "dilution",
		CapitalRaisedMicros: raised,
		NewOwnershipPct:     c.OwnershipPct,
		NewSharePriceMicros: c.SharePriceMicros,
		MajorityLost:        prior >= MajorityThresholdPct && c.OwnershipPct < MajorityThresholdPct,
	}
	return c, nextLed, res, nil
}

func ApplyBuyback(c Company, led Ledger, pct float64) (Company, Ledger, CapitalResult, error) {
	var res CapitalResult
	if !c.IsPublic {
		return c, led, res, fmt.Errorf("%w: buyback requires a public company", ErrInvalidState)
	}
	if err := validatePctRange(pct, BuybackMinPct, BuybackMaxPct); err != nil {
		return c, led, res, err
	}
	if steps := pct / BuybackStepPct; math.Abs(steps-math.Round(steps)) > 1e-9 {
		return c, led, res, fmt.Errorf("%w: buyback pct must be a multiple of %.1f", ErrInvalidParameter, BuybackStepPct)
	}

	cost := pctOfMicros(c.ValuationMicros, pct)
	if c.CapitalMicros < cost {
		return c, led, res, fmt.Errorf("%w: buyback costs %.2f, capital %.2f",
			ErrInsufficientFunds, MicrosToCoins(cost), MicrosToCoins(c.CapitalMicros))
	}

	multiplier := 1 / (1 - pct/100)
	nextLed, err := led.buyBack(multiplier)
	if err != nil {
		return c, led, res, err
	}

	c.CapitalMicros -= cost
	c.OwnershipPct = nextLed.PlayerStake()

	res = CapitalResult{
		Op:              "buyback",
		CostMicros:      cost,
		NewOwnershipPct: c.OwnershipPct,
	}
	return c, nextLed, res, nil
}

func ApplyDividend(c Company, led Ledger, pct float64) (Company, CapitalResult, error) {
	var res CapitalResult
	if !c.IsPublic {
		return c, res, fmt.Errorf("%w: dividends require a public company", ErrInvalidState)
	}
	if err := validatePctRange(pct, DividendMinPct, DividendMaxPct); err != nil {
		return c, res, err
	}

	before := c.CapitalMicros
	pool := pctOfMicros(before, pct)
	if pool > before {
		return c, res, fmt.Errorf("%w: dividend pool exceeds capital", ErrInsufficientFunds)
	}
	payout := pctOfMicros(pool, led.PlayerStake())

	c.CapitalMicros = before - pool

	res = CapitalResult{
		Op:                 "dividend",
		PoolMicros:         pool,
		PlayerPayoutMicros: payout,
		ReserveRisk:        before-pool < mulMicros(before, DividendReserveFloor),
	}
	return c, res, nil
}

func ApplyStockSplit(c Company) (Company, CapitalResult, error) {
	var res CapitalResult
	if !c.IsPublic {
		return c, res, fmt.Errorf("%w: split requires a public company", ErrInvalidState)
	}
	if c.SharePriceMicros <= SplitPriceThresholdMicros {
		return c, res, fmt.Errorf("%w: share price must exceed %.0f for a split",
			ErrInvalidState, MicrosToCoins(SplitPriceThresholdMicros))
	}

	c.SharePriceMicros /= SplitFactor

	res = CapitalResult{
		Op:                  "stock_split",
		NewSharePriceMicros: c.SharePriceMicros,
	}
	return c, res, nil
}
