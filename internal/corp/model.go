package corp

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

const (
	MicrosPerCoin = int64(1_000_000)

	// PercentEpsilon bounds floating drift when percentages are moved
	// between shareholders. The ledger sum is checked against it.
	PercentEpsilon = 1e-6

	// One negotiation lot moves 0.1% of the company.
	LotStakePct = 0.1
)

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientStake    = errors.New("insufficient stake")
	ErrInvalidState         = errors.New("operation not allowed in current state")
	ErrInvalidParameter     = errors.New("parameter out of range")
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
	ErrTxConflict           = errors.New("transaction conflict, retry")
	ErrSessionClosed        = errors.New("negotiation session closed")
)

func CoinsToMicros(v float64) int64 {
	return int64(math.Round(v * float64(MicrosPerCoin)))
}

func MicrosToCoins(v int64) float64 {
	return float64(v) / float64(MicrosPerCoin)
}

// pctOfMicros computes amount*pct/100 without overflowing int64 on large
// treasuries. Rounds to the nearest micro, same rule as mulMicros.
func pctOfMicros(amountMicros int64, pct float64) int64 {
	v := new(big.Float).SetInt64(amountMicros)
	v.Mul(v, big.NewFloat(pct))
	v.Quo(v, big.NewFloat(100))
	if v.Sign() >= 0 {
		v.Add(v, big.NewFloat(0.5))
	} else {
		v.Sub(v, big.NewFloat(0.5))
	}
	out, _ := v.Int64()
	return out
}

// mulMicros scales a micro amount by a float factor, rounding to the
// nearest micro.
func mulMicros(amountMicros int64, factor float64) int64 {
	return int64(math.Round(float64(amountMicros) * factor))
}

func validatePctRange(pct, lo, hi float64) error {
	if math.IsNaN(pct) || pct < lo || pct > hi {
		return fmt.Errorf("%w: pct must be in [%g,%g]", ErrInvalidParameter, lo, hi)
	}
	return nil
}
