package corp

import (
	"fmt"
	"math"
)

// Subsidiary lifecycle math. Pure; the Service guards capital and commits.

func investCostMicros(s Subsidiary) int64 {
	return mulMicros(s.MarketCapMicros, InvestCostRate)
}

// applyInvest grows the profit base. A loss-making subsidiary keeps its
// current (negative) profit until restructured.
func applyInvest(s Subsidiary) Subsidiary {
	s.BaseProfitMicros = mulMicros(s.BaseProfitMicros, InvestProfitGrowth)
	if !s.IsLossMaking() {
		s.CurrentProfitMicros = s.BaseProfitMicros
	}
	return s
}

func restructureCostMicros(s Subsidiary) int64 {
	return mulMicros(s.MarketCapMicros, RestructureCostRate)
}

func applyRestructure(s Subsidiary) (Subsidiary, error) {
	if !s.IsLossMaking() {
		return s, fmt.Errorf("%w: %s is not loss-making", ErrInvalidState, s.Name)
	}
	s.CurrentProfitMicros = s.BaseProfitMicros
	return s, nil
}

// fireSaleProceedsMicros is the floor price of an immediate exit.
func fireSaleProceedsMicros(s Subsidiary) int64 {
	return mulMicros(s.MarketCapMicros, FireSaleRecoveryRate)
}

// marketSalePriceMicros scales the purchase price by how current profit
// compares to the profit base at acquisition. Never negative.
func marketSalePriceMicros(s Subsidiary) int64 {
	if s.BaseProfitMicros == 0 {
		return 0
	}
	ratio := float64(s.CurrentProfitMicros) / float64(s.BaseProfitMicros)
	price := math.Round(float64(s.PurchasePriceMicros) * ratio)
	if price < 0 {
		return 0
	}
	return int64(price)
}
