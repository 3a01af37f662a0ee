package corp

import "strings"

// Capital-operation tuning. Game balance lives here, not in control flow.
const (
	DilutionMinPct        = 1.0
	DilutionMaxPct        = 20.0
	DilutionPriceDiscount = 0.97
	MajorityThresholdPct  = 51.0

	BuybackMinPct  = 0.5
	BuybackMaxPct  = 10.0
	BuybackStepPct = 0.5

	DividendMinPct       = 1.0
	DividendMaxPct       = 50.0
	DividendReserveFloor = 0.30

	SplitPriceThresholdMicros = 1000 * MicrosPerCoin
	SplitFactor               = 10
)

// Credit rating tiers.
const (
	RateAAAPct = 5.0
	RateBPct   = 15.0
	RateCPct   = 25.0

	BondRateDiscountPct = 2.0
	BondRateFloorPct    = 2.0
)

// shareTuning drives the peer-to-peer lot negotiation.
type shareTuning struct {
	HighRelThreshold int
	LowRelThreshold  int
	HighRelMinRatio  float64
	LowRelMinRatio   float64
	FairMinRatio     float64
	CoinFlipMinRatio float64
	CoinFlipChance   float64
	SellOfferPremium float64
	DealRelGain      int
	FailRelLoss      int
	RejectRelLoss    int
	MaxSellLots      int
}

func defaultShareTuning() shareTuning {
	return shareTuning{
		HighRelThreshold: 80,
		LowRelThreshold:  30,
		HighRelMinRatio:  0.9,
		LowRelMinRatio:   1.2,
		FairMinRatio:     1.0,
		CoinFlipMinRatio: 0.95,
		CoinFlipChance:   0.5,
		SellOfferPremium: 1.2,
		DealRelGain:      2,
		FailRelLoss:      2,
		RejectRelLoss:    5,
		MaxSellLots:      10,
	}
}

// acquisitionTuning drives board votes and target responses.
type acquisitionTuning struct {
	AutoApproveStakePct float64
	BaseApproval        float64
	ReputationWeight    float64
	ReputationCap       float64
	HighSynergy         float64
	LowSynergy          float64
	SynergyBonus        float64
	SynergyPenalty      float64
	SupportiveBonus     float64
	HostilePenalty      float64
	InsistChance        float64
}

func defaultAcquisitionTuning() acquisitionTuning {
	return acquisitionTuning{
		AutoApproveStakePct: 50.0,
		BaseApproval:        50.0,
		ReputationWeight:    0.3,
		ReputationCap:       30.0,
		HighSynergy:         80.0,
		LowSynergy:          40.0,
		SynergyBonus:        25.0,
		SynergyPenalty:      25.0,
		SupportiveBonus:     10.0,
		HostilePenalty:      30.0,
		InsistChance:        0.60,
	}
}

// Subsidiary lifecycle rates.
const (
	InvestCostRate       = 0.10
	InvestProfitGrowth   = 1.03
	RestructureCostRate  = 0.10
	FireSaleRecoveryRate = 0.50
)

// driftDynamics shapes the daily price/profit drift applied by the worker.
type driftDynamics struct {
	PriceNoiseScale   float64
	PriceShockProb    float64
	PriceShockScale   float64
	MaxDropPerDay     float64
	ProfitNoiseScale  float64
	ProfitShockProb   float64
	ProfitShockScale  float64
	RevenueNoiseScale float64
}

func driftParams(mode string) driftDynamics {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "calm":
		return driftDynamics{
			PriceNoiseScale:   0.008,
			PriceShockProb:    0.03,
			PriceShockScale:   0.05,
			MaxDropPerDay:     0.30,
			ProfitNoiseScale:  0.015,
			ProfitShockProb:   0.02,
			ProfitShockScale:  0.10,
			RevenueNoiseScale: 0.010,
		}
	case "wild":
		return driftDynamics{
			PriceNoiseScale:   0.035,
			PriceShockProb:    0.12,
			PriceShockScale:   0.15,
			MaxDropPerDay:     0.80,
			ProfitNoiseScale:  0.060,
			ProfitShockProb:   0.08,
			ProfitShockScale:  0.35,
			RevenueNoiseScale: 0.040,
		}
	default:
		return driftDynamics{
			PriceNoiseScale:   0.018,
			PriceShockProb:    0.06,
			PriceShockScale:   0.09,
			MaxDropPerDay:     0.50,
			ProfitNoiseScale:  0.030,
			ProfitShockProb:   0.04,
			ProfitShockScale:  0.20,
			RevenueNoiseScale: 0.020,
		}
	}
}
