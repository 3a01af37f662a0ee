package corp

import "math"

// Acquisition negotiation stages. Terminal states may be re-entered into
// StageInitial for a retry.
type AcquisitionStage string

const (
	StageInitial           AcquisitionStage = "initial"
	StageBoardVoting       AcquisitionStage = "board_voting"
	StageTargetNegotiating AcquisitionStage = "target_negotiating"
	StageAccepted          AcquisitionStage = "accepted"
	StageRejected          AcquisitionStage = "rejected"
)

const (
	ReasonBoardRiskAversion = "board risk aversion"
	ReasonBelowMarketCap    = "below market cap, offensive"
	ReasonInsistOnPremium   = "insist on premium"
)

// boardApprovalChance stacks the adjustments; callers draw in [0,100), so
// values above 100 simply approve always and below 0 never.
func boardApprovalChance(t acquisitionTuning, reputation, synergy float64, sentiment BoardSentiment) float64 {
	approval := t.BaseApproval + math.Min(t.ReputationCap, reputation*t.ReputationWeight)
	switch {
	case synergy > t.HighSynergy:
		approval += t.SynergyBonus
	case synergy < t.LowSynergy:
		approval -= t.SynergyPenalty
	}
	switch sentiment {
	case SentimentHostile:
		approval -= t.HostilePenalty
	case SentimentSupportive:
		approval += t.SupportiveBonus
	}
	return approval
}

// decideBoardVote approves outright on a majority stake; otherwise one
// draw against the stacked approval chance.
func decideBoardVote(t acquisitionTuning, playerStakePct, reputation float64, target AcquisitionTarget, draw func() float64) bool {
	if playerStakePct > t.AutoApproveStakePct {
		return true
	}
	chance := boardApprovalChance(t, reputation, target.Synergy, target.Sentiment)
	return draw()*100 < chance
}

func askingPriceMicros(target AcquisitionTarget) int64 {
	return mulMicros(target.MarketCapMicros, target.Premium)
}

// decideTargetResponse resolves the target's answer to an offer. An
// offer below market cap is rejected without consuming a draw.
func decideTargetResponse(t acquisitionTuning, offerMicros int64, target AcquisitionTarget, draw func() float64) (accepted bool, reason string) {
	if offerMicros < target.MarketCapMicros {
		return false, ReasonBelowMarketCap
	}
	if offerMicros < askingPriceMicros(target) {
		if draw() < t.InsistChance {
			return false, ReasonInsistOnPremium
		}
		return true, ""
	}
	return true, ""
}

// subsidiaryFromDeal builds the portfolio entry a closed acquisition
// creates.
func subsidiaryFromDeal(target AcquisitionTarget, offerMicros int64) Subsidiary {
	return Subsidiary{
		Name:                target.Name,
		MarketCapMicros:     target.MarketCapMicros,
		BaseProfitMicros:    target.AnnualProfitMicros,
		CurrentProfitMicros: target.AnnualProfitMicros,
		PurchasePriceMicros: offerMicros,
	}
}
