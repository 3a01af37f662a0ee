package corp

import (
	"fmt"
	"math"
)

// decideShareBuy resolves an NPC's answer to a lot purchase proposal.
// ratio is proposed price over market share price. The draw is consumed
// only in the coin-flip branch so replays stay aligned.
func decideShareBuy(t shareTuning, relationship int, ratio float64, draw func() float64) bool {
	switch {
	case relationship > t.HighRelThreshold:
		return ratio >= t.HighRelMinRatio
	case relationship < t.LowRelThreshold:
		return ratio > t.LowRelMinRatio
	default:
		if ratio >= t.FairMinRatio {
			return true
		}
		return ratio > t.CoinFlipMinRatio && draw() > t.CoinFlipChance
	}
}

// sellOfferMicros is the take-it-or-leave-it per-lot price an NPC quotes
// when the player sells.
func sellOfferMicros(t shareTuning, sharePriceMicros int64) int64 {
	return mulMicros(sharePriceMicros, t.SellOfferPremium)
}

// maxBuyLots caps a purchase at the NPC's whole stake.
func maxBuyLots(npcPct float64) int {
	return int(math.Floor(npcPct * 10))
}

func validateBuyLots(lots int, npc Shareholder) error {
	if lots <= 0 {
		return fmt.Errorf("%w: lots must be > 0", ErrInvalidParameter)
	}
	if max := maxBuyLots(npc.Percentage); lots > max {
		return fmt.Errorf("%w: %s holds at most %d lots", ErrInvalidParameter, npc.Name, max)
	}
	return nil
}

func validateSellLots(t shareTuning, lots int, playerPct float64) error {
	if lots <= 0 {
		return fmt.Errorf("%w: lots must be > 0", ErrInvalidParameter)
	}
	if lots > t.MaxSellLots {
		return fmt.Errorf("%w: at most %d lots per sale", ErrInvalidParameter, t.MaxSellLots)
	}
	if stake := float64(lots) * LotStakePct; playerPct < stake-PercentEpsilon {
		return fmt.Errorf("%w: selling %.1f%% exceeds player stake %.1f%%",
			ErrInsufficientStake, stake, playerPct)
	}
	return nil
}
