package corp

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Ledger is the canonical shareholder list of one company. All stake
// movement goes through it so the sum-100 invariant survives every
// mutation.
type Ledger []Shareholder

func (l Ledger) Sum() float64 {
	total := 0.0
	for _, s := range l {
		total += s.Percentage
	}
	return total
}

func (l Ledger) Validate() error {
	for _, s := range l {
		if s.Percentage < -PercentEpsilon {
			return fmt.Errorf("%w: negative stake for %s", ErrInvalidState, s.Name)
		}
	}
	if math.Abs(l.Sum()-100) > PercentEpsilon {
		return fmt.Errorf("%w: ledger sum %.8f != 100", ErrInvalidState, l.Sum())
	}
	return nil
}

func (l Ledger) indexOf(id uuid.UUID) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

func (l Ledger) Find(id uuid.UUID) (Shareholder, bool) {
	if i := l.indexOf(id); i >= 0 {
		return l[i], true
	}
	return Shareholder{}, false
}

func (l Ledger) player() int {
	for i := range l {
		if l[i].Kind == KindPlayer {
			return i
		}
	}
	return -1
}

// PlayerStake is the player's total percentage, the value Company
// mirrors as OwnershipPct.
func (l Ledger) PlayerStake() float64 {
	if i := l.player(); i >= 0 {
		return l[i].Percentage
	}
	return 0
}

func (l Ledger) PlayerID() (uuid.UUID, bool) {
	if i := l.player(); i >= 0 {
		return l[i].ID, true
	}
	return uuid.Nil, false
}

// floatIndex returns the open-market float holder, the counterparty for
// dilution and buyback.
func (l Ledger) floatIndex() int {
	for i := range l {
		if l[i].IsFloat {
			return i
		}
	}
	return -1
}

// TransferStake moves pct between exactly two holders in one step. The
// sum is untouched by construction.
func (l Ledger) TransferStake(fromID, toID uuid.UUID, pct float64) (Ledger, error) {
	if pct <= 0 {
		return nil, fmt.Errorf("%w: transfer pct must be > 0", ErrInvalidParameter)
	}
	from := l.indexOf(fromID)
	to := l.indexOf(toID)
	if from < 0 || to < 0 {
		return nil, fmt.Errorf("%w: shareholder", ErrNotFound)
	}
	if l[from].Percentage < pct-PercentEpsilon {
		return nil, fmt.Errorf("%w: %s holds %.2f%%, cannot transfer %.2f%%",
			ErrInsufficientStake, l[from].Name, l[from].Percentage, pct)
	}
	out := append(Ledger(nil), l...)
	out[from].Percentage -= pct
	if out[from].Percentage < 0 {
		out[from].Percentage = 0
	}
	out[to].Percentage += pct
	return out, nil
}

// AdjustRelationship clamps the result to [0,100]. Player entries are
// ignored, they carry no relationship.
func (l Ledger) AdjustRelationship(npcID uuid.UUID, delta int) (Ledger, error) {
	i := l.indexOf(npcID)
	if i < 0 {
		return nil, fmt.Errorf("%w: shareholder", ErrNotFound)
	}
	if l[i].Kind != KindNPC {
		return nil, fmt.Errorf("%w: relationship applies to npc holders only", ErrInvalidState)
	}
	out := append(Ledger(nil), l...)
	next := out[i].Relationship + delta
	if next < 0 {
		next = 0
	}
	if next > 100 {
		next = 100
	}
	out[i].Relationship = next
	return out, nil
}

// dilute scales every holder down by (1-pct/100) and hands the issued
// stake to the open-market float so the ledger keeps summing to 100.
func (l Ledger) dilute(pct float64) (Ledger, error) {
	fi := l.floatIndex()
	if fi < 0 {
		return nil, fmt.Errorf("%w: no open-market float holder", ErrInvalidState)
	}
	out := append(Ledger(nil), l...)
	factor := 1 - pct/100
	issued := 0.0
	for i := range out {
		if i == fi {
			continue
		}
		was := out[i].Percentage
		out[i].Percentage = was * factor
		issued += was - out[i].Percentage
	}
	out[fi].Percentage += issued
	return out, nil
}

// buyBack scales every non-float holder up by multiplier, retiring stake
// from the float. The float must cover the retirement: rescaling an
// overshot sum back to 100 would exactly invert the multiplier and hand
// every co-owner their old stake back. The one exception is a sole
// non-float holder, who caps at 100 with the float exhausted, which is
// where the min(100, ...) ownership cap comes from.
func (l Ledger) buyBack(multiplier float64) (Ledger, error) {
	fi := l.floatIndex()
	if fi < 0 {
		return nil, fmt.Errorf("%w: no open-market float holder", ErrInvalidState)
	}
	out := append(Ledger(nil), l...)
	sum := 0.0
	holders := 0
	for i := range out {
		if i == fi {
			continue
		}
		out[i].Percentage *= multiplier
		sum += out[i].Percentage
		holders++
	}
	if sum > 100+PercentEpsilon {
		if holders > 1 {
			return nil, fmt.Errorf("%w: open-market float %.2f%% cannot absorb the retirement",
				ErrInvalidState, l[fi].Percentage)
		}
		for i := range out {
			if i == fi {
				continue
			}
			out[i].Percentage = 100
		}
		out[fi].Percentage = 0
		return out, nil
	}
	out[fi].Percentage = 100 - sum
	if out[fi].Percentage < 0 {
		out[fi].Percentage = 0
	}
	return out, nil
}
