package corp

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// PerformDilution issues new shares worth pct of the valuation. Raised
// cash lands in company capital; every existing holder is scaled down and
// the issued stake goes to the open-market float.
func (s *Service) PerformDilution(ctx context.Context, in CapitalOpInput) (CapitalResult, error) {
	var res CapitalResult
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "dilution"); err != nil {
			return err
		}
		company, err := companyTx(ctx, tx, in.UserID, true)
		if err != nil {
			return err
		}
		led, err := ledgerTx(ctx, tx, company.ID, true)
		if err != nil {
			return err
		}
		nextCompany, nextLed, r, err := ApplyDilution(company, led, in.Pct)
		if err != nil {
			return err
		}
		if err := nextLed.Validate(); err != nil {
			return err
		}
		if err := saveCompanyTx(ctx, tx, nextCompany); err != nil {
			return err
		}
		if err := saveLedgerTx(ctx, tx, company.ID, nextLed); err != nil {
			return err
		}
		if err := appendCapitalEvents(ctx, tx, company.ID, "dilution", "capital", r.CapitalRaisedMicros); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return res, err
	}
	s.log.Info("dilution executed", "user_id", in.UserID, "pct", in.Pct,
		"raised_micros", res.CapitalRaisedMicros, "majority_lost", res.MajorityLost)
	return res, nil
}

// PerformBuyback retires float stake at market value, scaling every real
// holder up. Capital pays the cost.
func (s *Service) PerformBuyback(ctx context.Context, in CapitalOpInput) (CapitalResult, error) {
	var res CapitalResult
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "buyback"); err != nil {
			return err
		}
		company, err := companyTx(ctx, tx, in.UserID, true)
		if err != nil {
			return err
		}
		led, err := ledgerTx(ctx, tx, company.ID, true)
		if err != nil {
			return err
		}
		nextCompany, nextLed, r, err := ApplyBuyback(company, led, in.Pct)
		if err != nil {
			return err
		}
		if err := nextLed.Validate(); err != nil {
			return err
		}
		if err := saveCompanyTx(ctx, tx, nextCompany); err != nil {
			return err
		}
		if err := saveLedgerTx(ctx, tx, company.ID, nextLed); err != nil {
			return err
		}
		if err := appendCapitalEvents(ctx, tx, company.ID, "buyback", "capital", -r.CostMicros); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return res, err
	}
	s.log.Info("buyback executed", "user_id", in.UserID, "pct", in.Pct,
		"cost_micros", res.CostMicros, "ownership_pct", res.NewOwnershipPct)
	return res, nil
}

// PayDividend distributes pct of capital across the ledger. The player's
// slice is credited to personal cash; npc slices leave the company and
// are journalled against the counterparty.
func (s *Service) PayDividend(ctx context.Context, in CapitalOpInput) (CapitalResult, error) {
	var res CapitalResult
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "dividend"); err != nil {
			return err
		}
		company, err := companyTx(ctx, tx, in.UserID, true)
		if err != nil {
			return err
		}
		led, err := ledgerTx(ctx, tx, company.ID, true)
		if err != nil {
			return err
		}
		nextCompany, r, err := ApplyDividend(company, led, in.Pct)
		if err != nil {
			return err
		}
		cash, err := playerCashTx(ctx, tx, in.UserID, true)
		if err != nil {
			return err
		}
		if err := saveCompanyTx(ctx, tx, nextCompany); err != nil {
			return err
		}
		if err := savePlayerCashTx(ctx, tx, in.UserID, cash+r.PlayerPayoutMicros); err != nil {
			return err
		}
		if err := appendCapitalEvents(ctx, tx, company.ID, "dividend", "capital", -r.PoolMicros); err != nil {
			return err
		}
		if err := appendCapitalEvents(ctx, tx, company.ID, "dividend", "personal", r.PlayerPayoutMicros); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return res, err
	}
	s.log.Info("dividend paid", "user_id", in.UserID, "pct", in.Pct,
		"pool_micros", res.PoolMicros, "payout_micros", res.PlayerPayoutMicros, "reserve_risk", res.ReserveRisk)
	return res, nil
}

// PerformStockSplit divides the share price. Stakes and valuation are
// untouched; the ledger never moves.
func (s *Service) PerformStockSplit(ctx context.Context, in CapitalOpInput) (CapitalResult, error) {
	var res CapitalResult
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "stock_split"); err != nil {
			return err
		}
		company, err := companyTx(ctx, tx, in.UserID, true)
		if err != nil {
			return err
		}
		nextCompany, r, err := ApplyStockSplit(company)
		if err != nil {
			return err
		}
		if err := saveCompanyTx(ctx, tx, nextCompany); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return res, err
	}
	s.log.Info("stock split executed", "user_id", in.UserID,
		"share_price_micros", res.NewSharePriceMicros)
	return res, nil
}
