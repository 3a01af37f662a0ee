package corp

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SubsidiaryActionResult reports one portfolio mutation. Subsidiary is
// nil after a sale.
type SubsidiaryActionResult struct {
	Action         string          `json:"action"`
	CostMicros     int64           `json:"cost_micros,omitempty"`
	ProceedsMicros int64           `json:"proceeds_micros,omitempty"`
	Subsidiary     *SubsidiaryView `json:"subsidiary,omitempty"`
}

func (s *Service) ListSubsidiaries(ctx context.Context, userID string) ([]SubsidiaryView, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	company, err := companyTx(ctx, tx, userID, false)
	if err != nil {
		return nil, err
	}
	subs, err := subsidiariesTx(ctx, tx, company.ID, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	out := make([]SubsidiaryView, 0, len(subs))
	for _, sub := range subs {
		out = append(out, SubsidiaryView{Subsidiary: sub, Health: sub.Health()})
	}
	return out, nil
}

func subsidiaryTx(ctx context.Context, tx pgx.Tx, companyID int64, in SubsidiaryActionInput, lock bool) (Subsidiary, error) {
	var sub Subsidiary
	query := `
		SELECT id, name, market_cap_micros, base_profit_micros, current_profit_micros,
		       purchase_price_micros, acquired_at
		FROM game.subsidiaries
		WHERE id = $1 AND company_id = $2
	`
	if lock {
		query += " FOR UPDATE"
	}
	err := tx.QueryRow(ctx, query, in.SubsidiaryID, companyID).Scan(
		&sub.ID, &sub.Name, &sub.MarketCapMicros, &sub.BaseProfitMicros,
		&sub.CurrentProfitMicros, &sub.PurchasePriceMicros, &sub.AcquiredAt)
	if err == pgx.ErrNoRows {
		return sub, fmt.Errorf("%w: subsidiary", ErrNotFound)
	}
	return sub, err
}

func saveSubsidiaryTx(ctx context.Context, tx pgx.Tx, sub Subsidiary) error {
	_, err := tx.Exec(ctx, `
		UPDATE game.subsidiaries
		SET base_profit_micros = $1, current_profit_micros = $2, updated_at = now()
		WHERE id = $3
	`, sub.BaseProfitMicros, sub.CurrentProfitMicros, sub.ID)
	return err
}

// InvestInSubsidiary grows the profit base for a tenth of the
// subsidiary's market cap, paid out of company capital.
func (s *Service) InvestInSubsidiary(ctx context.Context, in SubsidiaryActionInput) (SubsidiaryActionResult, error) {
	var res SubsidiaryActionResult
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "sub_invest"); err != nil {
			return err
		}
		company, err := companyTx(ctx, tx, in.UserID, true)
		if err != nil {
			return err
		}
		sub, err := subsidiaryTx(ctx, tx, company.ID, in, true)
		if err != nil {
			return err
		}
		cost := investCostMicros(sub)
		if company.CapitalMicros < cost {
			return fmt.Errorf("%w: investment costs %.2f, capital %.2f",
				ErrInsufficientFunds, MicrosToCoins(cost), MicrosToCoins(company.CapitalMicros))
		}
		company.CapitalMicros -= cost
		next := applyInvest(sub)
		if err := saveCompanyTx(ctx, tx, company); err != nil {
			return err
		}
		if err := saveSubsidiaryTx(ctx, tx, next); err != nil {
			return err
		}
		if err := appendCapitalEvents(ctx, tx, company.ID, "sub_invest", "capital", -cost); err != nil {
			return err
		}
		res = SubsidiaryActionResult{
			Action:     "invest",
			CostMicros: cost,
			Subsidiary: &SubsidiaryView{Subsidiary: next, Health: next.Health()},
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	s.log.Info("subsidiary investment", "user_id", in.UserID,
		"subsidiary_id", in.SubsidiaryID, "cost_micros", res.CostMicros)
	return res, nil
}

// RestructureSubsidiary turns a loss-maker around for a tenth of its
// market cap.
func (s *Service) RestructureSubsidiary(ctx context.Context, in SubsidiaryActionInput) (SubsidiaryActionResult, error) {
	var res SubsidiaryActionResult
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "sub_restructure"); err != nil {
			return err
		}
		company, err := companyTx(ctx, tx, in.UserID, true)
		if err != nil {
			return err
		}
		sub, err := subsidiaryTx(ctx, tx, company.ID, in, true)
		if err != nil {
			return err
		}
		cost := restructureCostMicros(sub)
		if company.CapitalMicros < cost {
			return fmt.Errorf("%w: restructuring costs %.2f, capital %.2f",
				ErrInsufficientFunds, MicrosToCoins(cost), MicrosToCoins(company.CapitalMicros))
		}
		next, err := applyRestructure(sub)
		if err != nil {
			return err
		}
		company.CapitalMicros -= cost
		if err := saveCompanyTx(ctx, tx, company); err != nil {
			return err
		}
		if err := saveSubsidiaryTx(ctx, tx, next); err != nil {
			return err
		}
		if err := appendCapitalEvents(ctx, tx, company.ID, "sub_restructure", "capital", -cost); err != nil {
			return err
		}
		res = SubsidiaryActionResult{
			Action:     "restructure",
			CostMicros: cost,
			Subsidiary: &SubsidiaryView{Subsidiary: next, Health: next.Health()},
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	s.log.Info("subsidiary restructured", "user_id", in.UserID,
		"subsidiary_id", in.SubsidiaryID, "cost_micros", res.CostMicros)
	return res, nil
}

// SellSubsidiary exits the position. fire_sale recovers half the market
// cap immediately; market_price scales the purchase price by performance.
func (s *Service) SellSubsidiary(ctx context.Context, in SubsidiaryActionInput) (SubsidiaryActionResult, error) {
	var res SubsidiaryActionResult
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "sub_sell"); err != nil {
			return err
		}
		company, err := companyTx(ctx, tx, in.UserID, true)
		if err != nil {
			return err
		}
		sub, err := subsidiaryTx(ctx, tx, company.ID, in, true)
		if err != nil {
			return err
		}
		var proceeds int64
		switch in.Mode {
		case "fire_sale":
			proceeds = fireSaleProceedsMicros(sub)
		case "market_price":
			proceeds = marketSalePriceMicros(sub)
		default:
			return fmt.Errorf("%w: sale mode %q", ErrInvalidParameter, in.Mode)
		}
		company.CapitalMicros += proceeds
		if err := saveCompanyTx(ctx, tx, company); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			DELETE FROM game.subsidiaries WHERE id = $1
		`, sub.ID); err != nil {
			return err
		}
		if err := appendCapitalEvents(ctx, tx, company.ID, "sub_sell", "capital", proceeds); err != nil {
			return err
		}
		res = SubsidiaryActionResult{Action: in.Mode, ProceedsMicros: proceeds}
		return nil
	})
	if err != nil {
		return res, err
	}
	s.log.Info("subsidiary sold", "user_id", in.UserID,
		"subsidiary_id", in.SubsidiaryID, "mode", in.Mode, "proceeds_micros", res.ProceedsMicros)
	return res, nil
}
