package corp

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// nextNorm funnels gaussian draws through the same guarded source as
// nextFloat.
func (s *Service) nextNorm() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.NormFloat64()
}

// driftFactor builds one day's multiplicative move: gaussian noise plus
// an occasional shock, floored so a single day never wipes a position.
func (s *Service) driftFactor(noiseScale, shockProb, shockScale, maxDrop float64) float64 {
	move := s.nextNorm() * noiseScale
	if s.nextFloat() < shockProb {
		shock := s.nextFloat() * shockScale
		if s.nextFloat() < 0.5 {
			shock = -shock
		}
		move += shock
	}
	factor := 1 + move
	if floor := 1 - maxDrop; factor < floor {
		factor = floor
	}
	return factor
}

// RunDailyTick advances every company one simulated day: price and
// valuation drift, revenue and profit noise, subsidiary profit drift and
// a day of interest on outstanding debt.
func (s *Service) RunDailyTick(ctx context.Context, mode string) error {
	dyn := driftParams(mode)

	rows, err := s.db.Query(ctx, `SELECT id FROM game.companies ORDER BY id`)
	if err != nil {
		return err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		if err := s.tickCompany(ctx, id, dyn); err != nil {
			s.log.Error("daily tick failed for company", "company_id", id, "error", err)
		}
	}
	s.log.Info("daily tick complete", "companies", len(ids), "mode", mode)
	return nil
}

func (s *Service) tickCompany(ctx context.Context, companyID int64, dyn driftDynamics) error {
	priceFactor := s.driftFactor(dyn.PriceNoiseScale, dyn.PriceShockProb, dyn.PriceShockScale, dyn.MaxDropPerDay)
	profitFactor := s.driftFactor(dyn.ProfitNoiseScale, dyn.ProfitShockProb, dyn.ProfitShockScale, dyn.MaxDropPerDay)
	revenueFactor := 1 + s.nextNorm()*dyn.RevenueNoiseScale

	return s.runSerializable(ctx, func(tx pgx.Tx) error {
		var c Company
		err := tx.QueryRow(ctx, `
			SELECT id, name, capital_micros, valuation_micros, share_price_micros,
			       daily_change_pct, debt_micros, annual_profit_micros, monthly_revenue_micros, is_public
			FROM game.companies
			WHERE id = $1
			FOR UPDATE
		`, companyID).Scan(
			&c.ID, &c.Name, &c.CapitalMicros, &c.ValuationMicros, &c.SharePriceMicros,
			&c.DailyChangePct, &c.DebtMicros, &c.AnnualProfitMicros, &c.MonthlyRevenueMicros, &c.IsPublic)
		if err != nil {
			return err
		}

		c.SharePriceMicros = mulMicros(c.SharePriceMicros, priceFactor)
		if c.SharePriceMicros < 1 {
			c.SharePriceMicros = 1
		}
		c.ValuationMicros = mulMicros(c.ValuationMicros, priceFactor)
		c.DailyChangePct = (priceFactor - 1) * 100
		c.MonthlyRevenueMicros = mulMicros(c.MonthlyRevenueMicros, revenueFactor)
		if c.MonthlyRevenueMicros < 0 {
			c.MonthlyRevenueMicros = 0
		}
		c.AnnualProfitMicros = scaleProfit(c.AnnualProfitMicros, profitFactor)

		var subProfit int64
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(current_profit_micros), 0)
			FROM game.subsidiaries WHERE company_id = $1
		`, companyID).Scan(&subProfit); err != nil {
			return err
		}

		// A day of interest at the current rating's rate compounds
		// onto the debt stack.
		if c.DebtMicros > 0 {
			rating := Rate(c.AnnualProfitMicros+subProfit, c.DebtMicros, c.MonthlyRevenueMicros)
			c.DebtMicros += mulMicros(c.DebtMicros, rating.RatePct/100/365)
		}

		if err := saveCompanyTx(ctx, tx, c); err != nil {
			return err
		}

		subs, err := subsidiariesTx(ctx, tx, companyID, true)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			f := s.driftFactor(dyn.ProfitNoiseScale, dyn.ProfitShockProb, dyn.ProfitShockScale, dyn.MaxDropPerDay)
			sub.CurrentProfitMicros = scaleProfit(sub.CurrentProfitMicros, f)
			if err := saveSubsidiaryTx(ctx, tx, sub); err != nil {
				return err
			}
		}
		return nil
	})
}

// scaleProfit drifts a profit figure that may be negative. Losses drift
// on magnitude, so a bad year gets noisier, not automatically better.
func scaleProfit(profitMicros int64, factor float64) int64 {
	if profitMicros >= 0 {
		return mulMicros(profitMicros, factor)
	}
	magnitude := mulMicros(-profitMicros, 2-factor)
	if magnitude < 0 {
		magnitude = 0
	}
	return -magnitude
}
