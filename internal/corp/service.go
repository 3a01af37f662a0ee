package corp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service owns the game state store. Every mutation is one serializable
// transaction; the pure engines compute, the Service commits.
type Service struct {
	db       *pgxpool.Pool
	log      *slog.Logger
	mu       sync.Mutex
	rand     *mathrand.Rand
	sessions *sessionRegistry
	shareT   shareTuning
	acqT     acquisitionTuning
}

type Option func(*Service)

// WithRand replaces the draw source so outcomes replay in tests.
func WithRand(r *mathrand.Rand) Option {
	return func(s *Service) { s.rand = r }
}

// WithNegotiationDelay sets the "thinking" delay before a scheduled
// transition fires. Zero resolves inline.
func WithNegotiationDelay(d time.Duration) Option {
	return func(s *Service) { s.sessions = newSessionRegistry(d) }
}

func NewService(db *pgxpool.Pool, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		db:       db,
		log:      logger,
		rand:     mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		sessions: newSessionRegistry(2 * time.Second),
		shareT:   defaultShareTuning(),
		acqT:     defaultAcquisitionTuning(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// nextFloat funnels every uniform draw through one guarded source.
func (s *Service) nextFloat() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64()
}

// EnsurePlayer creates the player's wallet, company and founding ledger
// on first login. Idempotent.
func (s *Service) EnsurePlayer(ctx context.Context, userID, companyName string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM game.companies WHERE owner_user_id = $1)
	`, userID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO game.players (user_id, cash_micros, reputation)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, StarterCashMicros, StarterReputation); err != nil {
		return err
	}

	name := strings.TrimSpace(companyName)
	if name == "" {
		name = "Founder Holdings"
	}
	var companyID int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO game.companies
		    (owner_user_id, name, capital_micros, valuation_micros, share_price_micros,
		     daily_change_pct, debt_micros, annual_profit_micros, monthly_revenue_micros, is_public)
		VALUES ($1, $2, $3, $4, $5, 0, 0, $6, $7, true)
		RETURNING id
	`, userID, name,
		2_000_000*MicrosPerCoin, 18_600_000*MicrosPerCoin, 120*MicrosPerCoin,
		450_000*MicrosPerCoin, 180_000*MicrosPerCoin).Scan(&companyID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO game.shareholders (id, company_id, name, kind, percentage, relationship, bio, is_float)
		VALUES ($1, $2, 'You', 'player', $3, 0, '', false)
	`, uuid.New(), companyID, StarterPlayerStakePct); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO game.shareholders (id, company_id, name, kind, percentage, relationship, bio, is_float)
		VALUES ($1, $2, $3, 'npc', $4, 0, 'Free-floating shares held by the public.', true)
	`, uuid.New(), companyID, OpenMarketName, StarterFloatPct); err != nil {
		return err
	}
	for _, f := range founderRoster {
		if _, err := tx.Exec(ctx, `
			INSERT INTO game.shareholders (id, company_id, name, kind, percentage, relationship, bio, is_float)
			VALUES ($1, $2, $3, 'npc', $4, $5, $6, false)
		`, uuid.New(), companyID, f.Name, f.Percentage, f.Relationship, f.Bio); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// SeedTargets loads the acquisition catalog once.
func (s *Service) SeedTargets(ctx context.Context) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for _, t := range targetCatalog {
		if _, err := tx.Exec(ctx, `
			INSERT INTO game.acquisition_targets
			    (name, category, market_cap_micros, premium, synergy, sentiment, annual_profit_micros)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (name) DO NOTHING
		`, t.Name, t.Category, t.MarketCapMicros, t.Premium, t.Synergy, string(t.Sentiment), t.AnnualProfitMicros); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Service) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	var out Dashboard
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return out, err
	}
	defer tx.Rollback(ctx)

	company, err := companyTx(ctx, tx, userID, false)
	if err != nil {
		return out, err
	}
	led, err := ledgerTx(ctx, tx, company.ID, false)
	if err != nil {
		return out, err
	}
	company.OwnershipPct = led.PlayerStake()

	if err := tx.QueryRow(ctx, `
		SELECT cash_micros, reputation FROM game.players WHERE user_id = $1
	`, userID).Scan(&out.CashMicros, &out.Reputation); err != nil {
		return out, err
	}

	subs, err := subsidiariesTx(ctx, tx, company.ID, false)
	if err != nil {
		return out, err
	}
	if err := tx.Commit(ctx); err != nil {
		return out, err
	}

	out.Company = company
	out.Shareholders = led
	out.Subsidiaries = make([]SubsidiaryView, 0, len(subs))
	profit := company.AnnualProfitMicros
	for _, sub := range subs {
		out.Subsidiaries = append(out.Subsidiaries, SubsidiaryView{Subsidiary: sub, Health: sub.Health()})
		profit += sub.CurrentProfitMicros
	}
	out.Credit = creditView(company, profit)
	return out, nil
}

func (s *Service) CompanyState(ctx context.Context, userID string) (Company, error) {
	var company Company
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return company, err
	}
	defer tx.Rollback(ctx)
	company, err = companyTx(ctx, tx, userID, false)
	if err != nil {
		return company, err
	}
	led, err := ledgerTx(ctx, tx, company.ID, false)
	if err != nil {
		return company, err
	}
	company.OwnershipPct = led.PlayerStake()
	return company, tx.Commit(ctx)
}

func (s *Service) ListShareholders(ctx context.Context, userID string) (Ledger, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	company, err := companyTx(ctx, tx, userID, false)
	if err != nil {
		return nil, err
	}
	led, err := ledgerTx(ctx, tx, company.ID, false)
	if err != nil {
		return nil, err
	}
	return led, tx.Commit(ctx)
}

// CompanyCredit reports the financing tier. Profit aggregates the company
// operating profit with every subsidiary's current profit.
func (s *Service) CompanyCredit(ctx context.Context, userID string) (CreditView, error) {
	var out CreditView
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return out, err
	}
	defer tx.Rollback(ctx)
	company, err := companyTx(ctx, tx, userID, false)
	if err != nil {
		return out, err
	}
	var subProfit int64
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(current_profit_micros), 0)
		FROM game.subsidiaries WHERE company_id = $1
	`, company.ID).Scan(&subProfit); err != nil {
		return out, err
	}
	if err := tx.Commit(ctx); err != nil {
		return out, err
	}
	return creditView(company, company.AnnualProfitMicros+subProfit), nil
}

func creditView(c Company, profitMicros int64) CreditView {
	rating := Rate(profitMicros, c.DebtMicros, c.MonthlyRevenueMicros)
	view := CreditView{Rating: rating}
	if c.IsPublic {
		bond := BondRatePct(rating)
		view.BondRatePct = &bond
	}
	return view
}

// --- transaction helpers ---

func companyTx(ctx context.Context, tx pgx.Tx, userID string, lock bool) (Company, error) {
	var c Company
	query := `
		SELECT id, name, capital_micros, valuation_micros, share_price_micros,
		       daily_change_pct, debt_micros, annual_profit_micros, monthly_revenue_micros, is_public
		FROM game.companies
		WHERE owner_user_id = $1
	`
	if lock {
		query += " FOR UPDATE"
	}
	err := tx.QueryRow(ctx, query, userID).Scan(
		&c.ID, &c.Name, &c.CapitalMicros, &c.ValuationMicros, &c.SharePriceMicros,
		&c.DailyChangePct, &c.DebtMicros, &c.AnnualProfitMicros, &c.MonthlyRevenueMicros, &c.IsPublic)
	if err == pgx.ErrNoRows {
		return c, fmt.Errorf("%w: company", ErrNotFound)
	}
	return c, err
}

func saveCompanyTx(ctx context.Context, tx pgx.Tx, c Company) error {
	_, err := tx.Exec(ctx, `
		UPDATE game.companies
		SET capital_micros = $1, valuation_micros = $2, share_price_micros = $3,
		    daily_change_pct = $4, debt_micros = $5, annual_profit_micros = $6,
		    monthly_revenue_micros = $7, is_public = $8, updated_at = now()
		WHERE id = $9
	`, c.CapitalMicros, c.ValuationMicros, c.SharePriceMicros,
		c.DailyChangePct, c.DebtMicros, c.AnnualProfitMicros,
		c.MonthlyRevenueMicros, c.IsPublic, c.ID)
	return err
}

func ledgerTx(ctx context.Context, tx pgx.Tx, companyID int64, lock bool) (Ledger, error) {
	query := `
		SELECT id, name, kind, percentage, relationship, bio, is_float
		FROM game.shareholders
		WHERE company_id = $1
		ORDER BY percentage DESC, name
	`
	if lock {
		query += " FOR UPDATE"
	}
	rows, err := tx.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var led Ledger
	for rows.Next() {
		var sh Shareholder
		if err := rows.Scan(&sh.ID, &sh.Name, &sh.Kind, &sh.Percentage, &sh.Relationship, &sh.Bio, &sh.IsFloat); err != nil {
			return nil, err
		}
		led = append(led, sh)
	}
	return led, rows.Err()
}

func saveLedgerTx(ctx context.Context, tx pgx.Tx, companyID int64, led Ledger) error {
	for _, sh := range led {
		if _, err := tx.Exec(ctx, `
			UPDATE game.shareholders
			SET percentage = $1, relationship = $2, updated_at = now()
			WHERE id = $3 AND company_id = $4
		`, sh.Percentage, sh.Relationship, sh.ID, companyID); err != nil {
			return err
		}
	}
	return nil
}

func subsidiariesTx(ctx context.Context, tx pgx.Tx, companyID int64, lock bool) ([]Subsidiary, error) {
	query := `
		SELECT id, name, market_cap_micros, base_profit_micros, current_profit_micros,
		       purchase_price_micros, acquired_at
		FROM game.subsidiaries
		WHERE company_id = $1
		ORDER BY acquired_at
	`
	if lock {
		query += " FOR UPDATE"
	}
	rows, err := tx.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Subsidiary
	for rows.Next() {
		var sub Subsidiary
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.MarketCapMicros, &sub.BaseProfitMicros,
			&sub.CurrentProfitMicros, &sub.PurchasePriceMicros, &sub.AcquiredAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func playerCashTx(ctx context.Context, tx pgx.Tx, userID string, lock bool) (int64, error) {
	query := `SELECT cash_micros FROM game.players WHERE user_id = $1`
	if lock {
		query += " FOR UPDATE"
	}
	var cash int64
	err := tx.QueryRow(ctx, query, userID).Scan(&cash)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("%w: player", ErrNotFound)
	}
	return cash, err
}

func savePlayerCashTx(ctx context.Context, tx pgx.Tx, userID string, cash int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE game.players SET cash_micros = $1, updated_at = now() WHERE user_id = $2
	`, cash, userID)
	return err
}

func claimIdempotency(ctx context.Context, tx pgx.Tx, userID, key, action string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: idempotency key is required", ErrInvalidParameter)
	}
	cmd, err := tx.Exec(ctx, `
		INSERT INTO game.idempotency_keys (user_id, key, action, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, key) DO NOTHING
	`, userID, key, action)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDuplicateIdempotency
	}
	return nil
}

// appendCapitalEvents journals one double-entry group: the company (or
// personal) side and its mirrored counterparty.
func appendCapitalEvents(ctx context.Context, tx pgx.Tx, companyID int64, action, account string, deltaMicros int64) error {
	txID := uuid.NewString()
	meta, _ := json.Marshal(map[string]any{"action": action})
	_, err := tx.Exec(ctx, `
		INSERT INTO game.capital_events (tx_group_id, company_id, account, delta_micros, metadata)
		VALUES
		($1, $2, $3, $4, $5::jsonb),
		($1, $2, 'counterparty', $6, $5::jsonb)
	`, txID, companyID, account, deltaMicros, string(meta), -deltaMicros)
	return err
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// runSerializable retries fn on serialization conflicts with backoff, the
// discipline every mutating entry point shares.
func (s *Service) runSerializable(ctx context.Context, fn func(tx pgx.Tx) error) error {
	const maxAttempts = 8
	retryDelay := 75 * time.Millisecond
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return err
		}
		err = func() error {
			defer tx.Rollback(ctx)
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit(ctx)
		}()
		if err == nil {
			return nil
		}
		if !isSerializationError(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			return ErrTxConflict
		}
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return err
		}
		if retryDelay < 1200*time.Millisecond {
			retryDelay *= 2
		}
	}
	return ErrTxConflict
}
