package corp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func targetTx(ctx context.Context, tx pgx.Tx, targetID int64) (AcquisitionTarget, error) {
	var t AcquisitionTarget
	err := tx.QueryRow(ctx, `
		SELECT id, name, category, market_cap_micros, premium, synergy, sentiment, annual_profit_micros
		FROM game.acquisition_targets
		WHERE id = $1
	`, targetID).Scan(&t.ID, &t.Name, &t.Category, &t.MarketCapMicros, &t.Premium,
		&t.Synergy, &t.Sentiment, &t.AnnualProfitMicros)
	if err == pgx.ErrNoRows {
		return t, fmt.Errorf("%w: acquisition target", ErrNotFound)
	}
	return t, err
}

// ListTargets returns the acquisition catalog.
func (s *Service) ListTargets(ctx context.Context) ([]AcquisitionTarget, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, category, market_cap_micros, premium, synergy, sentiment, annual_profit_micros
		FROM game.acquisition_targets
		ORDER BY market_cap_micros
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AcquisitionTarget
	for rows.Next() {
		var t AcquisitionTarget
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.MarketCapMicros, &t.Premium,
			&t.Synergy, &t.Sentiment, &t.AnnualProfitMicros); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InitiateAcquisition opens an acquisition attempt. The session walks
// board_voting and target_negotiating on scheduled transitions; only an
// accepted deal commits.
func (s *Service) InitiateAcquisition(ctx context.Context, in AcquisitionInput) (AcquisitionSession, error) {
	if in.OfferMicros <= 0 {
		return AcquisitionSession{}, fmt.Errorf("%w: offer must be > 0", ErrInvalidParameter)
	}

	var target AcquisitionTarget
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "acquisition"); err != nil {
			return err
		}
		t, err := targetTx(ctx, tx, in.TargetID)
		if err != nil {
			return err
		}
		company, err := companyTx(ctx, tx, in.UserID, false)
		if err != nil {
			return err
		}
		var owned bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM game.subsidiaries WHERE company_id = $1 AND name = $2)
		`, company.ID, t.Name).Scan(&owned); err != nil {
			return err
		}
		if owned {
			return fmt.Errorf("%w: %s is already a subsidiary", ErrInvalidState, t.Name)
		}
		if company.CapitalMicros < in.OfferMicros {
			return fmt.Errorf("%w: offer %.2f exceeds capital %.2f",
				ErrInsufficientFunds, MicrosToCoins(in.OfferMicros), MicrosToCoins(company.CapitalMicros))
		}
		target = t
		return nil
	})
	if err != nil {
		return AcquisitionSession{}, err
	}

	session := &AcquisitionSession{
		ID:          uuid.New(),
		UserID:      in.UserID,
		TargetID:    target.ID,
		TargetName:  target.Name,
		OfferMicros: in.OfferMicros,
		Stage:       StageBoardVoting,
	}
	s.sessions.putDeal(session)
	s.sessions.schedule(session.ID, func() { s.resolveBoardVote(session) })
	// With a zero delay the stage machine already ran; snapshot after it.
	out, _ := s.sessions.dealSnapshot(session.ID)
	return out, nil
}

// resolveBoardVote is the board_voting transition. Approval moves the
// deal to the target; a no vote is terminal.
func (s *Service) resolveBoardVote(session *AcquisitionSession) {
	ctx := context.Background()

	var (
		target     AcquisitionTarget
		stakePct   float64
		reputation int
	)
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		t, err := targetTx(ctx, tx, session.TargetID)
		if err != nil {
			return err
		}
		company, err := companyTx(ctx, tx, session.UserID, false)
		if err != nil {
			return err
		}
		led, err := ledgerTx(ctx, tx, company.ID, false)
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `
			SELECT reputation FROM game.players WHERE user_id = $1
		`, session.UserID).Scan(&reputation); err != nil {
			return err
		}
		target = t
		stakePct = led.PlayerStake()
		return nil
	})
	if err != nil {
		s.failAcquisition(session, "board vote could not run")
		s.log.Error("board vote failed", "session_id", session.ID, "error", err)
		return
	}

	approved := decideBoardVote(s.acqT, stakePct, float64(reputation), target, s.nextFloat)
	if !approved {
		s.failAcquisition(session, ReasonBoardRiskAversion)
		s.log.Info("board rejected acquisition", "session_id", session.ID, "target", target.Name)
		return
	}

	s.sessions.mu.Lock()
	session.Stage = StageTargetNegotiating
	s.sessions.mu.Unlock()
	s.sessions.schedule(session.ID, func() { s.resolveTargetAnswer(session, target) })
}

// resolveTargetAnswer is the target_negotiating transition. Acceptance
// commits the purchase and files the new subsidiary.
func (s *Service) resolveTargetAnswer(session *AcquisitionSession, target AcquisitionTarget) {
	ctx := context.Background()

	// RetryAcquisition rewrites the offer under the registry lock; read
	// it once and work from the local.
	s.sessions.mu.Lock()
	offer := session.OfferMicros
	s.sessions.mu.Unlock()

	accepted, reason := decideTargetResponse(s.acqT, offer, target, s.nextFloat)
	if !accepted {
		s.failAcquisition(session, reason)
		s.log.Info("target rejected acquisition", "session_id", session.ID,
			"target", target.Name, "reason", reason)
		return
	}

	subID := uuid.New()
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		company, err := companyTx(ctx, tx, session.UserID, true)
		if err != nil {
			return err
		}
		if company.CapitalMicros < offer {
			return fmt.Errorf("%w: offer %.2f exceeds capital %.2f",
				ErrInsufficientFunds, MicrosToCoins(offer), MicrosToCoins(company.CapitalMicros))
		}
		company.CapitalMicros -= offer
		if err := saveCompanyTx(ctx, tx, company); err != nil {
			return err
		}
		sub := subsidiaryFromDeal(target, offer)
		if _, err := tx.Exec(ctx, `
			INSERT INTO game.subsidiaries
			    (id, company_id, name, market_cap_micros, base_profit_micros,
			     current_profit_micros, purchase_price_micros, acquired_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		`, subID, company.ID, sub.Name, sub.MarketCapMicros, sub.BaseProfitMicros,
			sub.CurrentProfitMicros, sub.PurchasePriceMicros); err != nil {
			return err
		}
		return appendCapitalEvents(ctx, tx, company.ID, "acquisition", "capital", -offer)
	})
	if err != nil {
		s.failAcquisition(session, "deal could not settle")
		s.log.Error("acquisition settlement failed", "session_id", session.ID, "error", err)
		return
	}

	s.sessions.mu.Lock()
	session.Stage = StageAccepted
	session.SubsidiaryID = subID
	s.sessions.mu.Unlock()
	s.sessions.cancel(session.ID)
	s.log.Info("acquisition closed", "session_id", session.ID,
		"target", target.Name, "offer_micros", offer)
}

func (s *Service) failAcquisition(session *AcquisitionSession, reason string) {
	s.sessions.mu.Lock()
	session.Stage = StageRejected
	session.Reason = reason
	s.sessions.mu.Unlock()
	s.sessions.cancel(session.ID)
}

// RetryAcquisition reruns a rejected attempt, optionally with a new
// offer. The session walks the full stage machine again.
func (s *Service) RetryAcquisition(ctx context.Context, userID string, sessionID uuid.UUID, offerMicros int64) (AcquisitionSession, error) {
	session, ok := s.sessions.deal(sessionID)
	if !ok || session.UserID != userID {
		return AcquisitionSession{}, fmt.Errorf("%w: acquisition", ErrNotFound)
	}
	s.sessions.mu.Lock()
	if session.Stage != StageRejected {
		s.sessions.mu.Unlock()
		return AcquisitionSession{}, fmt.Errorf("%w: only rejected attempts retry", ErrInvalidState)
	}
	if offerMicros > 0 {
		session.OfferMicros = offerMicros
	}
	session.Stage = StageBoardVoting
	session.Reason = ""
	s.sessions.mu.Unlock()

	s.sessions.reopen(sessionID)
	s.sessions.schedule(session.ID, func() { s.resolveBoardVote(session) })
	out, _ := s.sessions.dealSnapshot(session.ID)
	return out, nil
}

// CancelAcquisition walks away before a terminal stage. The pending
// transition never fires afterwards.
func (s *Service) CancelAcquisition(ctx context.Context, userID string, sessionID uuid.UUID) error {
	session, ok := s.sessions.deal(sessionID)
	if !ok || session.UserID != userID {
		return fmt.Errorf("%w: acquisition", ErrNotFound)
	}
	if err := s.sessions.cancel(sessionID); err != nil {
		return err
	}
	s.sessions.mu.Lock()
	if session.Stage != StageAccepted {
		session.Stage = StageRejected
		session.Reason = "withdrawn"
	}
	s.sessions.mu.Unlock()
	return nil
}

func (s *Service) GetAcquisition(ctx context.Context, userID string, sessionID uuid.UUID) (AcquisitionSession, error) {
	session, ok := s.sessions.dealSnapshot(sessionID)
	if !ok || session.UserID != userID {
		return AcquisitionSession{}, fmt.Errorf("%w: acquisition", ErrNotFound)
	}
	return session, nil
}
