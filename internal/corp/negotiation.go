package corp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProposeShareBuy opens a buy dialog against an npc holder. The npc
// "thinks" for the registry delay and then answers; only an accepted deal
// touches the database.
func (s *Service) ProposeShareBuy(ctx context.Context, in ShareBuyInput) (ShareSession, error) {
	if in.PriceMicros <= 0 {
		return ShareSession{}, fmt.Errorf("%w: price must be > 0", ErrInvalidParameter)
	}

	var (
		npc   Shareholder
		ratio float64
	)
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "share_buy"); err != nil {
			return err
		}
		company, err := companyTx(ctx, tx, in.UserID, false)
		if err != nil {
			return err
		}
		led, err := ledgerTx(ctx, tx, company.ID, false)
		if err != nil {
			return err
		}
		found, ok := led.Find(in.ShareholderID)
		if !ok {
			return fmt.Errorf("%w: shareholder", ErrNotFound)
		}
		if found.Kind != KindNPC || found.IsFloat {
			return fmt.Errorf("%w: lots trade against named npc holders only", ErrInvalidState)
		}
		if err := validateBuyLots(in.Lots, found); err != nil {
			return err
		}
		cash, err := playerCashTx(ctx, tx, in.UserID, false)
		if err != nil {
			return err
		}
		if total := in.PriceMicros * int64(in.Lots); cash < total {
			return fmt.Errorf("%w: deal costs %.2f, cash %.2f",
				ErrInsufficientFunds, MicrosToCoins(total), MicrosToCoins(cash))
		}
		npc = found
		ratio = float64(in.PriceMicros) / float64(company.SharePriceMicros)
		return nil
	})
	if err != nil {
		return ShareSession{}, err
	}

	session := &ShareSession{
		ID:              uuid.New(),
		UserID:          in.UserID,
		Mode:            ModeBuy,
		State:           DealPending,
		ShareholderID:   npc.ID,
		ShareholderName: npc.Name,
		PriceMicros:     in.PriceMicros,
		Lots:            in.Lots,
	}
	s.sessions.putShare(session)

	relationship := npc.Relationship
	s.sessions.schedule(session.ID, func() {
		s.resolveShareBuy(session, relationship, ratio)
	})
	// With a zero delay the transition already ran; snapshot after it.
	out, _ := s.sessions.shareSnapshot(session.ID)
	return out, nil
}

// resolveShareBuy is the scheduled transition of a buy dialog. Runs off
// the request path, so it logs failures instead of returning them.
func (s *Service) resolveShareBuy(session *ShareSession, relationship int, ratio float64) {
	ctx := context.Background()
	accepted := decideShareBuy(s.shareT, relationship, ratio, s.nextFloat)

	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		company, err := companyTx(ctx, tx, session.UserID, true)
		if err != nil {
			return err
		}
		led, err := ledgerTx(ctx, tx, company.ID, true)
		if err != nil {
			return err
		}
		if !accepted {
			nextLed, err := led.AdjustRelationship(session.ShareholderID, -s.shareT.FailRelLoss)
			if err != nil {
				return err
			}
			return saveLedgerTx(ctx, tx, company.ID, nextLed)
		}

		playerID, ok := led.PlayerID()
		if !ok {
			return fmt.Errorf("%w: player holder", ErrNotFound)
		}
		stake := float64(session.Lots) * LotStakePct
		nextLed, err := led.TransferStake(session.ShareholderID, playerID, stake)
		if err != nil {
			return err
		}
		nextLed, err = nextLed.AdjustRelationship(session.ShareholderID, s.shareT.DealRelGain)
		if err != nil {
			return err
		}
		if err := nextLed.Validate(); err != nil {
			return err
		}
		cash, err := playerCashTx(ctx, tx, session.UserID, true)
		if err != nil {
			return err
		}
		total := session.PriceMicros * int64(session.Lots)
		if cash < total {
			return fmt.Errorf("%w: deal costs %.2f, cash %.2f",
				ErrInsufficientFunds, MicrosToCoins(total), MicrosToCoins(cash))
		}
		if err := savePlayerCashTx(ctx, tx, session.UserID, cash-total); err != nil {
			return err
		}
		if err := saveLedgerTx(ctx, tx, company.ID, nextLed); err != nil {
			return err
		}
		return appendCapitalEvents(ctx, tx, company.ID, "share_buy", "personal", -total)
	})

	s.sessions.mu.Lock()
	switch {
	case err != nil:
		session.State = DealFail
		session.Outcome = "deal could not settle"
	case accepted:
		session.State = DealSuccess
		session.Outcome = fmt.Sprintf("%s sold %d lot(s)", session.ShareholderName, session.Lots)
		session.CashDeltaMicros = -session.PriceMicros * int64(session.Lots)
	default:
		session.State = DealFail
		session.Outcome = fmt.Sprintf("%s declined the offer", session.ShareholderName)
	}
	s.sessions.mu.Unlock()
	s.sessions.cancel(session.ID)

	if err != nil {
		s.log.Error("share buy settlement failed", "session_id", session.ID, "error", err)
		return
	}
	s.log.Info("share buy resolved", "session_id", session.ID, "accepted", accepted)
}

// ProposeShareSell opens a sell dialog. The npc immediately quotes a
// take-it-or-leave-it price; nothing settles until the player answers.
func (s *Service) ProposeShareSell(ctx context.Context, in ShareSellInput) (ShareSession, error) {
	var (
		npc   Shareholder
		offer int64
	)
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "share_sell"); err != nil {
			return err
		}
		company, err := companyTx(ctx, tx, in.UserID, false)
		if err != nil {
			return err
		}
		led, err := ledgerTx(ctx, tx, company.ID, false)
		if err != nil {
			return err
		}
		found, ok := led.Find(in.ShareholderID)
		if !ok {
			return fmt.Errorf("%w: shareholder", ErrNotFound)
		}
		if found.Kind != KindNPC || found.IsFloat {
			return fmt.Errorf("%w: lots trade against named npc holders only", ErrInvalidState)
		}
		if err := validateSellLots(s.shareT, in.Lots, led.PlayerStake()); err != nil {
			return err
		}
		npc = found
		offer = sellOfferMicros(s.shareT, company.SharePriceMicros)
		return nil
	})
	if err != nil {
		return ShareSession{}, err
	}

	session := &ShareSession{
		ID:              uuid.New(),
		UserID:          in.UserID,
		Mode:            ModeSell,
		State:           DealPending,
		ShareholderID:   npc.ID,
		ShareholderName: npc.Name,
		PriceMicros:     offer,
		Lots:            in.Lots,
	}
	s.sessions.putShare(session)
	return *session, nil
}

// AcceptShareSell settles a pending sell at the quoted price.
func (s *Service) AcceptShareSell(ctx context.Context, userID string, sessionID uuid.UUID) (ShareSession, error) {
	session, err := s.pendingSell(userID, sessionID)
	if err != nil {
		return ShareSession{}, err
	}

	err = s.runSerializable(ctx, func(tx pgx.Tx) error {
		company, err := companyTx(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		led, err := ledgerTx(ctx, tx, company.ID, true)
		if err != nil {
			return err
		}
		playerID, ok := led.PlayerID()
		if !ok {
			return fmt.Errorf("%w: player holder", ErrNotFound)
		}
		stake := float64(session.Lots) * LotStakePct
		nextLed, err := led.TransferStake(playerID, session.ShareholderID, stake)
		if err != nil {
			return err
		}
		nextLed, err = nextLed.AdjustRelationship(session.ShareholderID, s.shareT.DealRelGain)
		if err != nil {
			return err
		}
		if err := nextLed.Validate(); err != nil {
			return err
		}
		cash, err := playerCashTx(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		total := session.PriceMicros * int64(session.Lots)
		if err := savePlayerCashTx(ctx, tx, userID, cash+total); err != nil {
			return err
		}
		if err := saveLedgerTx(ctx, tx, company.ID, nextLed); err != nil {
			return err
		}
		return appendCapitalEvents(ctx, tx, company.ID, "share_sell", "personal", total)
	})
	if err != nil {
		return ShareSession{}, err
	}

	s.sessions.mu.Lock()
	session.State = DealSuccess
	session.Outcome = fmt.Sprintf("sold %d lot(s) to %s", session.Lots, session.ShareholderName)
	session.CashDeltaMicros = session.PriceMicros * int64(session.Lots)
	out := *session
	s.sessions.mu.Unlock()
	s.sessions.cancel(session.ID)

	s.log.Info("share sell accepted", "session_id", session.ID, "user_id", userID)
	return out, nil
}

// RejectShareSell declines the quote. Turning an npc down costs more
// goodwill than a deal that simply fell through.
func (s *Service) RejectShareSell(ctx context.Context, userID string, sessionID uuid.UUID) (ShareSession, error) {
	session, err := s.pendingSell(userID, sessionID)
	if err != nil {
		return ShareSession{}, err
	}

	err = s.runSerializable(ctx, func(tx pgx.Tx) error {
		company, err := companyTx(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		led, err := ledgerTx(ctx, tx, company.ID, true)
		if err != nil {
			return err
		}
		nextLed, err := led.AdjustRelationship(session.ShareholderID, -s.shareT.RejectRelLoss)
		if err != nil {
			return err
		}
		return saveLedgerTx(ctx, tx, company.ID, nextLed)
	})
	if err != nil {
		return ShareSession{}, err
	}

	s.sessions.mu.Lock()
	session.State = DealFail
	session.Outcome = fmt.Sprintf("declined %s's offer", session.ShareholderName)
	out := *session
	s.sessions.mu.Unlock()
	s.sessions.cancel(session.ID)

	return out, nil
}

// CancelNegotiation closes a pending dialog. A cancelled session's timer
// never fires, so no state moves afterwards.
func (s *Service) CancelNegotiation(ctx context.Context, userID string, sessionID uuid.UUID) error {
	session, ok := s.sessions.share(sessionID)
	if !ok || session.UserID != userID {
		return fmt.Errorf("%w: negotiation", ErrNotFound)
	}
	if err := s.sessions.cancel(sessionID); err != nil {
		return err
	}
	s.sessions.mu.Lock()
	if session.State == DealPending {
		session.State = DealFail
		session.Outcome = "cancelled"
	}
	s.sessions.mu.Unlock()
	return nil
}

func (s *Service) GetNegotiation(ctx context.Context, userID string, sessionID uuid.UUID) (ShareSession, error) {
	session, ok := s.sessions.shareSnapshot(sessionID)
	if !ok || session.UserID != userID {
		return ShareSession{}, fmt.Errorf("%w: negotiation", ErrNotFound)
	}
	return session, nil
}

func (s *Service) pendingSell(userID string, sessionID uuid.UUID) (*ShareSession, error) {
	session, ok := s.sessions.share(sessionID)
	if !ok || session.UserID != userID {
		return nil, fmt.Errorf("%w: negotiation", ErrNotFound)
	}
	s.sessions.mu.Lock()
	defer s.sessions.mu.Unlock()
	if session.Mode != ModeSell || session.State != DealPending {
		return nil, fmt.Errorf("%w: sell dialog is not pending", ErrSessionClosed)
	}
	return session, nil
}
