package corp

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type ShareDealMode string

const (
	ModeBuy  ShareDealMode = "buy"
	ModeSell ShareDealMode = "sell"
)

type ShareDealState string

const (
	DealPending ShareDealState = "pending"
	DealSuccess ShareDealState = "success"
	DealFail    ShareDealState = "fail"
)

// ShareSession is one peer-to-peer lot negotiation. Lives in memory; only
// terminal outcomes touch the database.
type ShareSession struct {
	ID              uuid.UUID      `json:"id"`
	UserID          string         `json:"-"`
	Mode            ShareDealMode  `json:"mode"`
	State           ShareDealState `json:"state"`
	ShareholderID   uuid.UUID      `json:"shareholder_id"`
	ShareholderName string         `json:"shareholder_name"`
	PriceMicros     int64          `json:"price_micros"`
	Lots            int            `json:"lots"`
	Outcome         string         `json:"outcome,omitempty"`
	CashDeltaMicros int64          `json:"cash_delta_micros,omitempty"`
}

// AcquisitionSession is one acquisition attempt walking the stage
// machine.
type AcquisitionSession struct {
	ID           uuid.UUID        `json:"id"`
	UserID       string           `json:"-"`
	TargetID     int64            `json:"target_id"`
	TargetName   string           `json:"target_name"`
	OfferMicros  int64            `json:"offer_micros"`
	Stage        AcquisitionStage `json:"stage"`
	Reason       string           `json:"reason,omitempty"`
	SubsidiaryID uuid.UUID        `json:"subsidiary_id,omitempty"`
}

// sessionRegistry tracks open dialogs and their scheduled "thinking"
// transitions. Cancelling a session before its timer fires guarantees the
// pending transition never runs, so nothing mutates state after the
// hosting dialog closes.
type sessionRegistry struct {
	mu     sync.Mutex
	delay  time.Duration
	shares map[uuid.UUID]*ShareSession
	deals  map[uuid.UUID]*AcquisitionSession
	timers map[uuid.UUID]*time.Timer
	closed map[uuid.UUID]bool
}

func newSessionRegistry(delay time.Duration) *sessionRegistry {
	return &sessionRegistry{
		delay:  delay,
		shares: make(map[uuid.UUID]*ShareSession),
		deals:  make(map[uuid.UUID]*AcquisitionSession),
		timers: make(map[uuid.UUID]*time.Timer),
		closed: make(map[uuid.UUID]bool),
	}
}

func (r *sessionRegistry) putShare(s *ShareSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shares[s.ID] = s
}

func (r *sessionRegistry) putDeal(d *AcquisitionSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deals[d.ID] = d
}

func (r *sessionRegistry) share(id uuid.UUID) (*ShareSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shares[id]
	return s, ok
}

func (r *sessionRegistry) deal(id uuid.UUID) (*AcquisitionSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deals[id]
	return d, ok
}

// shareSnapshot copies a session under the lock. Callers that hand
// session data outside the registry use these, never the live pointer,
// so a timer firing mid-encode cannot race a reader.
func (r *sessionRegistry) shareSnapshot(id uuid.UUID) (ShareSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shares[id]
	if !ok {
		return ShareSession{}, false
	}
	return *s, true
}

func (r *sessionRegistry) dealSnapshot(id uuid.UUID) (AcquisitionSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deals[id]
	if !ok {
		return AcquisitionSession{}, false
	}
	return *d, true
}

// schedule queues fn as the session's pending transition. With a zero
// delay it runs inline, which is what tests use. fn runs at most once and
// never after cancel.
func (r *sessionRegistry) schedule(id uuid.UUID, fn func()) {
	r.mu.Lock()
	if r.closed[id] {
		r.mu.Unlock()
		return
	}
	if r.delay <= 0 {
		r.mu.Unlock()
		fn()
		return
	}
	r.timers[id] = time.AfterFunc(r.delay, func() {
		r.mu.Lock()
		if r.closed[id] {
			r.mu.Unlock()
			return
		}
		delete(r.timers, id)
		r.mu.Unlock()
		fn()
	})
	r.mu.Unlock()
}

// cancel stops the pending transition and closes the session. Terminal
// sessions stay readable.
func (r *sessionRegistry) cancel(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed[id] {
		return ErrSessionClosed
	}
	if _, ok := r.shares[id]; !ok {
		if _, ok := r.deals[id]; !ok {
			return ErrNotFound
		}
	}
	if t, ok := r.timers[id]; ok {
		t.Stop()
		delete(r.timers, id)
	}
	r.closed[id] = true
	return nil
}

// reopen clears the closed mark for a retry on a terminal session.
func (r *sessionRegistry) reopen(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.closed, id)
}

func (r *sessionRegistry) isClosed(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed[id]
}
