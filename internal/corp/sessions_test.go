package corp

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestScheduleInlineWithZeroDelay(t *testing.T) {
	reg := newSessionRegistry(0)
	id := uuid.New()
	reg.putShare(&ShareSession{ID: id, State: DealPending})

	var fired atomic.Int32
	reg.schedule(id, func() { fired.Add(1) })
	if fired.Load() != 1 {
		t.Fatalf("zero delay should run inline")
	}
}

func TestCancelPreventsTransition(t *testing.T) {
	reg := newSessionRegistry(20 * time.Millisecond)
	id := uuid.New()
	reg.putShare(&ShareSession{ID: id, State: DealPending})

	var fired atomic.Int32
	reg.schedule(id, func() { fired.Add(1) })
	if err := reg.cancel(id); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("cancelled transition fired anyway")
	}
	if !reg.isClosed(id) {
		t.Fatalf("session should be closed")
	}
}

func TestCancelTwice(t *testing.T) {
	reg := newSessionRegistry(0)
	id := uuid.New()
	reg.putDeal(&AcquisitionSession{ID: id, Stage: StageBoardVoting})

	if err := reg.cancel(id); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	if err := reg.cancel(id); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("want ErrSessionClosed, got %v", err)
	}
}

func TestCancelUnknownSession(t *testing.T) {
	reg := newSessionRegistry(0)
	if err := reg.cancel(uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestScheduleAfterCloseIsNoop(t *testing.T) {
	reg := newSessionRegistry(0)
	id := uuid.New()
	reg.putShare(&ShareSession{ID: id, State: DealPending})
	if err := reg.cancel(id); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	var fired atomic.Int32
	reg.schedule(id, func() { fired.Add(1) })
	if fired.Load() != 0 {
		t.Fatalf("closed session must not run transitions")
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	reg := newSessionRegistry(0)

	shareID := uuid.New()
	live := &ShareSession{ID: shareID, State: DealPending, Lots: 3}
	reg.putShare(live)
	snap, ok := reg.shareSnapshot(shareID)
	if !ok {
		t.Fatalf("share snapshot missing")
	}
	reg.mu.Lock()
	live.State = DealSuccess
	live.Outcome = "settled"
	reg.mu.Unlock()
	if snap.State != DealPending || snap.Outcome != "" {
		t.Fatalf("snapshot follows live session: %+v", snap)
	}

	dealID := uuid.New()
	deal := &AcquisitionSession{ID: dealID, Stage: StageBoardVoting, OfferMicros: 500}
	reg.putDeal(deal)
	dealSnap, ok := reg.dealSnapshot(dealID)
	if !ok {
		t.Fatalf("deal snapshot missing")
	}
	reg.mu.Lock()
	deal.Stage = StageRejected
	deal.OfferMicros = 900
	reg.mu.Unlock()
	if dealSnap.Stage != StageBoardVoting || dealSnap.OfferMicros != 500 {
		t.Fatalf("snapshot follows live session: %+v", dealSnap)
	}
}

func TestReopenAllowsRetry(t *testing.T) {
	reg := newSessionRegistry(0)
	id := uuid.New()
	reg.putDeal(&AcquisitionSession{ID: id, Stage: StageRejected})
	if err := reg.cancel(id); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	reg.reopen(id)
	var fired atomic.Int32
	reg.schedule(id, func() { fired.Add(1) })
	if fired.Load() != 1 {
		t.Fatalf("reopened session should schedule again")
	}
}
