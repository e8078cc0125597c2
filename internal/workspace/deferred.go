package workspace

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/huddle-chat/huddle/internal/apperr"
	"github.com/huddle-chat/huddle/internal/store"
)

type sendResult struct {
	messageID int64
	err       error
}

// SendLater validates immediately, then delivers the message at
// deliverAt through an ordinary Send. Invalid requests fail before any
// waiting happens. The id is assigned at delivery time, so deferred
// messages interleave with ordinary sends in arrival order.
//
// The wait is a scheduled task, not a sleep holding any lock: concurrent
// sends to the same channel during the window are unaffected. The wait
// ends early when ctx is cancelled or the workspace is reset.
func (w *Workspace) SendLater(ctx context.Context, actor, channelID int64, text string, deliverAt time.Time) (int64, error) {
	err := w.store.View(func(tx *store.Tx) error {
		cs, err := channelState(tx, channelID)
		if err != nil {
			return err
		}
		if !containsID(cs.MemberIDs, actor) {
			return apperr.Permission(apperr.CodeNotAMember, "user %d has not joined channel %d", actor, channelID)
		}
		if utf8.RuneCountInString(text) > MaxMessageLen {
			return apperr.Validation(apperr.CodeTooLong, "message exceeds %d characters", MaxMessageLen)
		}
		if text == "" {
			return apperr.Validation(apperr.CodeEmpty, "cannot send an empty message")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	wait := deliverAt.Sub(w.clock())
	if wait <= 0 {
		return 0, apperr.Validation(apperr.CodeInThePast, "delivery time is not in the future")
	}

	results := make(chan sendResult, 1)
	p := &pendingSend{cancelled: make(chan struct{})}

	// Registration and timer creation happen under one lock so a
	// concurrent Reset either never sees this entry or sees it with a
	// stoppable timer attached.
	w.pendingMu.Lock()
	w.pendingID++
	id := w.pendingID
	w.pending[id] = p
	p.cancelTimer = w.sched.After(wait, func() {
		if !w.dropPending(id) {
			// A reset swept the registration between scheduling and
			// firing; the message must not land in post-reset state.
			return
		}
		// Revalidate at delivery time: membership may have changed
		// during the window.
		msgID, err := w.Send(actor, channelID, text)
		results <- sendResult{messageID: msgID, err: err}
	})
	w.pendingMu.Unlock()

	select {
	case r := <-results:
		return r.messageID, r.err
	case <-p.cancelled:
		p.cancelTimer()
		return 0, apperr.Validation(apperr.CodeCancelled, "deferred send cancelled by workspace reset")
	case <-ctx.Done():
		p.cancelTimer()
		w.dropPending(id)
		return 0, ctx.Err()
	}
}

// dropPending removes a deferred-send registration and reports whether
// it was still present. A false return means a reset already swept it.
func (w *Workspace) dropPending(id int64) bool {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if _, ok := w.pending[id]; !ok {
		return false
	}
	delete(w.pending, id)
	return true
}
