package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huddle-chat/huddle/internal/apperr"
)

func TestSendLater_ValidatesBeforeWaiting(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	bob := register(t, w, "bob@example.com", "Bob", "Brown")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	future := time.Now().Add(time.Hour)

	_, err := w.SendLater(context.Background(), bob.UserID, ch, "hi", future)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotAMember, apperr.CodeOf(err))

	_, err = w.SendLater(context.Background(), amy.UserID, ch, "", future)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeEmpty, apperr.CodeOf(err))

	_, err = w.SendLater(context.Background(), amy.UserID, ch, "hi", time.Now().Add(-time.Second))
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInThePast, apperr.CodeOf(err))
}

func TestSendLater_DeliversAtTheDeadline(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	started := time.Now()
	id, err := w.SendLater(context.Background(), amy.UserID, ch, "from the past", started.Add(60*time.Millisecond))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(started), 50*time.Millisecond, "the call blocks until delivery")

	page, err := w.Retrieve(amy.UserID, ch, 0)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, id, page.Messages[0].ID)
	assert.Equal(t, "from the past", page.Messages[0].Text)
}

func TestSendLater_IDAssignedAtDelivery(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	type result struct {
		id  int64
		err error
	}
	done := make(chan result, 1)
	go func() {
		id, err := w.SendLater(context.Background(), amy.UserID, ch, "deferred", time.Now().Add(80*time.Millisecond))
		done <- result{id, err}
	}()

	// An ordinary send during the window claims the earlier id.
	time.Sleep(20 * time.Millisecond)
	ordinaryID, err := w.Send(amy.UserID, ch, "ordinary")
	require.NoError(t, err)

	r := <-done
	require.NoError(t, r.err)
	assert.Greater(t, r.id, ordinaryID, "deferred messages take their id when they arrive, not when queued")
}

func TestSendLater_ContextCancel(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := w.SendLater(ctx, amy.UserID, ch, "never", time.Now().Add(time.Hour))
	require.ErrorIs(t, err, context.Canceled)

	page, err := w.Retrieve(amy.UserID, ch, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Messages, "a cancelled deferred send delivers nothing")
}

func TestSendLater_ResetCancels(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	done := make(chan error, 1)
	go func() {
		_, err := w.SendLater(context.Background(), amy.UserID, ch, "doomed", time.Now().Add(time.Hour))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	w.Reset()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, apperr.CodeCancelled, apperr.CodeOf(err))
	case <-time.After(3 * time.Second):
		t.Fatal("reset did not release the blocked sender")
	}
}

func TestSendLater_ResetLeavesNoStaleTimer(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	done := make(chan error, 1)
	go func() {
		_, err := w.SendLater(context.Background(), amy.UserID, ch, "stale", time.Now().Add(120*time.Millisecond))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	w.Reset()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, apperr.CodeCancelled, apperr.CodeOf(err))
	case <-time.After(3 * time.Second):
		t.Fatal("reset did not release the blocked sender")
	}

	// Id counters restart on reset, so the recreated channel reuses the
	// old id. The cancelled delivery must not land there.
	amy = register(t, w, "amy@example.com", "Amy", "Adams")
	ch2 := makeChannel(t, w, amy.UserID, "general", true)
	require.Equal(t, ch, ch2)

	time.Sleep(200 * time.Millisecond)
	page, err := w.Retrieve(amy.UserID, ch2, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
}

func TestSendLater_RevalidatesAtDelivery(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	bob := register(t, w, "bob@example.com", "Bob", "Brown")
	ch := makeChannel(t, w, amy.UserID, "general", true)
	require.NoError(t, w.Join(bob.UserID, ch))

	done := make(chan error, 1)
	go func() {
		_, err := w.SendLater(context.Background(), bob.UserID, ch, "too late", time.Now().Add(60*time.Millisecond))
		done <- err
	}()

	// Bob leaves during the window; the delivery-time check refuses the send.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, w.Leave(bob.UserID, ch))

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotAMember, apperr.CodeOf(err))
	case <-time.After(3 * time.Second):
		t.Fatal("deferred send never completed")
	}
}
