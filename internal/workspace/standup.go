package workspace

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/huddle-chat/huddle/internal/apperr"
	"github.com/huddle-chat/huddle/internal/store"
)

// standup is one open buffering window for a channel. Lines accumulate
// under standupMu; the flush task drains them into a single message.
// Buffers are deliberately not persisted: a restart drops open standups.
type standup struct {
	starterID int64
	finish    time.Time
	lines     []string
	cancel    func() bool
}

// StandupStatus is the read-side projection of a channel's standup.
type StandupStatus struct {
	IsActive   bool   `json:"is_active"`
	TimeFinish *int64 `json:"time_finish"`
}

// StartStandup opens a buffering window on the channel and schedules its
// flush. Returns the computed finish time.
func (w *Workspace) StartStandup(actor, channelID int64, length time.Duration) (time.Time, error) {
	err := w.store.View(func(tx *store.Tx) error {
		_, err := channelState(tx, channelID)
		return err
	})
	if err != nil {
		return time.Time{}, err
	}

	w.standupMu.Lock()
	defer w.standupMu.Unlock()

	if _, active := w.standups[channelID]; active {
		return time.Time{}, apperr.Validation(apperr.CodeAlreadyActive, "a standup is already active in channel %d", channelID)
	}

	finish := w.clock().Add(length).Truncate(time.Second)
	su := &standup{starterID: actor, finish: finish, lines: []string{}}
	su.cancel = w.sched.After(length, func() { w.flushStandup(channelID) })
	w.standups[channelID] = su

	return finish, nil
}

// SendStandupLine appends a "handle: line" entry to the channel's open
// buffer.
func (w *Workspace) SendStandupLine(actor, channelID int64, line string) error {
	var handle string
	err := w.store.View(func(tx *store.Tx) error {
		cs, err := channelState(tx, channelID)
		if err != nil {
			return err
		}
		if !containsID(cs.MemberIDs, actor) {
			return apperr.Permission(apperr.CodeNotAMember, "user %d is not a member of channel %d", actor, channelID)
		}
		u, err := knownUser(tx, actor)
		if err != nil {
			return err
		}
		handle = u.Handle
		return nil
	})
	if err != nil {
		return err
	}
	if utf8.RuneCountInString(line) > MaxMessageLen {
		return apperr.Validation(apperr.CodeTooLong, "standup line exceeds %d characters", MaxMessageLen)
	}

	w.standupMu.Lock()
	defer w.standupMu.Unlock()

	su, active := w.standups[channelID]
	if !active {
		return apperr.Validation(apperr.CodeNoActiveStandup, "no standup is active in channel %d", channelID)
	}
	su.lines = append(su.lines, fmt.Sprintf("%s: %s", handle, line))
	return nil
}

// StandupStatusFor reports whether a buffer is open and when it flushes.
func (w *Workspace) StandupStatusFor(channelID int64) (StandupStatus, error) {
	err := w.store.View(func(tx *store.Tx) error {
		_, err := channelState(tx, channelID)
		return err
	})
	if err != nil {
		return StandupStatus{}, err
	}

	w.standupMu.Lock()
	defer w.standupMu.Unlock()

	su, active := w.standups[channelID]
	if !active {
		return StandupStatus{IsActive: false}, nil
	}
	ts := su.finish.Unix()
	return StandupStatus{IsActive: true, TimeFinish: &ts}, nil
}

// flushStandup drains the buffer into one message authored by the
// standup's starter. An empty buffer flushes to nothing.
func (w *Workspace) flushStandup(channelID int64) {
	w.standupMu.Lock()
	su, active := w.standups[channelID]
	delete(w.standups, channelID)
	w.standupMu.Unlock()

	if !active || len(su.lines) == 0 {
		return
	}

	body := strings.Join(su.lines, "\n")
	if _, err := w.Send(su.starterID, channelID, body); err != nil {
		// The starter may have left or been removed during the window.
		w.log.Warn("standup flush failed",
			zap.Int64("channel_id", channelID),
			zap.Int64("starter_id", su.starterID),
			zap.Error(err),
		)
	}
}
