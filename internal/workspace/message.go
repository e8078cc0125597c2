package workspace

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/huddle-chat/huddle/internal/apperr"
	"github.com/huddle-chat/huddle/internal/models"
	"github.com/huddle-chat/huddle/internal/store"
)

// PageSize is the fixed number of messages per retrieval page.
const PageSize = 50

// MessagePage is one page of a channel's history, newest first. End is
// -1 when the page reaches the oldest message, otherwise Start+PageSize.
type MessagePage struct {
	Messages []models.Message `json:"messages"`
	Start    int              `json:"start"`
	End      int              `json:"end"`
}

// Send validates, stores and fans out a message, then offers the text to
// the command dispatcher. The returned id is valid even when the
// dispatcher rejects the command syntax: the message is already stored
// by then, and the dispatch failure surfaces to the caller alongside it.
func (w *Workspace) Send(actor, channelID int64, text string) (int64, error) {
	id, err := w.sendChecked(actor, channelID, text)
	if err != nil {
		return 0, err
	}
	if w.dispatcher != nil {
		// Outside the store lock: the dispatcher may call straight back
		// into Send to post bot responses.
		if derr := w.dispatcher.Dispatch(channelID, text); derr != nil {
			return id, derr
		}
	}
	return id, nil
}

// sendChecked performs the member/length/empty checks and the store
// write in one Update closure. Standup flushes and the bot use it
// directly, skipping command dispatch.
func (w *Workspace) sendChecked(actor, channelID int64, text string) (int64, error) {
	var stored models.Message
	err := w.store.Update(func(tx *store.Tx) error {
		cs, err := channelState(tx, channelID)
		if err != nil {
			return err
		}
		if !containsID(cs.MemberIDs, actor) {
			return apperr.Permission(apperr.CodeNotAMember, "user %d has not joined channel %d", actor, channelID)
		}
		// Limits count characters, not bytes: multibyte text is not
		// penalized for its encoding.
		if utf8.RuneCountInString(text) > MaxMessageLen {
			return apperr.Validation(apperr.CodeTooLong, "message exceeds %d characters", MaxMessageLen)
		}
		if text == "" {
			return apperr.Validation(apperr.CodeEmpty, "cannot send an empty message")
		}

		m := &models.Message{
			ID:        tx.GenerateMessageID(),
			AuthorID:  actor,
			Text:      text,
			CreatedAt: w.clock().Truncate(time.Second),
			Reacts:    []models.React{{ReactID: models.ThumbsUpReactID, UserIDs: []int64{}}},
		}
		if err := tx.PutMessage(channelID, m); err != nil {
			return err
		}
		stored = *m
		return nil
	})
	if err != nil {
		return 0, err
	}
	if w.notifier != nil {
		w.notifier.MessageSent(channelID, stored)
	}
	return stored.ID, nil
}

// Retrieve returns up to PageSize messages starting at offset start,
// newest first. An empty channel queried at start=0 yields an empty page;
// any other start at or past the end is out of range.
func (w *Workspace) Retrieve(actor, channelID int64, start int) (*MessagePage, error) {
	var page *MessagePage
	err := w.store.View(func(tx *store.Tx) error {
		cs, err := channelState(tx, channelID)
		if err != nil {
			return err
		}
		if !containsID(cs.MemberIDs, actor) {
			return apperr.Permission(apperr.CodeNotAMember, "user %d is not a member of channel %d", actor, channelID)
		}

		if start < 0 {
			return apperr.Validation(apperr.CodeStartOutOfRange, "start cannot be negative")
		}
		total := len(cs.Messages)
		if total <= start && (total != 0 || start > 0) {
			return apperr.Validation(apperr.CodeStartOutOfRange, "start %d is past the oldest message", start)
		}

		page = &MessagePage{Messages: []models.Message{}, Start: start, End: -1}
		if total == 0 {
			return nil
		}

		end := start + PageSize
		if end < total {
			page.End = end
		} else {
			end = total
		}
		for _, m := range cs.Messages[start:end] {
			page.Messages = append(page.Messages, annotateForCaller(m, actor))
		}
		return nil
	})
	return page, err
}

// annotateForCaller copies a stored message, deriving the per-caller
// reacted flag. The flag is never stored.
func annotateForCaller(m *models.Message, caller int64) models.Message {
	out := *m
	out.Reacts = make([]models.React, len(m.Reacts))
	for i, r := range m.Reacts {
		out.Reacts[i] = r
		out.Reacts[i].UserIDs = append([]int64(nil), r.UserIDs...)
		out.Reacts[i].IsThisUserReacted = containsID(r.UserIDs, caller)
	}
	return out
}

// liveMessage resolves a message id through the index, mapping unknown
// ids to a validation failure.
func liveMessage(tx *store.Tx, messageID int64) (*models.Message, int64, error) {
	m, channelID, ok := tx.Message(messageID)
	if !ok {
		return nil, 0, apperr.Validation(apperr.CodeInvalidInput, "message %d does not exist", messageID)
	}
	return m, channelID, nil
}

// canAlterMessage: the author may edit/remove their own message; channel
// owners and workspace owners may alter anyone's.
func canAlterMessage(tx *store.Tx, cs *models.ChannelState, m *models.Message, actor int64) bool {
	if m.AuthorID == actor {
		return true
	}
	return tx.IsGlobalOwner(actor) || containsID(cs.OwnerIDs, actor)
}

// Edit replaces a message's text. Empty replacement text is an implicit
// removal.
func (w *Workspace) Edit(actor, messageID int64, text string) error {
	return w.store.Update(func(tx *store.Tx) error {
		m, channelID, err := liveMessage(tx, messageID)
		if err != nil {
			return err
		}
		if utf8.RuneCountInString(text) > MaxMessageLen {
			return apperr.Validation(apperr.CodeTooLong, "message exceeds %d characters", MaxMessageLen)
		}
		cs, _ := tx.ChannelState(channelID)
		if !containsID(cs.MemberIDs, actor) {
			return apperr.Permission(apperr.CodeNotAMember, "user %d is not a member of channel %d", actor, channelID)
		}
		if !canAlterMessage(tx, cs, m, actor) {
			return apperr.Permission(apperr.CodeNotAuthorized, "user %d did not author message %d and owns neither the channel nor the workspace", actor, messageID)
		}
		if text == "" {
			return tx.RemoveMessage(messageID)
		}
		m.Text = text
		return nil
	})
}

// Remove deletes the message from its channel and the index in one step.
func (w *Workspace) Remove(actor, messageID int64) error {
	return w.store.Update(func(tx *store.Tx) error {
		m, channelID, err := liveMessage(tx, messageID)
		if err != nil {
			return err
		}
		cs, _ := tx.ChannelState(channelID)
		if !containsID(cs.MemberIDs, actor) {
			return apperr.Permission(apperr.CodeNotAMember, "user %d is not a member of channel %d", actor, channelID)
		}
		if !canAlterMessage(tx, cs, m, actor) {
			return apperr.Permission(apperr.CodeNotAuthorized, "user %d did not author message %d and owns neither the channel nor the workspace", actor, messageID)
		}
		return tx.RemoveMessage(messageID)
	})
}

// react locates the single valid react entry, checking the kind first.
// Non-membership here is an input-validation failure, not an access one;
// the asymmetry with Send is deliberate and load-bearing for callers
// that distinguish the two families.
func reactEntry(tx *store.Tx, actor, messageID, reactID int64) (*models.React, error) {
	if reactID != models.ThumbsUpReactID {
		return nil, apperr.Validation(apperr.CodeInvalidReact, "react %d is not a valid react id", reactID)
	}
	m, channelID, err := liveMessage(tx, messageID)
	if err != nil {
		return nil, err
	}
	cs, _ := tx.ChannelState(channelID)
	if !containsID(cs.MemberIDs, actor) {
		return nil, apperr.Validation(apperr.CodeNotAMember, "message %d is not in a channel user %d has joined", messageID, actor)
	}
	return &m.Reacts[0], nil
}

// React records the actor's reaction of the given kind.
func (w *Workspace) React(actor, messageID, reactID int64) error {
	return w.store.Update(func(tx *store.Tx) error {
		r, err := reactEntry(tx, actor, messageID, reactID)
		if err != nil {
			return err
		}
		if containsID(r.UserIDs, actor) {
			return apperr.Validation(apperr.CodeAlreadyReacted, "user %d already reacted to message %d", actor, messageID)
		}
		r.UserIDs = append(r.UserIDs, actor)
		return nil
	})
}

// Unreact removes the actor's reaction of the given kind.
func (w *Workspace) Unreact(actor, messageID, reactID int64) error {
	return w.store.Update(func(tx *store.Tx) error {
		r, err := reactEntry(tx, actor, messageID, reactID)
		if err != nil {
			return err
		}
		if !containsID(r.UserIDs, actor) {
			return apperr.Validation(apperr.CodeNotReacted, "user %d has no active react on message %d", actor, messageID)
		}
		r.UserIDs = removeID(r.UserIDs, actor)
		return nil
	})
}

// pinTarget runs the shared pin/unpin checks: membership first, then
// channel ownership, both access failures.
func pinTarget(tx *store.Tx, actor, messageID int64) (*models.Message, error) {
	m, channelID, err := liveMessage(tx, messageID)
	if err != nil {
		return nil, err
	}
	cs, _ := tx.ChannelState(channelID)
	if !containsID(cs.MemberIDs, actor) {
		return nil, apperr.Permission(apperr.CodeNotAuthorized, "user %d is not a member of the channel message %d is in", actor, messageID)
	}
	if !containsID(cs.OwnerIDs, actor) {
		return nil, apperr.Permission(apperr.CodeNotAuthorized, "user %d is not an owner of the channel message %d is in", actor, messageID)
	}
	return m, nil
}

// Pin marks a message for special display treatment.
func (w *Workspace) Pin(actor, messageID int64) error {
	return w.store.Update(func(tx *store.Tx) error {
		m, err := pinTarget(tx, actor, messageID)
		if err != nil {
			return err
		}
		if m.IsPinned {
			return apperr.Validation(apperr.CodeAlreadyPinned, "message %d is already pinned", messageID)
		}
		m.IsPinned = true
		return nil
	})
}

// Unpin clears the pinned mark.
func (w *Workspace) Unpin(actor, messageID int64) error {
	return w.store.Update(func(tx *store.Tx) error {
		m, err := pinTarget(tx, actor, messageID)
		if err != nil {
			return err
		}
		if !m.IsPinned {
			return apperr.Validation(apperr.CodeNotPinned, "message %d is not pinned", messageID)
		}
		m.IsPinned = false
		return nil
	})
}

// Search returns every message containing query, across all channels the
// actor belongs to, newest first.
func (w *Workspace) Search(actor int64, query string) ([]models.Message, error) {
	if query == "" {
		return nil, apperr.Validation(apperr.CodeEmpty, "search received an empty query string")
	}
	var out []models.Message
	err := w.store.View(func(tx *store.Tx) error {
		out = make([]models.Message, 0)
		for _, ch := range tx.Channels() {
			cs, ok := tx.ChannelState(ch.ID)
			if !ok || !containsID(cs.MemberIDs, actor) {
				continue
			}
			for _, m := range cs.Messages {
				if strings.Contains(m.Text, query) {
					out = append(out, annotateForCaller(m, actor))
				}
			}
		}
		sort.Slice(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
		return nil
	})
	return out, err
}

// BotSend posts text into a channel as the system bot, summoning the bot
// into the channel if it is not yet a member. Called by the command
// dispatcher.
func (w *Workspace) BotSend(channelID int64, text string) error {
	err := w.store.Update(func(tx *store.Tx) error {
		cs, err := channelState(tx, channelID)
		if err != nil {
			return err
		}
		if !containsID(cs.MemberIDs, BotUserID) {
			// The bot holds global OWNER, so it enters as member and owner.
			cs.MemberIDs = append(cs.MemberIDs, BotUserID)
			cs.OwnerIDs = append(cs.OwnerIDs, BotUserID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	_, err = w.sendChecked(BotUserID, channelID, text)
	return err
}
