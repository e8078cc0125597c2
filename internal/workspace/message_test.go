package workspace

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huddle-chat/huddle/internal/apperr"
	"github.com/huddle-chat/huddle/internal/models"
)

func TestSend_Validation(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	bob := register(t, w, "bob@example.com", "Bob", "Brown")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	_, err := w.Send(amy.UserID, ch, "")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeEmpty, apperr.CodeOf(err))

	_, err = w.Send(amy.UserID, ch, strings.Repeat("x", MaxMessageLen+1))
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTooLong, apperr.CodeOf(err))

	_, err = w.Send(bob.UserID, ch, "hello")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotAMember, apperr.CodeOf(err))
	assert.True(t, apperr.IsPermission(err))

	// Exactly at the limit is fine.
	_, err = w.Send(amy.UserID, ch, strings.Repeat("x", MaxMessageLen))
	require.NoError(t, err)
}

func TestSend_LimitCountsCharactersNotBytes(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	// 600 two-byte runes: 1200 bytes but well under the character cap.
	_, err := w.Send(amy.UserID, ch, strings.Repeat("ü", 600))
	require.NoError(t, err)

	// Exactly at the limit in runes still fits.
	_, err = w.Send(amy.UserID, ch, strings.Repeat("ü", MaxMessageLen))
	require.NoError(t, err)

	_, err = w.Send(amy.UserID, ch, strings.Repeat("ü", MaxMessageLen+1))
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTooLong, apperr.CodeOf(err))
}

func TestSend_IDsAreMonotonic(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	first, err := w.Send(amy.UserID, ch, "one")
	require.NoError(t, err)
	require.NoError(t, w.Remove(amy.UserID, first))

	second, err := w.Send(amy.UserID, ch, "two")
	require.NoError(t, err)
	assert.Greater(t, second, first, "removed ids are never reissued")
}

type failingDispatcher struct{}

func (failingDispatcher) Dispatch(int64, string) error {
	return apperr.Validation(apperr.CodeInvalidInput, "bad command")
}
func (failingDispatcher) Reset() {}

func TestSend_DispatchFailureStillStoresMessage(t *testing.T) {
	w := newTestWorkspace(t)
	w.SetDispatcher(failingDispatcher{})
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	id, err := w.Send(amy.UserID, ch, "/guess toolong")
	require.Error(t, err)
	assert.NotZero(t, id, "the message was stored before dispatch ran")

	page, err := w.Retrieve(amy.UserID, ch, 0)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, id, page.Messages[0].ID)
}

func TestRetrieve_Pagination(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	const total = 127
	for i := 0; i < total; i++ {
		_, err := w.Send(amy.UserID, ch, strconv.Itoa(i))
		require.NoError(t, err)
	}

	// Full first page, newest first.
	page, err := w.Retrieve(amy.UserID, ch, 0)
	require.NoError(t, err)
	require.Len(t, page.Messages, PageSize)
	assert.Equal(t, "126", page.Messages[0].Text)
	assert.Equal(t, "77", page.Messages[PageSize-1].Text)
	assert.Equal(t, 0, page.Start)
	assert.Equal(t, PageSize, page.End)

	// A middle page.
	page, err = w.Retrieve(amy.UserID, ch, 60)
	require.NoError(t, err)
	require.Len(t, page.Messages, PageSize)
	assert.Equal(t, "66", page.Messages[0].Text)
	assert.Equal(t, "17", page.Messages[PageSize-1].Text)
	assert.Equal(t, 110, page.End)

	// The short final page reaches the oldest message.
	page, err = w.Retrieve(amy.UserID, ch, 120)
	require.NoError(t, err)
	require.Len(t, page.Messages, 7)
	assert.Equal(t, "6", page.Messages[0].Text)
	assert.Equal(t, "0", page.Messages[6].Text)
	assert.Equal(t, -1, page.End)

	_, err = w.Retrieve(amy.UserID, ch, total)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeStartOutOfRange, apperr.CodeOf(err))
}

func TestRetrieve_EmptyChannel(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	// start=0 on an empty channel is the one in-range empty query.
	page, err := w.Retrieve(amy.UserID, ch, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
	assert.Equal(t, -1, page.End)

	_, err = w.Retrieve(amy.UserID, ch, 1)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeStartOutOfRange, apperr.CodeOf(err))
}

func TestRetrieve_MembersOnly(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	bob := register(t, w, "bob@example.com", "Bob", "Brown")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	_, err := w.Retrieve(bob.UserID, ch, 0)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotAMember, apperr.CodeOf(err))
}

func TestEdit(t *testing.T) {
	w := newTestWorkspace(t)
	register(t, w, "amy@example.com", "Amy", "Adams")
	creator := register(t, w, "bob@example.com", "Bob", "Brown")
	member := register(t, w, "cat@example.com", "Cat", "Cole")

	ch := makeChannel(t, w, creator.UserID, "general", true)
	require.NoError(t, w.Join(member.UserID, ch))

	id, err := w.Send(member.UserID, ch, "origanal")
	require.NoError(t, err)

	// Author edits their own message.
	require.NoError(t, w.Edit(member.UserID, id, "original"))

	page, err := w.Retrieve(member.UserID, ch, 0)
	require.NoError(t, err)
	assert.Equal(t, "original", page.Messages[0].Text)

	// A channel owner may edit anyone's message.
	require.NoError(t, w.Edit(creator.UserID, id, "moderated"))

	// A plain member cannot edit someone else's.
	other, err := w.Send(creator.UserID, ch, "hands off")
	require.NoError(t, err)
	err = w.Edit(member.UserID, other, "vandalised")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotAuthorized, apperr.CodeOf(err))
}

func TestEdit_EmptyTextRemoves(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	id, err := w.Send(amy.UserID, ch, "going going")
	require.NoError(t, err)
	require.NoError(t, w.Edit(amy.UserID, id, ""))

	page, err := w.Retrieve(amy.UserID, ch, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Messages)

	err = w.Edit(amy.UserID, id, "gone")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))
}

func TestRemove(t *testing.T) {
	w := newTestWorkspace(t)
	global := register(t, w, "amy@example.com", "Amy", "Adams")
	creator := register(t, w, "bob@example.com", "Bob", "Brown")

	ch := makeChannel(t, w, creator.UserID, "general", true)
	require.NoError(t, w.Join(global.UserID, ch))

	id, err := w.Send(creator.UserID, ch, "controversial")
	require.NoError(t, err)

	// A global owner may remove anyone's message.
	require.NoError(t, w.Remove(global.UserID, id))

	err = w.Remove(global.UserID, id)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))
}

func TestReact_RoundTrip(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	bob := register(t, w, "bob@example.com", "Bob", "Brown")
	ch := makeChannel(t, w, amy.UserID, "general", true)
	require.NoError(t, w.Join(bob.UserID, ch))

	id, err := w.Send(amy.UserID, ch, "react to this")
	require.NoError(t, err)

	err = w.React(amy.UserID, id, 42)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidReact, apperr.CodeOf(err))

	require.NoError(t, w.React(amy.UserID, id, models.ThumbsUpReactID))

	err = w.React(amy.UserID, id, models.ThumbsUpReactID)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeAlreadyReacted, apperr.CodeOf(err))

	// The reacted flag is derived per caller.
	page, err := w.Retrieve(amy.UserID, ch, 0)
	require.NoError(t, err)
	assert.True(t, page.Messages[0].Reacts[0].IsThisUserReacted)
	assert.Equal(t, []int64{amy.UserID}, page.Messages[0].Reacts[0].UserIDs)

	page, err = w.Retrieve(bob.UserID, ch, 0)
	require.NoError(t, err)
	assert.False(t, page.Messages[0].Reacts[0].IsThisUserReacted)

	require.NoError(t, w.Unreact(amy.UserID, id, models.ThumbsUpReactID))

	err = w.Unreact(amy.UserID, id, models.ThumbsUpReactID)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotReacted, apperr.CodeOf(err))
}

func TestReact_NonMemberIsValidationFailure(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	bob := register(t, w, "bob@example.com", "Bob", "Brown")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	id, err := w.Send(amy.UserID, ch, "members only")
	require.NoError(t, err)

	err = w.React(bob.UserID, id, models.ThumbsUpReactID)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotAMember, apperr.CodeOf(err))
	assert.True(t, apperr.IsValidation(err), "reacting from outside the channel is bad input, not access denial")
}

func TestPin_Unpin(t *testing.T) {
	w := newTestWorkspace(t)
	register(t, w, "amy@example.com", "Amy", "Adams")
	creator := register(t, w, "bob@example.com", "Bob", "Brown")
	member := register(t, w, "cat@example.com", "Cat", "Cole")

	ch := makeChannel(t, w, creator.UserID, "general", true)
	require.NoError(t, w.Join(member.UserID, ch))

	id, err := w.Send(creator.UserID, ch, "pin me")
	require.NoError(t, err)

	// Pinning needs channel ownership.
	err = w.Pin(member.UserID, id)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotAuthorized, apperr.CodeOf(err))

	require.NoError(t, w.Pin(creator.UserID, id))

	err = w.Pin(creator.UserID, id)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeAlreadyPinned, apperr.CodeOf(err))

	page, err := w.Retrieve(member.UserID, ch, 0)
	require.NoError(t, err)
	assert.True(t, page.Messages[0].IsPinned)

	require.NoError(t, w.Unpin(creator.UserID, id))

	err = w.Unpin(creator.UserID, id)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotPinned, apperr.CodeOf(err))
}

func TestSearch(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	bob := register(t, w, "bob@example.com", "Bob", "Brown")

	mine := makeChannel(t, w, amy.UserID, "mine", true)
	theirs := makeChannel(t, w, bob.UserID, "theirs", true)

	_, err := w.Send(amy.UserID, mine, "needle in here")
	require.NoError(t, err)
	_, err = w.Send(amy.UserID, mine, "nothing here")
	require.NoError(t, err)
	_, err = w.Send(bob.UserID, theirs, "needle there too")
	require.NoError(t, err)

	_, err = w.Search(amy.UserID, "")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeEmpty, apperr.CodeOf(err))

	// Only channels the caller belongs to are searched.
	hits, err := w.Search(amy.UserID, "needle")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "needle in here", hits[0].Text)

	require.NoError(t, w.Join(amy.UserID, theirs))
	hits, err = w.Search(amy.UserID, "needle")
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestBotSend_SummonsBotIntoChannel(t *testing.T) {
	w := newTestWorkspace(t)
	amy := register(t, w, "amy@example.com", "Amy", "Adams")
	ch := makeChannel(t, w, amy.UserID, "general", true)

	require.NoError(t, w.BotSend(ch, "beep"))

	details, err := w.Details(amy.UserID, ch)
	require.NoError(t, err)
	assert.Len(t, details.Members, 2)
	assert.Len(t, details.Owners, 2, "the bot enters as member and owner")

	page, err := w.Retrieve(amy.UserID, ch, 0)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, BotUserID, page.Messages[0].AuthorID)

	err = w.BotSend(424242, "beep")
	require.Error(t, err)
	var appErr *apperr.Error
	assert.True(t, errors.As(err, &appErr))
}
