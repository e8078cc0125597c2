package store

import (
	"sort"

	"github.com/huddle-chat/huddle/internal/apperr"
	"github.com/huddle-chat/huddle/internal/models"
)

// Tx is a view over the tables, handed to View/Update closures. Mutating
// accessors panic when invoked from a View closure: that is a programming
// error, not a recoverable condition.
type Tx struct {
	t        *tables
	writable bool
}

func (tx *Tx) assertWritable() {
	if !tx.writable {
		panic("store: mutation attempted inside a read-only View")
	}
}

// ---------------------------------------------------------------
// Users
// ---------------------------------------------------------------

func (tx *Tx) User(id int64) (*models.User, bool) {
	u, ok := tx.t.users[id]
	return u, ok
}

func (tx *Tx) UserByEmail(email string) (*models.User, bool) {
	for _, u := range tx.t.users {
		if u.Email == email {
			return u, true
		}
	}
	return nil, false
}

func (tx *Tx) UserByHandle(handle string) (*models.User, bool) {
	for _, u := range tx.t.users {
		if u.Handle == handle {
			return u, true
		}
	}
	return nil, false
}

// Users returns all user records ordered by id.
func (tx *Tx) Users() []*models.User {
	out := make([]*models.User, 0, len(tx.t.users))
	for _, u := range tx.t.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (tx *Tx) PutUser(u *models.User) {
	tx.assertWritable()
	tx.t.users[u.ID] = u
}

// GenerateUserID returns a strictly increasing counter starting at 1.
// Ids are never reused or reassigned, and never reach the system range.
func (tx *Tx) GenerateUserID() int64 {
	tx.assertWritable()
	tx.t.nextUserID++
	return tx.t.nextUserID
}

// ---------------------------------------------------------------
// Permissions
// ---------------------------------------------------------------

func (tx *Tx) Permission(userID int64) (models.PermLevel, bool) {
	p, ok := tx.t.permissions[userID]
	if !ok {
		return 0, false
	}
	return p.Level, true
}

// IsGlobalOwner reports whether the user holds the workspace-wide OWNER
// grade.
func (tx *Tx) IsGlobalOwner(userID int64) bool {
	lvl, ok := tx.Permission(userID)
	return ok && lvl == models.PermOwner
}

func (tx *Tx) SetPermission(userID int64, level models.PermLevel) {
	tx.assertWritable()
	if p, ok := tx.t.permissions[userID]; ok {
		p.Level = level
		return
	}
	tx.t.permissions[userID] = &models.Permission{UserID: userID, Level: level}
}

// CountGlobalOwners is used by the sole-owner demotion guard. System
// accounts hold OWNER too but cannot administer anything, so they are
// not counted.
func (tx *Tx) CountGlobalOwners() int {
	n := 0
	for _, p := range tx.t.permissions {
		if p.Level == models.PermOwner && p.UserID < models.SystemIDBase {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------

func (tx *Tx) SessionByToken(token string) (*models.Session, bool) {
	sess, ok := tx.t.sessions[token]
	return sess, ok
}

func (tx *Tx) SessionByUser(userID int64) (*models.Session, bool) {
	for _, sess := range tx.t.sessions {
		if sess.UserID == userID {
			return sess, true
		}
	}
	return nil, false
}

func (tx *Tx) PutSession(userID int64, token string) {
	tx.assertWritable()
	tx.t.sessions[token] = &models.Session{UserID: userID, Token: token}
}

// DeleteSessionByToken reports whether a session was actually removed.
func (tx *Tx) DeleteSessionByToken(token string) bool {
	tx.assertWritable()
	if _, ok := tx.t.sessions[token]; !ok {
		return false
	}
	delete(tx.t.sessions, token)
	return true
}

func (tx *Tx) DeleteSessionByUser(userID int64) bool {
	tx.assertWritable()
	for token, sess := range tx.t.sessions {
		if sess.UserID == userID {
			delete(tx.t.sessions, token)
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------
// Channels
// ---------------------------------------------------------------

func (tx *Tx) Channel(id int64) (*models.Channel, bool) {
	ch, ok := tx.t.channels[id]
	return ch, ok
}

// Channels returns all channel records ordered by id (creation order).
func (tx *Tx) Channels() []*models.Channel {
	out := make([]*models.Channel, 0, len(tx.t.channels))
	for _, ch := range tx.t.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CreateChannel allocates the next channel id and writes the Channel and
// its empty ChannelState in the same step, so neither can exist alone.
func (tx *Tx) CreateChannel(name string, isPublic bool) *models.Channel {
	tx.assertWritable()
	tx.t.nextChannelID++
	ch := &models.Channel{ID: tx.t.nextChannelID, Name: name}
	tx.t.channels[ch.ID] = ch
	tx.t.channelData[ch.ID] = &models.ChannelState{
		ChannelID: ch.ID,
		OwnerIDs:  []int64{},
		MemberIDs: []int64{},
		Messages:  []*models.Message{},
		IsPublic:  isPublic,
	}
	return ch
}

func (tx *Tx) ChannelState(id int64) (*models.ChannelState, bool) {
	cs, ok := tx.t.channelData[id]
	return cs, ok
}

// PutChannelState fails fast when no Channel record exists for the id:
// writing state for an unknown channel is an invariant violation, never
// something to patch silently.
func (tx *Tx) PutChannelState(cs *models.ChannelState) error {
	tx.assertWritable()
	if _, ok := tx.t.channels[cs.ChannelID]; !ok {
		return apperr.NotFound("channel %d has no record; create the channel before writing its state", cs.ChannelID)
	}
	tx.t.channelData[cs.ChannelID] = cs
	return nil
}

// ---------------------------------------------------------------
// Messages
// ---------------------------------------------------------------

// GenerateMessageID returns the next id from a never-reset counter.
// Deriving ids from live list length would recycle ids after removals.
func (tx *Tx) GenerateMessageID() int64 {
	tx.assertWritable()
	tx.t.nextMessageID++
	return tx.t.nextMessageID
}

// Message locates a live message through the index. The returned pointer
// is the stored record; mutate it only inside an Update closure.
func (tx *Tx) Message(id int64) (*models.Message, int64, bool) {
	channelID, ok := tx.t.messageIdx[id]
	if !ok {
		return nil, 0, false
	}
	cs := tx.t.channelData[channelID]
	for _, m := range cs.Messages {
		if m.ID == id {
			return m, channelID, true
		}
	}
	return nil, 0, false
}

// PutMessage prepends the message to the channel's list (newest first)
// and records its location in the index in the same step.
func (tx *Tx) PutMessage(channelID int64, m *models.Message) error {
	tx.assertWritable()
	cs, ok := tx.t.channelData[channelID]
	if !ok {
		return apperr.NotFound("channel %d has no state; cannot store message %d", channelID, m.ID)
	}
	cs.Messages = append([]*models.Message{m}, cs.Messages...)
	tx.t.messageIdx[m.ID] = channelID
	return nil
}

// RemoveMessage deletes the channel copy and the index entry together. A
// message id that is indexed but absent from its channel (or vice versa)
// never exists, even transiently, outside the write lock.
func (tx *Tx) RemoveMessage(id int64) error {
	tx.assertWritable()
	channelID, ok := tx.t.messageIdx[id]
	if !ok {
		return apperr.NotFound("message %d is not indexed", id)
	}
	cs := tx.t.channelData[channelID]
	for i, m := range cs.Messages {
		if m.ID == id {
			cs.Messages = append(cs.Messages[:i], cs.Messages[i+1:]...)
			delete(tx.t.messageIdx, id)
			return nil
		}
	}
	return apperr.NotFound("message %d indexed to channel %d but missing from its list", id, channelID)
}

// ---------------------------------------------------------------
// Credentials and reset codes
// ---------------------------------------------------------------

func (tx *Tx) Credential(email string) (*models.Credential, bool) {
	c, ok := tx.t.credentials[email]
	return c, ok
}

func (tx *Tx) SetCredential(email, passwordHash string) {
	tx.assertWritable()
	if c, ok := tx.t.credentials[email]; ok {
		c.PasswordHash = passwordHash
		return
	}
	tx.t.credentials[email] = &models.Credential{Email: email, PasswordHash: passwordHash}
}

func (tx *Tx) DeleteCredential(email string) {
	tx.assertWritable()
	delete(tx.t.credentials, email)
}

func (tx *Tx) ResetCode(code string) (*models.ResetCode, bool) {
	rc, ok := tx.t.resetCodes[code]
	return rc, ok
}

func (tx *Tx) PutResetCode(email, code string) {
	tx.assertWritable()
	tx.t.resetCodes[code] = &models.ResetCode{Email: email, Code: code}
}

func (tx *Tx) DeleteResetCode(code string) {
	tx.assertWritable()
	delete(tx.t.resetCodes, code)
}
