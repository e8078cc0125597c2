package store

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/huddle-chat/huddle/internal/models"
)

// Snapshot table names. One logical JSON document per table; the sink
// decides how documents are persisted.
const (
	TableUsers        = "users"
	TablePermissions  = "permissions"
	TableSessions     = "sessions"
	TableChannels     = "channels"
	TableChannelData  = "channel_data"
	TableMessageIndex = "message_index"
	TableCredentials  = "credentials"
	TableResetCodes   = "reset_codes"
	TableCounters     = "counters"
)

// TableNames lists every snapshot document in a stable order.
var TableNames = []string{
	TableUsers, TablePermissions, TableSessions, TableChannels,
	TableChannelData, TableMessageIndex, TableCredentials,
	TableResetCodes, TableCounters,
}

type indexEntry struct {
	MessageID int64 `json:"message_id"`
	ChannelID int64 `json:"channel_id"`
}

type counters struct {
	NextUserID    int64 `json:"next_user_id"`
	NextChannelID int64 `json:"next_channel_id"`
	NextMessageID int64 `json:"next_message_id"`
}

// Snapshot serializes every table under the read lock. The result is a
// point-in-time copy of whatever was visible when the call ran; callers
// get no stronger consistency guarantee and need none.
func (s *Store) Snapshot() (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make(map[string][]byte, len(TableNames))

	put := func(name string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal table %s: %w", name, err)
		}
		docs[name] = b
		return nil
	}

	users := make([]*models.User, 0, len(s.t.users))
	for _, u := range s.t.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	perms := make([]*models.Permission, 0, len(s.t.permissions))
	for _, p := range s.t.permissions {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].UserID < perms[j].UserID })

	sessions := make([]*models.Session, 0, len(s.t.sessions))
	for _, sess := range s.t.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Token < sessions[j].Token })

	channels := make([]*models.Channel, 0, len(s.t.channels))
	for _, ch := range s.t.channels {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].ID < channels[j].ID })

	channelData := make([]*models.ChannelState, 0, len(s.t.channelData))
	for _, cs := range s.t.channelData {
		channelData = append(channelData, cs)
	}
	sort.Slice(channelData, func(i, j int) bool { return channelData[i].ChannelID < channelData[j].ChannelID })

	index := make([]indexEntry, 0, len(s.t.messageIdx))
	for mid, cid := range s.t.messageIdx {
		index = append(index, indexEntry{MessageID: mid, ChannelID: cid})
	}
	sort.Slice(index, func(i, j int) bool { return index[i].MessageID < index[j].MessageID })

	creds := make([]*models.Credential, 0, len(s.t.credentials))
	for _, c := range s.t.credentials {
		creds = append(creds, c)
	}
	sort.Slice(creds, func(i, j int) bool { return creds[i].Email < creds[j].Email })

	resets := make([]*models.ResetCode, 0, len(s.t.resetCodes))
	for _, rc := range s.t.resetCodes {
		resets = append(resets, rc)
	}
	sort.Slice(resets, func(i, j int) bool { return resets[i].Code < resets[j].Code })

	for _, step := range []struct {
		name string
		v    any
	}{
		{TableUsers, users},
		{TablePermissions, perms},
		{TableSessions, sessions},
		{TableChannels, channels},
		{TableChannelData, channelData},
		{TableMessageIndex, index},
		{TableCredentials, creds},
		{TableResetCodes, resets},
		{TableCounters, counters{
			NextUserID:    s.t.nextUserID,
			NextChannelID: s.t.nextChannelID,
			NextMessageID: s.t.nextMessageID,
		}},
	} {
		if err := put(step.name, step.v); err != nil {
			return nil, err
		}
	}

	return docs, nil
}

// Restore replaces every table with the contents of the given documents.
// Missing documents leave their table empty. Restore is all-or-nothing:
// a decode failure leaves the store untouched.
func (s *Store) Restore(docs map[string][]byte) error {
	t := newTables()

	unmarshal := func(name string, v any) error {
		b, ok := docs[name]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(b, v); err != nil {
			return fmt.Errorf("decode table %s: %w", name, err)
		}
		return nil
	}

	var (
		users       []*models.User
		perms       []*models.Permission
		sessions    []*models.Session
		channels    []*models.Channel
		channelData []*models.ChannelState
		index       []indexEntry
		creds       []*models.Credential
		resets      []*models.ResetCode
		ctrs        counters
	)

	if err := unmarshal(TableUsers, &users); err != nil {
		return err
	}
	if err := unmarshal(TablePermissions, &perms); err != nil {
		return err
	}
	if err := unmarshal(TableSessions, &sessions); err != nil {
		return err
	}
	if err := unmarshal(TableChannels, &channels); err != nil {
		return err
	}
	if err := unmarshal(TableChannelData, &channelData); err != nil {
		return err
	}
	if err := unmarshal(TableMessageIndex, &index); err != nil {
		return err
	}
	if err := unmarshal(TableCredentials, &creds); err != nil {
		return err
	}
	if err := unmarshal(TableResetCodes, &resets); err != nil {
		return err
	}
	if err := unmarshal(TableCounters, &ctrs); err != nil {
		return err
	}

	for _, u := range users {
		t.users[u.ID] = u
	}
	for _, p := range perms {
		t.permissions[p.UserID] = p
	}
	for _, sess := range sessions {
		t.sessions[sess.Token] = sess
	}
	for _, ch := range channels {
		t.channels[ch.ID] = ch
	}
	for _, cs := range channelData {
		if cs.Messages == nil {
			cs.Messages = []*models.Message{}
		}
		t.channelData[cs.ChannelID] = cs
	}
	for _, e := range index {
		t.messageIdx[e.MessageID] = e.ChannelID
	}
	for _, c := range creds {
		t.credentials[c.Email] = c
	}
	for _, rc := range resets {
		t.resetCodes[rc.Code] = rc
	}
	t.nextUserID = ctrs.NextUserID
	t.nextChannelID = ctrs.NextChannelID
	t.nextMessageID = ctrs.NextMessageID

	s.mu.Lock()
	s.t = t
	s.mu.Unlock()
	return nil
}
