// Package store owns every authoritative table in the workspace: users,
// permissions, sessions, channels, channel state, the message index,
// credentials and reset codes. No other package holds table state; all
// access goes through View/Update closures so that request-triggered and
// timer-triggered writers serialize on one lock.
package store

import (
	"sync"

	"github.com/huddle-chat/huddle/internal/models"
)

type tables struct {
	users       map[int64]*models.User
	permissions map[int64]*models.Permission
	sessions    map[string]*models.Session // token -> session
	channels    map[int64]*models.Channel
	channelData map[int64]*models.ChannelState
	messageIdx  map[int64]int64 // message id -> channel id
	credentials map[string]*models.Credential // email -> credential
	resetCodes  map[string]*models.ResetCode  // code -> grant

	nextUserID    int64
	nextChannelID int64
	nextMessageID int64
}

func newTables() tables {
	return tables{
		users:       make(map[int64]*models.User),
		permissions: make(map[int64]*models.Permission),
		sessions:    make(map[string]*models.Session),
		channels:    make(map[int64]*models.Channel),
		channelData: make(map[int64]*models.ChannelState),
		messageIdx:  make(map[int64]int64),
		credentials: make(map[string]*models.Credential),
		resetCodes:  make(map[string]*models.ResetCode),
	}
}

// Store is the single mutable-state owner. One RWMutex guards every
// table; compound read-modify-write sequences run inside a single Update
// closure so cross-table invariants hold under concurrency.
type Store struct {
	mu sync.RWMutex
	t  tables
}

func New() *Store {
	return &Store{t: newTables()}
}

// View runs fn under the read lock. fn must not retain or mutate
// anything it reads; copy out what the caller needs.
func (s *Store) View(fn func(tx *Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&Tx{t: &s.t})
}

// Update runs fn under the write lock. The whole closure is one logical
// step: either every mutation in it lands or the caller returns an error
// having left a prefix of them — engines are written so that all
// validation happens before the first mutation.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{t: &s.t, writable: true})
}

// Reset clears every table to its initial empty state. Counters restart,
// so it is only safe when all pending scheduled work has been cancelled.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t = newTables()
}
