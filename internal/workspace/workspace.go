// Package workspace implements the engines that mutate shared workspace
// state: membership/ownership, messages, admin, auth/sessions, standups
// and deferred sends. Every engine operates on the Store through
// View/Update closures; the package holds no table state of its own
// beyond in-flight standup buffers and deferred-send registrations,
// which are deliberately non-persistent.
package workspace

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/huddle-chat/huddle/internal/models"
	"github.com/huddle-chat/huddle/internal/sched"
	"github.com/huddle-chat/huddle/internal/store"
)

// MaxMessageLen bounds the text of ordinary and standup messages.
const MaxMessageLen = 1000

// MaxChannelNameLen bounds channel names at creation.
const MaxChannelNameLen = 20

// MaxHandleLen caps derived and user-chosen handles.
const MaxHandleLen = 20

// CommandDispatcher receives every successfully sent message. If the text
// matches a command grammar the dispatcher acts on it, possibly calling
// back into the message engine; the engine never holds its lock across a
// Dispatch call.
type CommandDispatcher interface {
	Dispatch(channelID int64, text string) error
	Reset()
}

// Notifier is told about stored messages so connected clients can be
// pushed the update. Called outside the store lock; implementations must
// not call back into the engines synchronously.
type Notifier interface {
	MessageSent(channelID int64, msg models.Message)
}

// Mailer delivers password reset codes.
type Mailer interface {
	SendResetCode(to, code string) error
}

type pendingSend struct {
	cancelTimer func() bool
	cancelled   chan struct{}
}

type Workspace struct {
	store *store.Store
	sched *sched.Scheduler
	log   *zap.Logger
	clock func() time.Time

	jwtSecret  string
	sessionTTL time.Duration

	dispatcher CommandDispatcher
	notifier   Notifier
	mailer     Mailer

	standupMu sync.Mutex
	standups  map[int64]*standup

	pendingMu sync.Mutex
	pending   map[int64]*pendingSend
	pendingID int64
}

type Option func(*Workspace)

func WithClock(clock func() time.Time) Option {
	return func(w *Workspace) { w.clock = clock }
}

func WithNotifier(n Notifier) Option {
	return func(w *Workspace) { w.notifier = n }
}

func WithMailer(m Mailer) Option {
	return func(w *Workspace) { w.mailer = m }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(w *Workspace) { w.sessionTTL = ttl }
}

func New(st *store.Store, sc *sched.Scheduler, log *zap.Logger, jwtSecret string, opts ...Option) *Workspace {
	w := &Workspace{
		store:      st,
		sched:      sc,
		log:        log,
		clock:      time.Now,
		jwtSecret:  jwtSecret,
		sessionTTL: 24 * time.Hour,
		standups:   make(map[int64]*standup),
		pending:    make(map[int64]*pendingSend),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.seedSystemAccounts()
	return w
}

// SetDispatcher wires the command collaborator after construction; the
// dispatcher itself needs a reference back to the workspace.
func (w *Workspace) SetDispatcher(d CommandDispatcher) {
	w.dispatcher = d
}

// SetNotifier wires the fan-out collaborator after construction, for the
// same reason as SetDispatcher: the hub checks membership through the
// workspace.
func (w *Workspace) SetNotifier(n Notifier) {
	w.notifier = n
}

// Reset atomically clears every table and cancels all pending scheduled
// work, so no timer can fire against post-reset state. Used for test
// isolation and operator-driven wipes.
func (w *Workspace) Reset() {
	w.sched.CancelAll()

	w.pendingMu.Lock()
	for id, p := range w.pending {
		close(p.cancelled)
		delete(w.pending, id)
	}
	w.pendingMu.Unlock()

	w.standupMu.Lock()
	for id := range w.standups {
		delete(w.standups, id)
	}
	w.standupMu.Unlock()

	if w.dispatcher != nil {
		w.dispatcher.Reset()
	}

	w.store.Reset()
	w.seedSystemAccounts()
	w.log.Info("workspace reset")
}

// BotUserID is the fixed id of the command bot, the only seeded system
// account. It sits at the base of the reserved id range so it can never
// collide with a registered user.
const BotUserID = models.SystemIDBase

// seedSystemAccounts creates the bot account once, at initialization,
// rather than lazily on first use. The bot holds global OWNER so it can
// enter any channel it is summoned into.
func (w *Workspace) seedSystemAccounts() {
	err := w.store.Update(func(tx *store.Tx) error {
		if _, ok := tx.User(BotUserID); ok {
			return nil
		}
		tx.PutUser(&models.User{
			ID:        BotUserID,
			Email:     "bot@huddle.local",
			FirstName: "Huddle",
			LastName:  "Bot",
			Handle:    "huddlebot",
		})
		tx.SetPermission(BotUserID, models.PermOwner)
		return nil
	})
	if err != nil {
		w.log.Error("seed system accounts", zap.Error(err))
	}
}

// ---------------------------------------------------------------
// Small id-set helpers. Member and owner sets are ordered slices in the
// snapshot format, so they stay slices in memory too.
// ---------------------------------------------------------------

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []int64, id int64) []int64 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
