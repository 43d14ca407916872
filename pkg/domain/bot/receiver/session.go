package receiver

import (
	"sync"

	"github.com/napryag/clinic_booking_bot/pkg/domain/booking/wizard"
)

// AuthForm collects the two authentication answers typed by the user.
type AuthForm struct {
	Document string
}

// AwaitingBirthDate reports whether the document has been given already.
func (f AuthForm) AwaitingBirthDate() bool { return f.Document != "" }

// Session is one Telegram user's wizard plus the message it is rendered in.
// Callers hold mu for the whole handling of an update.
type Session struct {
	mu sync.Mutex

	UserID    int64
	ChatID    int64
	MessageID int
	Name      string

	Started bool
	Flow    *wizard.Flow
	Form    AuthForm
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// FlowFactory builds the wizard for a user on first contact.
type FlowFactory func(userID int64) *wizard.Flow

// ---------- Session store (in-memory, goroutine-safe) ----------

type Registry struct {
	mu      sync.RWMutex
	m       map[int64]*Session
	factory FlowFactory
	created func(*Session)
}

func NewRegistry(factory FlowFactory) *Registry {
	return &Registry{m: make(map[int64]*Session), factory: factory}
}

// OnCreate registers a hook run once for each new session, before it is
// returned by Get.
func (r *Registry) OnCreate(fn func(*Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = fn
}

func (r *Registry) Get(userID int64) *Session {
	r.mu.RLock()
	sess, ok := r.m[userID]
	r.mu.RUnlock()
	if ok {
		return sess
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.m[userID]; ok {
		return sess
	}
	sess = &Session{UserID: userID, Flow: r.factory(userID)}
	if r.created != nil {
		r.created(sess)
	}
	r.m[userID] = sess
	return sess
}

// Lookup returns the session without creating one.
func (r *Registry) Lookup(userID int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.m[userID]
	return sess, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.m)
}
