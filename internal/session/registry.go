package session

import (
	"sync"
	"time"
)

type entry struct {
	session   Session
	updatedAt time.Time
}

// Registry maps chat ids to sessions. Set always replaces whatever the chat had, so a
// chat is never in two sessions at once.
type Registry struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time

	locksMu sync.Mutex
	locks   map[string]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

type Option func(*Registry)

// WithTTL expires sessions that have not changed for ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]entry),
		locks:   make(map[string]*chatLock),
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Get returns the chat's session or nil.
func (r *Registry) Get(chatID string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[chatID]
	if !ok {
		return nil
	}
	if r.ttl > 0 && r.now().Sub(e.updatedAt) > r.ttl {
		delete(r.entries, chatID)
		return nil
	}
	return e.session
}

// Set replaces the chat's session. Setting nil is the same as Clear.
func (r *Registry) Set(chatID string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s == nil {
		delete(r.entries, chatID)
		return
	}
	r.entries[chatID] = entry{session: s, updatedAt: r.now()}
}

// Touch refreshes the TTL clock after a session was mutated in place.
func (r *Registry) Touch(chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[chatID]; ok {
		e.updatedAt = r.now()
		r.entries[chatID] = e
	}
}

func (r *Registry) Clear(chatID string) {
	r.Set(chatID, nil)
}

// Len counts stored sessions, expired ones included until they are next read.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Lock serializes message handling for one chat. Other chats are not blocked.
// The returned func releases the lock.
func (r *Registry) Lock(chatID string) (unlock func()) {
	r.locksMu.Lock()
	l, ok := r.locks[chatID]
	if !ok {
		l = &chatLock{}
		r.locks[chatID] = l
	}
	l.refs++
	r.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, chatID)
		}
		r.locksMu.Unlock()
	}
}
