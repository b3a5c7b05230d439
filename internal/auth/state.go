package auth

import (
	"sync"
	"sync/atomic"

	"github.com/healthmap/healthmap/internal/models"
)

// SessionState is an immutable snapshot of who is signed in.
// Authenticated is true exactly when User is non-nil.
type SessionState struct {
	User          *models.AuthUser
	Authenticated bool
}

// versioned numbers each snapshot in the order it was set
type versioned struct {
	state SessionState
	seq   uint64
}

// subscriber receives snapshots in increasing seq order; an older one
// arriving late is dropped.
type subscriber struct {
	mu   sync.Mutex
	seen uint64
	fn   func(SessionState)
}

func (sub *subscriber) deliver(v *versioned) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if v.seq <= sub.seen {
		return
	}
	sub.seen = v.seq
	sub.fn(v.state)
}

// State holds the current SessionState and broadcasts every change to its
// subscribers. Reads never block.
type State struct {
	current atomic.Pointer[versioned]

	mu          sync.Mutex
	seq         uint64
	nextID      int
	subscribers map[int]*subscriber
}

// NewState returns an unauthenticated State
func NewState() *State {
	s := &State{subscribers: make(map[int]*subscriber)}
	s.seq = 1
	s.current.Store(&versioned{seq: s.seq})
	return s
}

// Snapshot returns the current state
func (s *State) Snapshot() SessionState {
	return s.current.Load().state
}

// Set replaces the user; nil signs the session out. Subscribers are called
// synchronously, in no particular order.
func (s *State) Set(user *models.AuthUser) {
	next := SessionState{Authenticated: user != nil}
	if user != nil {
		u := *user
		next.User = &u
	}

	s.mu.Lock()
	s.seq++
	v := &versioned{state: next, seq: s.seq}
	s.current.Store(v)
	listeners := make([]*subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		listeners = append(listeners, sub)
	}
	s.mu.Unlock()

	for _, sub := range listeners {
		sub.deliver(v)
	}
}

// Subscribe registers fn for every future change and immediately delivers
// the current snapshot. fn never sees a snapshot older than one it already
// received, and must not call Set itself. The returned func removes the
// subscription.
func (s *State) Subscribe(fn func(SessionState)) (unsubscribe func()) {
	sub := &subscriber{fn: fn}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = sub
	initial := s.current.Load()
	s.mu.Unlock()

	sub.deliver(initial)

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}
