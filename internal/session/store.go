// Package session holds the current authenticated identity and profile for a
// client of the API. It replaces implicit global auth state with an explicit
// store: observers register once, updates arrive only through Set and Clear,
// and reads go through the Current accessor.
package session

import (
	"errors"
	"sync"

	"github.com/flightline-labs/discstash/internal/profiles"
)

// Event describes a session state transition delivered to observers.
type Event string

const (
	EventSignedIn  Event = "signed_in"
	EventSignedOut Event = "signed_out"
	EventProfile   Event = "profile_updated"
)

// ErrStoreClosed indicates the store has been torn down.
var ErrStoreClosed = errors.New("session: store closed")

// Session is the authenticated state snapshot observed by consumers.
type Session struct {
	IdentityID string
	Email      string
	Profile    *profiles.Profile
}

// Observer receives session change notifications.
type Observer func(event Event, session Session)

// Store owns the current session. Lifecycle: construct, register observers,
// receive updates, Close.
type Store struct {
	mu        sync.Mutex
	current   Session
	active    bool
	closed    bool
	observers map[int64]Observer
	nextID    int64
}

// NewStore constructs an empty session store.
func NewStore() *Store {
	return &Store{observers: make(map[int64]Observer)}
}

// OnSessionChange registers an observer and returns its unsubscribe function.
func (s *Store) OnSessionChange(observer Observer) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	s.nextID++
	id := s.nextID
	s.observers[id] = observer
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}, nil
}

// Current returns the session snapshot and whether a user is signed in.
func (s *Store) Current() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.active
}

// Set records a signed-in session and notifies observers.
func (s *Store) Set(session Session) error {
	return s.transition(EventSignedIn, session, true)
}

// UpdateProfile replaces the profile on the current session.
func (s *Store) UpdateProfile(profile *profiles.Profile) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	s.current.Profile = profile
	snapshot := s.current
	observers := s.observerList()
	s.mu.Unlock()

	for _, observer := range observers {
		observer(EventProfile, snapshot)
	}
	return nil
}

// Clear drops the current session and notifies observers.
func (s *Store) Clear() error {
	return s.transition(EventSignedOut, Session{}, false)
}

// Close tears the store down; further updates and registrations fail.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.active = false
	s.current = Session{}
	s.observers = make(map[int64]Observer)
	s.mu.Unlock()
}

func (s *Store) transition(event Event, session Session, active bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.current = session
	s.active = active
	observers := s.observerList()
	s.mu.Unlock()

	for _, observer := range observers {
		observer(event, session)
	}
	return nil
}

// observerList copies the observer set so callbacks run outside the lock.
func (s *Store) observerList() []Observer {
	observers := make([]Observer, 0, len(s.observers))
	for _, observer := range s.observers {
		observers = append(observers, observer)
	}
	return observers
}
