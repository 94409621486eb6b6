// Package session keeps one conversation state per user identity in memory.
//
// Sessions are created on first contact, hydrated from the durable profile
// store when a record already exists for the sender's phone number, and live
// for the lifetime of the process. Every read-modify-write of a session must
// happen between Acquire and Release, which serialises turns per user while
// letting different users proceed in parallel.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"intake-assistant/pkg"
)

// Finder looks up durable profile records by phone number.  It returns
// pkg.ErrNotFound when no record exists.
type Finder interface {
	FindProfile(ctx context.Context, phone string) (*pkg.Record, error)
}

// Store maps user identifiers to sessions.  There is no eviction.
type Store struct {
	finder Finder
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	sess *pkg.Session
}

// NewStore creates a store.  finder may be nil, in which case sessions always
// start fresh.
func NewStore(finder Finder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		finder:  finder,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Handle grants exclusive access to one user's session until Release.
type Handle struct {
	e        *entry
	released bool
}

// Session returns the locked session.  Mutations are visible to the next
// holder.
func (h *Handle) Session() *pkg.Session { return h.e.sess }

// Reset replaces the session with a fresh one and returns it.
func (h *Handle) Reset() *pkg.Session {
	h.e.sess = pkg.NewSession(h.e.sess.UserID)
	return h.e.sess
}

// Release unlocks the session.  Calling it more than once is a no-op.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.e.mu.Unlock()
}

// Acquire locks and returns the session for userID, creating it on first
// contact.  A lookup failure during hydration is logged and the user starts
// from a fresh session.
func (s *Store) Acquire(ctx context.Context, userID string) *Handle {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{}
		s.entries[userID] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	if e.sess == nil {
		e.sess = s.hydrate(ctx, userID)
	}
	return &Handle{e: e}
}

func (s *Store) hydrate(ctx context.Context, userID string) *pkg.Session {
	sess := pkg.NewSession(userID)
	if s.finder == nil {
		return sess
	}
	phone := PhoneNumber(userID)
	if phone == "" {
		return sess
	}
	rec, err := s.finder.FindProfile(ctx, phone)
	switch {
	case errors.Is(err, pkg.ErrNotFound):
		return sess
	case err != nil:
		s.logger.Error("session hydration failed", "user_id", userID, "error", err)
		return sess
	}
	sess.Adopt(rec, pkg.DecodeHistory(rec.MedicalHistory))
	s.logger.Info("session hydrated from profile", "user_id", userID, "session_id", sess.ID)
	return sess
}

// Get returns a copy of the current session for userID, creating it if
// needed.
func (s *Store) Get(ctx context.Context, userID string) *pkg.Session {
	h := s.Acquire(ctx, userID)
	defer h.Release()
	return h.Session().Clone()
}

// Reset unconditionally replaces the session for userID with a fresh one.
func (s *Store) Reset(ctx context.Context, userID string) *pkg.Session {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{}
		s.entries[userID] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess = pkg.NewSession(userID)
	return e.sess.Clone()
}

// Len returns the number of tracked sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// PhoneNumber strips the channel prefix from a sender address, so
// "whatsapp:+919876543210" becomes "+919876543210".
func PhoneNumber(userID string) string {
	if i := strings.LastIndex(userID, ":"); i >= 0 {
		userID = userID[i+1:]
	}
	return strings.TrimSpace(userID)
}
