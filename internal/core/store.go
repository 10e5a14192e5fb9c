package core

import (
	"sync/atomic"

	"github.com/dkeye/callsession/internal/domain"
	"github.com/rs/zerolog/log"
)

// StreamLookup fetches the local stream of a call from the engine.
type StreamLookup func(domain.CallHandle) (domain.MediaStream, error)

// Store owns the CallSession. It is single-writer: only the session loop
// calls Apply and Update. Snapshot is safe from any goroutine.
type Store struct {
	session   domain.CallSession
	lookup    StreamLookup
	published atomic.Pointer[domain.CallSession]
}

func NewStore(clientID string, lookup StreamLookup) *Store {
	s := &Store{session: domain.NewCallSession(clientID), lookup: lookup}
	s.publish()
	return s
}

// Current is the owner's view of the record.
func (s *Store) Current() domain.CallSession { return s.session }

// Snapshot returns the last published copy.
func (s *Store) Snapshot() domain.CallSession { return *s.published.Load() }

// Apply runs Transition and commits the result. For Connected the local
// stream is fetched with the handle held by the committed record.
func (s *Store) Apply(n Notification) (domain.Event, error) {
	next, ev, err := Transition(s.session, n)
	if err != nil {
		return ev, err
	}
	s.session = next

	if ev.Name == domain.EventConnected && s.lookup != nil && s.session.ActiveCall != nil {
		ls, err := s.lookup(s.session.ActiveCall)
		if err != nil {
			log.Warn().Err(err).Str("module", "core.store").Str("call", s.session.ActiveCall.CallID()).Msg("local stream lookup failed")
		} else {
			s.session.LocalStream = ls
		}
	}
	s.publish()
	return ev, nil
}

// Update applies a direct command mutation. It must not touch WebRTCState.
func (s *Store) Update(fn func(*domain.CallSession)) {
	next := s.session
	fn(&next)
	next.WebRTCState = s.session.WebRTCState
	s.session = next
	s.publish()
}

func (s *Store) publish() {
	cp := s.session
	s.published.Store(&cp)
}
