package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry holds the one live session of the process so outer surfaces
// can enter its scope.
type Registry struct {
	mu      sync.RWMutex
	session Session
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Bind(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = s
	log.Info().Str("module", "app.registry").Msg("bound session")
}

// Unbind clears the slot if it still holds s.
func (r *Registry) Unbind(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == s {
		r.session = nil
		log.Info().Str("module", "app.registry").Msg("unbind session")
	}
}

func (r *Registry) Current() (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session, r.session != nil
}

// Scope returns ctx inside the live session's scope, or ctx unchanged when
// there is none; From then fails with ErrNoSession.
func (r *Registry) Scope(ctx context.Context) context.Context {
	if s, ok := r.Current(); ok {
		return WithSession(ctx, s)
	}
	return ctx
}
