package app

import (
	"context"
	"errors"

	"github.com/dkeye/callsession/internal/core"
	"github.com/dkeye/callsession/internal/domain"
)

// ErrNoSession is returned when the accessor is used outside a live session scope.
var ErrNoSession = errors.New("call session accessor used outside an active session")

// Session is what a live orchestrator exposes to its consumers.
type Session interface {
	core.SnapshotSource
	core.EventSource
	Commands() core.Commands
	Done() <-chan struct{}
}

// Access is the consumer's read view plus command surface.
type Access struct {
	Snapshot domain.CallSession
	Commands core.Commands
}

type scopeKey struct{}

// WithSession opens the session scope on ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// SessionFrom returns the live session bound to ctx.
func SessionFrom(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(scopeKey{}).(Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	select {
	case <-s.Done():
		return nil, ErrNoSession
	default:
	}
	return s, nil
}

// From returns a snapshot and the commands of the session bound to ctx.
func From(ctx context.Context) (Access, error) {
	s, err := SessionFrom(ctx)
	if err != nil {
		return Access{}, err
	}
	return Access{Snapshot: s.Snapshot(), Commands: s.Commands()}, nil
}

// MustFrom is From for callers that treat a missing scope as a programming error.
func MustFrom(ctx context.Context) Access {
	a, err := From(ctx)
	if err != nil {
		panic(err)
	}
	return a
}
