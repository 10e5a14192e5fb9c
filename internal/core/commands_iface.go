package core

import (
	"context"

	"github.com/dkeye/callsession/internal/domain"
)

// Commands is the consumer-facing command surface of a live session.
type Commands interface {
	RegisterClient(ctx context.Context) (domain.ClientHandle, error)
	Unregister(ctx context.Context) error

	MakeCall(ctx context.Context, kind domain.CallKind, target string) (domain.CallHandle, error)
	Answer(ctx context.Context) error
	Reject(ctx context.Context) error
	Hangup(ctx context.Context) error
	SendDTMF(ctx context.Context, digit string) error
	SwapCamera(ctx context.Context, useRear bool) error
	MuteCall(ctx context.Context) error

	SetLocalMicMuted(ctx context.Context, muted bool) error
	SetLocalVideoMuted(ctx context.Context, muted bool) error
}

// SnapshotSource hands out immutable copies of the session record.
type SnapshotSource interface {
	Snapshot() domain.CallSession
}

// EventSource is the subscribe side of the public bus.
type EventSource interface {
	Subscribe(name domain.EventName, l Listener) Subscription
	SubscribeAll(l Listener) Subscription
}
