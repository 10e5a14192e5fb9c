package core

import (
	"context"

	"github.com/dkeye/callsession/internal/domain"
)

//go:generate mockgen -destination=mocks/engine_mock.go -package=mocks github.com/dkeye/callsession/internal/core Engine,Subscription

// RegisterParams are the credentials handed to the engine's registration entry point.
type RegisterParams struct {
	Region    string
	AccessKey string
	ClientID  string
	LogLevel  string
	Token     string
}

// Notification is one engine lifecycle step. Call is set when the engine
// knows which call the step belongs to.
type Notification struct {
	Name         domain.EventName
	Call         domain.CallHandle
	RemoteStream domain.MediaStream
	CallerID     string
}

// NotificationHandler may be invoked from any goroutine.
type NotificationHandler func(Notification)

// Subscription is a disposable engine or bus registration.
type Subscription interface {
	Unsubscribe()
}

// Engine is the RTC engine capability set consumed by the session.
// Register is asynchronous from the session's point of view; every other
// entry point returns promptly.
type Engine interface {
	Register(ctx context.Context, p RegisterParams) (domain.ClientHandle, error)
	Unregister() error

	CallPeer(id string) (domain.CallHandle, error)
	CallService(id string) (domain.CallHandle, error)
	LocalStream(call domain.CallHandle) (domain.MediaStream, error)

	Mute(call domain.CallHandle) error
	SendDTMF(digit string, call domain.CallHandle) error
	Reject(call domain.CallHandle) error
	Answer(call domain.CallHandle) error
	StopCall(call domain.CallHandle) error
	SwapCamera(useRear bool, call domain.CallHandle) error

	// Subscribe installs a handler for one notification name.
	Subscribe(name domain.EventName, h NotificationHandler) (Subscription, error)
}
