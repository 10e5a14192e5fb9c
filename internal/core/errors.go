package core

import "errors"

var (
	// ErrEngineIntegration wraps failures while installing bridge handlers.
	ErrEngineIntegration = errors.New("engine integration")
	// ErrStaleNotification marks a notification for a call that is no longer active.
	ErrStaleNotification = errors.New("stale notification")
	ErrInvalidTransition = errors.New("invalid transition")

	ErrRegistrationFailed = errors.New("registration failed")
	ErrNoActiveCall       = errors.New("no active call")
	ErrNoCallHandle       = errors.New("engine returned no call handle")
	ErrCallInProgress     = errors.New("call in progress")
	ErrInvalidDigit       = errors.New("invalid dtmf digit")
	ErrSessionClosed      = errors.New("session closed")

	ErrBackpressure = errors.New("backpressure")
	ErrBusClosed    = errors.New("event bus closed")
)
