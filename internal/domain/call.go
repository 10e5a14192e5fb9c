// Package domain contains call entities without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

type WebRTCState string

const (
	StateIdle         WebRTCState = "idle"
	StateRinging      WebRTCState = "ringing"
	StateGotMedia     WebRTCState = "gotMedia"
	StateConnected    WebRTCState = "connected"
	StateIncomingCall WebRTCState = "incomingCall"
)

type CallDirection string

const (
	DirectionNone     CallDirection = "none"
	DirectionOutbound CallDirection = "outbound"
	DirectionInbound  CallDirection = "inbound"
)

type CallKind string

const (
	KindNone    CallKind = "none"
	KindPeer    CallKind = "peer"
	KindService CallKind = "service"
)

var ErrUnknownCallKind = errors.New("unknown call kind")

// ParseCallKind accepts the kinds a consumer may dial; "client" is an alias of peer.
func ParseCallKind(s string) (CallKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "peer", "client":
		return KindPeer, nil
	case "service":
		return KindService, nil
	}
	return KindNone, ErrUnknownCallKind
}

type RegistrationState string

const (
	Unregistered RegistrationState = "unregistered"
	Registering  RegistrationState = "registering"
	Registered   RegistrationState = "registered"
)

// CallHandle is an engine-owned reference to an in-progress call.
// The session never closes it.
type CallHandle interface {
	CallID() string
}

// MediaStream is an engine-managed media stream.
type MediaStream interface {
	StreamID() string
}

// ClientHandle is what the engine returns from a successful registration.
type ClientHandle interface {
	ClientID() string
}

// SameCall compares handles by call id; two nil handles are the same call.
func SameCall(a, b CallHandle) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.CallID() == b.CallID()
}

// NormalizeTarget strips every space from a dialled id.
func NormalizeTarget(id string) string {
	return strings.Join(strings.Fields(id), "")
}
