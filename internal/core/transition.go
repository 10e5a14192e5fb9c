package core

import (
	"fmt"

	"github.com/dkeye/callsession/internal/domain"
)

// Transition computes the session that follows n. It never mutates s.
// Connected leaves LocalStream to the store, which looks it up after commit.
func Transition(s domain.CallSession, n Notification) (domain.CallSession, domain.Event, error) {
	ev := domain.Event{Name: n.Name}

	if n.Name != domain.EventIncomingCall && n.Call != nil && !domain.SameCall(n.Call, s.ActiveCall) {
		return s, ev, fmt.Errorf("%w: %s for call %s", ErrStaleNotification, n.Name, n.Call.CallID())
	}

	next := s
	switch n.Name {
	case domain.EventRinging:
		if s.WebRTCState != domain.StateIdle {
			return s, ev, invalid(s, n)
		}
		next.WebRTCState = domain.StateRinging

	case domain.EventGotMedia:
		// an answered inbound call reports media straight from incomingCall
		if s.WebRTCState != domain.StateRinging && s.WebRTCState != domain.StateIncomingCall {
			return s, ev, invalid(s, n)
		}
		next.WebRTCState = domain.StateGotMedia

	case domain.EventConnected:
		switch s.WebRTCState {
		case domain.StateRinging, domain.StateGotMedia, domain.StateIncomingCall:
		default:
			return s, ev, invalid(s, n)
		}
		next.WebRTCState = domain.StateConnected
		next.RemoteStream = n.RemoteStream
		ev.Connected = &domain.ConnectedPayload{Call: s.ActiveCall, RemoteStream: n.RemoteStream}

	case domain.EventIncomingCall:
		if n.Call == nil {
			return s, ev, fmt.Errorf("%w: %s without call handle", ErrInvalidTransition, n.Name)
		}
		next.WebRTCState = domain.StateIncomingCall
		next.Direction = domain.DirectionInbound
		next.Kind = domain.KindPeer
		next.ActiveCall = n.Call
		next.LocalStream = nil
		next.RemoteStream = nil
		next.IncomingCallerID = n.CallerID
		ev.IncomingCall = &domain.IncomingCallPayload{Call: n.Call, CallerID: n.CallerID}

	case domain.EventDisconnected:
		next.WebRTCState = domain.StateIdle
		next.Direction = domain.DirectionNone
		next.Kind = domain.KindNone
		next.ActiveCall = nil
		next.LocalStream = nil
		next.RemoteStream = nil

	case domain.EventLocalVideoMute:
		next.LocalVideoMuted = true
	case domain.EventLocalVideoUnmute:
		next.LocalVideoMuted = false
	case domain.EventRemoteVideoMute:
		next.RemoteVideoMuted = true
	case domain.EventRemoteVideoUnmute:
		next.RemoteVideoMuted = false

	default:
		return s, ev, fmt.Errorf("%w: unknown notification %q", ErrInvalidTransition, n.Name)
	}
	return next, ev, nil
}

func invalid(s domain.CallSession, n Notification) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, n.Name, s.WebRTCState)
}
