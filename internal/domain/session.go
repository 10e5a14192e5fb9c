package domain

type Registration struct {
	State  RegistrationState
	Client ClientHandle
}

// CallSession is the single mutable record of one provider lifetime.
// Handles and streams are non-owning references into the engine.
type CallSession struct {
	Registration Registration

	WebRTCState WebRTCState
	Direction   CallDirection
	Kind        CallKind
	ActiveCall  CallHandle

	LocalStream  MediaStream
	RemoteStream MediaStream

	LocalMicMuted    bool
	LocalVideoMuted  bool
	RemoteVideoMuted bool

	PeerClientID       string
	ServiceID          string
	RegisteredClientID string
	IncomingCallerID   string
}

func NewCallSession(clientID string) CallSession {
	return CallSession{
		Registration:       Registration{State: Unregistered},
		WebRTCState:        StateIdle,
		Direction:          DirectionNone,
		Kind:               KindNone,
		RegisteredClientID: clientID,
	}
}

func (s CallSession) InCall() bool { return s.Direction != DirectionNone }

// SessionView is the JSON read model handed to outer surfaces.
type SessionView struct {
	Registration     RegistrationState `json:"registration"`
	ClientID         string            `json:"client_id,omitempty"`
	WebRTCState      WebRTCState       `json:"webrtc_state"`
	Direction        CallDirection     `json:"call_direction"`
	Kind             CallKind          `json:"call_kind"`
	ActiveCall       string            `json:"active_call,omitempty"`
	LocalStream      string            `json:"local_stream,omitempty"`
	RemoteStream     string            `json:"remote_stream,omitempty"`
	LocalMicMuted    bool              `json:"local_mic_muted"`
	LocalVideoMuted  bool              `json:"local_video_muted"`
	RemoteVideoMuted bool              `json:"remote_video_muted"`
	PeerClientID     string            `json:"peer_client_id"`
	ServiceID        string            `json:"service_id"`
	RegisteredAs     string            `json:"registered_client_id"`
	IncomingCallerID string            `json:"incoming_caller_id,omitempty"`
}

func (s CallSession) View() SessionView {
	v := SessionView{
		Registration:     s.Registration.State,
		WebRTCState:      s.WebRTCState,
		Direction:        s.Direction,
		Kind:             s.Kind,
		LocalMicMuted:    s.LocalMicMuted,
		LocalVideoMuted:  s.LocalVideoMuted,
		RemoteVideoMuted: s.RemoteVideoMuted,
		PeerClientID:     s.PeerClientID,
		ServiceID:        s.ServiceID,
		RegisteredAs:     s.RegisteredClientID,
		IncomingCallerID: s.IncomingCallerID,
	}
	if s.Registration.Client != nil {
		v.ClientID = s.Registration.Client.ClientID()
	}
	if s.ActiveCall != nil {
		v.ActiveCall = s.ActiveCall.CallID()
	}
	if s.LocalStream != nil {
		v.LocalStream = s.LocalStream.StreamID()
	}
	if s.RemoteStream != nil {
		v.RemoteStream = s.RemoteStream.StreamID()
	}
	return v
}
