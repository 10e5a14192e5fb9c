package domain

type EventName string

const (
	EventDisconnected      EventName = "disconnected"
	EventRinging           EventName = "ringing"
	EventGotMedia          EventName = "gotMedia"
	EventConnected         EventName = "connected"
	EventIncomingCall      EventName = "incomingCall"
	EventLocalVideoMute    EventName = "localVideoMute"
	EventLocalVideoUnmute  EventName = "localVideoUnmute"
	EventRemoteVideoMute   EventName = "remoteVideoMute"
	EventRemoteVideoUnmute EventName = "remoteVideoUnmute"
)

// EventNames lists every lifecycle step in table order.
var EventNames = []EventName{
	EventDisconnected,
	EventRinging,
	EventGotMedia,
	EventConnected,
	EventIncomingCall,
	EventLocalVideoMute,
	EventLocalVideoUnmute,
	EventRemoteVideoMute,
	EventRemoteVideoUnmute,
}

func (n EventName) Valid() bool {
	for _, v := range EventNames {
		if v == n {
			return true
		}
	}
	return false
}

type ConnectedPayload struct {
	Call         CallHandle
	RemoteStream MediaStream
}

type IncomingCallPayload struct {
	Call     CallHandle
	CallerID string
}

// Event is one published call-lifecycle transition.
// Only Connected and IncomingCall carry a payload.
type Event struct {
	Name         EventName
	Connected    *ConnectedPayload
	IncomingCall *IncomingCallPayload
}

// EventDTO is the wire form of Event for websocket and SSE consumers.
type EventDTO struct {
	Type         EventName `json:"type"`
	CallID       string    `json:"call_id,omitempty"`
	RemoteStream string    `json:"remote_stream,omitempty"`
	CallerID     string    `json:"caller_id,omitempty"`
}

func (e Event) DTO() EventDTO {
	dto := EventDTO{Type: e.Name}
	switch {
	case e.Connected != nil:
		if e.Connected.Call != nil {
			dto.CallID = e.Connected.Call.CallID()
		}
		if e.Connected.RemoteStream != nil {
			dto.RemoteStream = e.Connected.RemoteStream.StreamID()
		}
	case e.IncomingCall != nil:
		if e.IncomingCall.Call != nil {
			dto.CallID = e.IncomingCall.Call.CallID()
		}
		dto.CallerID = e.IncomingCall.CallerID
	}
	return dto
}
