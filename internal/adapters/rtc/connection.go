package rtc

import (
	"context"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var ErrNoRemoteStream = errors.New("no remote stream yet")

func DefaultWebRTCConfig() webrtc.Configuration {
	return WebRTCConfig([]string{"stun:stun.l.google.com:19302"})
}

func WebRTCConfig(iceServers []string) webrtc.Configuration {
	cfg := webrtc.Configuration{}
	if len(iceServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: iceServers}}
	}
	return cfg
}

// LocalStream is the outgoing media of a call.
type LocalStream struct {
	track *webrtc.TrackLocalStaticRTP
}

func (s *LocalStream) StreamID() string { return s.track.StreamID() }

type RemoteStream struct {
	id    string
	track *webrtc.TrackRemote
}

func (s *RemoteStream) StreamID() string { return s.id }

// Track is nil when the gateway announced the stream before media arrived.
func (s *RemoteStream) Track() *webrtc.TrackRemote { return s.track }

// Connection is the peer connection backing one call.
type Connection struct {
	pc     *webrtc.PeerConnection
	callID string
	local  *LocalStream
	cancel context.CancelFunc

	mu     sync.Mutex
	remote *RemoteStream

	onICE    func(webrtc.ICECandidateInit)
	onClosed func()
}

// NewConnection creates the peer connection for callID with one local audio track.
func NewConnection(cfg webrtc.Configuration, callID string) (*Connection, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio", "local-"+callID,
	)
	if err != nil {
		_ = pc.Close()
		return nil, err
	}
	if _, err := pc.AddTrack(track); err != nil {
		_ = pc.Close()
		return nil, err
	}
	return &Connection{pc: pc, callID: callID, local: &LocalStream{track: track}}, nil
}

func (c *Connection) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "rtc").Str("call", c.callID).Str("ice_state", s.String()).Msg("ICE state")
		if s == webrtc.ICEConnectionStateFailed || s == webrtc.ICEConnectionStateClosed {
			cancel()
		}
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("call", c.callID).Str("peer_connection_state", s.String()).Msg("Peer state")
		if s == webrtc.PeerConnectionStateFailed || s == webrtc.PeerConnectionStateClosed {
			if c.onClosed != nil {
				c.onClosed()
			}
		}
	})

	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand != nil && c.onICE != nil {
			c.onICE(cand.ToJSON())
		}
	})

	c.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "rtc").
			Str("call", c.callID).
			Str("kind", track.Kind().String()).
			Str("stream_id", track.StreamID()).
			Msg("OnTrack received")
		c.mu.Lock()
		c.remote = &RemoteStream{id: track.StreamID(), track: track}
		c.mu.Unlock()
		go drain(ctx, track)
	})
}

// drain keeps reading the remote track so its buffers do not fill.
func drain(ctx context.Context, track *webrtc.TrackRemote) {
	for ctx.Err() == nil {
		if _, _, err := track.ReadRTP(); err != nil {
			return
		}
	}
}

// CreateOffer sets and returns the local offer. Candidates trickle through
// OnICECandidate.
func (c *Connection) CreateOffer() (string, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return "", err
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return "", err
	}
	return offer.SDP, nil
}

func (c *Connection) ApplyAnswer(sdp string) error {
	return c.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp})
}

func (c *Connection) ApplyOfferAndCreateAnswer(sdp string) (string, error) {
	if err := c.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}); err != nil {
		return "", err
	}
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return "", err
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return "", err
	}
	return answer.SDP, nil
}

func (c *Connection) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(ci)
}

func (c *Connection) OnICECandidate(fn func(webrtc.ICECandidateInit)) { c.onICE = fn }

// OnClosed sets the callback for a failed or closed peer connection.
func (c *Connection) OnClosed(fn func()) { c.onClosed = fn }

func (c *Connection) Local() *LocalStream { return c.local }

func (c *Connection) Remote() (*RemoteStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remote == nil {
		return nil, ErrNoRemoteStream
	}
	return c.remote, nil
}

// SetLocalEnabled toggles the local track on the sender.
func (c *Connection) SetLocalEnabled(enabled bool) error {
	for _, sender := range c.pc.GetSenders() {
		if enabled {
			if sender.Track() == nil {
				if err := sender.ReplaceTrack(c.local.track); err != nil {
					return err
				}
			}
			continue
		}
		if err := sender.ReplaceTrack(nil); err != nil {
			return err
		}
	}
	return nil
}

// Sending reports whether every sender carries the local track.
func (c *Connection) Sending() bool {
	for _, sender := range c.pc.GetSenders() {
		if sender.Track() == nil {
			return false
		}
	}
	return true
}

func (c *Connection) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	if err := c.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "rtc").Str("call", c.callID).Msg("close error")
	} else {
		log.Info().Str("module", "rtc").Str("call", c.callID).Msg("closed")
	}
}
