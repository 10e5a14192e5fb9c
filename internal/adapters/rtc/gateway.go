package rtc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/callsession/internal/core"
	"github.com/dkeye/callsession/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var (
	ErrGatewayClosed       = errors.New("gateway connection closed")
	ErrBackpressure        = errors.New("gateway send buffer full")
	ErrUnknownCall         = errors.New("unknown call")
	ErrUnknownNotification = errors.New("unknown notification")
)

type Options struct {
	URL         string
	ICEServers  []string
	DialTimeout time.Duration
	Header      http.Header
}

// envelope is the gateway wire message.
type envelope struct {
	Type      string                   `json:"type"`
	ID        string                   `json:"id,omitempty"`
	CallID    string                   `json:"call_id,omitempty"`
	Kind      string                   `json:"kind,omitempty"`
	Target    string                   `json:"target,omitempty"`
	ClientID  string                   `json:"client_id,omitempty"`
	Region    string                   `json:"region,omitempty"`
	AccessKey string                   `json:"access_key,omitempty"`
	Token     string                   `json:"token,omitempty"`
	LogLevel  string                   `json:"log_level,omitempty"`
	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
	Digit     string                   `json:"digit,omitempty"`
	UseRear   bool                     `json:"use_rear,omitempty"`
	CallerID  string                   `json:"caller_id,omitempty"`
	StreamID  string                   `json:"stream_id,omitempty"`
	Muted     bool                     `json:"muted,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

type client string

func (c client) ClientID() string { return string(c) }

// Call is the handle the gateway engine gives out for a call.
type Call struct {
	id    string
	conn  *Connection
	offer string

	mu    sync.Mutex
	muted bool
}

func (c *Call) CallID() string { return c.id }

type subscription func()

func (s subscription) Unsubscribe() { s() }

// Gateway is a core.Engine speaking JSON over a websocket to a signaling
// gateway, with one pion peer connection per call.
type Gateway struct {
	conn   *websocket.Conn
	send   chan []byte
	rtcCfg webrtc.Configuration
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	closed   bool
	handlers map[domain.EventName]map[string]core.NotificationHandler
	calls    map[string]*Call
	pending  map[string]chan envelope
}

// Dial connects to the gateway and starts its pumps.
func Dial(ctx context.Context, opts Options) (*Gateway, error) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	ws, _, err := dialer.DialContext(ctx, opts.URL, opts.Header)
	if err != nil {
		return nil, fmt.Errorf("dial gateway %s: %w", opts.URL, err)
	}

	g := &Gateway{
		conn:     ws,
		send:     make(chan []byte, 64),
		rtcCfg:   WebRTCConfig(opts.ICEServers),
		handlers: make(map[domain.EventName]map[string]core.NotificationHandler),
		calls:    make(map[string]*Call),
		pending:  make(map[string]chan envelope),
	}
	pumpCtx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.wg.Add(2)
	go g.writePump(pumpCtx)
	go g.readPump(pumpCtx)
	log.Info().Str("module", "rtc").Str("url", opts.URL).Msg("gateway connected")
	return g, nil
}

// Close drops the websocket and every call's peer connection.
func (g *Gateway) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	calls := g.calls
	g.calls = make(map[string]*Call)
	for id, ch := range g.pending {
		close(ch)
		delete(g.pending, id)
	}
	g.mu.Unlock()

	g.cancel()
	_ = g.conn.Close()
	g.wg.Wait()
	for _, c := range calls {
		c.conn.Close()
	}
	log.Info().Str("module", "rtc").Msg("gateway closed")
}

func (g *Gateway) Register(ctx context.Context, p core.RegisterParams) (domain.ClientHandle, error) {
	resp, err := g.request(ctx, envelope{
		Type:      "register",
		ClientID:  p.ClientID,
		Region:    p.Region,
		AccessKey: p.AccessKey,
		Token:     p.Token,
		LogLevel:  p.LogLevel,
	})
	if err != nil {
		return nil, err
	}
	if resp.ClientID == "" {
		return nil, nil
	}
	return client(resp.ClientID), nil
}

func (g *Gateway) Unregister() error {
	return g.write(envelope{Type: "unregister"})
}

func (g *Gateway) CallPeer(id string) (domain.CallHandle, error) {
	return g.dial("peer", id)
}

func (g *Gateway) CallService(id string) (domain.CallHandle, error) {
	return g.dial("service", id)
}

func (g *Gateway) dial(kind, target string) (domain.CallHandle, error) {
	c, err := g.newCall(uuid.NewString())
	if err != nil {
		return nil, err
	}
	sdp, err := c.conn.CreateOffer()
	if err != nil {
		g.dropCall(c.id)
		return nil, err
	}
	if err := g.write(envelope{Type: "call", CallID: c.id, Kind: kind, Target: target, SDP: sdp}); err != nil {
		g.dropCall(c.id)
		return nil, err
	}
	log.Info().Str("module", "rtc").Str("call", c.id).Str("kind", kind).Str("target", target).Msg("dialled")
	return c, nil
}

func (g *Gateway) newCall(id string) (*Call, error) {
	conn, err := NewConnection(g.rtcCfg, id)
	if err != nil {
		return nil, err
	}
	c := &Call{id: id, conn: conn}
	conn.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		if err := g.write(envelope{Type: "candidate", CallID: id, Candidate: &ci}); err != nil {
			log.Warn().Err(err).Str("module", "rtc").Str("call", id).Msg("send candidate")
		}
	})
	conn.OnClosed(func() { g.lostCall(id) })
	conn.Start(context.Background())

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		conn.Close()
		return nil, ErrGatewayClosed
	}
	g.calls[id] = c
	return c, nil
}

func (g *Gateway) call(h domain.CallHandle) (*Call, error) {
	if h == nil {
		return nil, ErrUnknownCall
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.calls[h.CallID()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCall, h.CallID())
	}
	return c, nil
}

func (g *Gateway) dropCall(id string) {
	g.mu.Lock()
	c, ok := g.calls[id]
	delete(g.calls, id)
	g.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// lostCall reports a call whose peer connection failed or closed while the
// call was still tracked. Calls ended through dropCall are no longer tracked.
func (g *Gateway) lostCall(id string) {
	g.mu.Lock()
	c, ok := g.calls[id]
	delete(g.calls, id)
	g.mu.Unlock()
	if !ok {
		return
	}
	log.Warn().Str("module", "rtc").Str("call", id).Msg("peer connection lost")
	g.notify(core.Notification{Name: domain.EventDisconnected, Call: c})
	c.conn.Close()
}

func (g *Gateway) LocalStream(h domain.CallHandle) (domain.MediaStream, error) {
	c, err := g.call(h)
	if err != nil {
		return nil, err
	}
	return c.conn.Local(), nil
}

// Mute toggles sending on the call's local track.
func (g *Gateway) Mute(h domain.CallHandle) error {
	c, err := g.call(h)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetLocalEnabled(c.muted); err != nil {
		return err
	}
	c.muted = !c.muted
	return g.write(envelope{Type: "mute", CallID: c.id, Muted: c.muted})
}

func (g *Gateway) SendDTMF(digit string, h domain.CallHandle) error {
	if _, err := g.call(h); err != nil {
		return err
	}
	return g.write(envelope{Type: "dtmf", CallID: h.CallID(), Digit: digit})
}

func (g *Gateway) Reject(h domain.CallHandle) error {
	if _, err := g.call(h); err != nil {
		return err
	}
	defer g.dropCall(h.CallID())
	return g.write(envelope{Type: "reject", CallID: h.CallID()})
}

func (g *Gateway) Answer(h domain.CallHandle) error {
	c, err := g.call(h)
	if err != nil {
		return err
	}
	sdp, err := c.conn.ApplyOfferAndCreateAnswer(c.offer)
	if err != nil {
		return err
	}
	return g.write(envelope{Type: "answer", CallID: c.id, SDP: sdp})
}

func (g *Gateway) StopCall(h domain.CallHandle) error {
	if _, err := g.call(h); err != nil {
		return err
	}
	defer g.dropCall(h.CallID())
	return g.write(envelope{Type: "hangup", CallID: h.CallID()})
}

func (g *Gateway) SwapCamera(useRear bool, h domain.CallHandle) error {
	if _, err := g.call(h); err != nil {
		return err
	}
	return g.write(envelope{Type: "swap_camera", CallID: h.CallID(), UseRear: useRear})
}

// Subscribe installs h for notification name. Handlers run on the gateway's
// read goroutine.
func (g *Gateway) Subscribe(name domain.EventName, h core.NotificationHandler) (core.Subscription, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNotification, name)
	}
	id := uuid.NewString()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, ErrGatewayClosed
	}
	if g.handlers[name] == nil {
		g.handlers[name] = make(map[string]core.NotificationHandler)
	}
	g.handlers[name][id] = h
	return subscription(func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.handlers[name], id)
	}), nil
}

// request sends env with a fresh id and waits for the reply carrying it.
func (g *Gateway) request(ctx context.Context, env envelope) (envelope, error) {
	env.ID = uuid.NewString()
	ch := make(chan envelope, 1)
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return envelope{}, ErrGatewayClosed
	}
	g.pending[env.ID] = ch
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		delete(g.pending, env.ID)
		g.mu.Unlock()
	}()

	if err := g.write(env); err != nil {
		return envelope{}, err
	}
	select {
	case resp, ok := <-ch:
		if !ok {
			return envelope{}, ErrGatewayClosed
		}
		if resp.Type == "error" {
			return envelope{}, fmt.Errorf("gateway %s: %s", env.Type, resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		return envelope{}, ctx.Err()
	}
}

func (g *Gateway) write(env envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return ErrGatewayClosed
	}
	select {
	case g.send <- b:
		return nil
	default:
		return ErrBackpressure
	}
}

func (g *Gateway) writePump(ctx context.Context) {
	defer g.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-g.send:
			if err := g.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "rtc").Msg("writePump set deadline")
				return
			}
			if err := g.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "rtc").Msg("writePump write error")
				return
			}
		}
	}
}

func (g *Gateway) readPump(ctx context.Context) {
	defer g.wg.Done()
	for {
		_, data, err := g.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Str("module", "rtc").Msg("readPump read error")
			}
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Error().Err(err).Str("module", "rtc").Msg("bad json")
			continue
		}
		g.handle(env)
	}
}

func (g *Gateway) handle(env envelope) {
	if env.ID != "" {
		g.mu.RLock()
		ch, ok := g.pending[env.ID]
		if ok {
			select {
			case ch <- env:
			default:
			}
		}
		g.mu.RUnlock()
		if ok {
			return
		}
	}

	switch env.Type {
	case "answer":
		g.onAnswer(env)
	case "candidate":
		g.onCandidate(env)
	case string(domain.EventIncomingCall):
		g.onIncoming(env)
	default:
		name := domain.EventName(env.Type)
		if !name.Valid() {
			log.Warn().Str("module", "rtc").Str("type", env.Type).Msg("unknown gateway message")
			return
		}
		g.notify(g.notification(name, env))
		if name == domain.EventDisconnected && env.CallID != "" {
			g.dropCall(env.CallID)
		}
	}
}

func (g *Gateway) notification(name domain.EventName, env envelope) core.Notification {
	n := core.Notification{Name: name, CallerID: env.CallerID}
	if env.CallID == "" {
		return n
	}
	g.mu.RLock()
	c, ok := g.calls[env.CallID]
	g.mu.RUnlock()
	if !ok {
		n.Call = &Call{id: env.CallID}
		return n
	}
	n.Call = c
	if name == domain.EventConnected {
		if remote, err := c.conn.Remote(); err == nil {
			n.RemoteStream = remote
		} else if env.StreamID != "" {
			n.RemoteStream = &RemoteStream{id: env.StreamID}
		}
	}
	return n
}

func (g *Gateway) onIncoming(env envelope) {
	if env.CallID == "" {
		log.Warn().Str("module", "rtc").Msg("incoming call without id")
		return
	}
	c, err := g.newCall(env.CallID)
	if err != nil {
		log.Error().Err(err).Str("module", "rtc").Str("call", env.CallID).Msg("incoming call setup")
		return
	}
	c.offer = env.SDP
	g.notify(core.Notification{Name: domain.EventIncomingCall, Call: c, CallerID: env.CallerID})
}

func (g *Gateway) onAnswer(env envelope) {
	c, err := g.call(&Call{id: env.CallID})
	if err != nil {
		log.Warn().Err(err).Str("module", "rtc").Msg("answer")
		return
	}
	if err := c.conn.ApplyAnswer(env.SDP); err != nil {
		log.Error().Err(err).Str("module", "rtc").Str("call", c.id).Msg("apply answer")
	}
}

func (g *Gateway) onCandidate(env envelope) {
	if env.Candidate == nil {
		return
	}
	c, err := g.call(&Call{id: env.CallID})
	if err != nil {
		log.Warn().Err(err).Str("module", "rtc").Msg("candidate")
		return
	}
	if err := c.conn.AddICECandidate(*env.Candidate); err != nil {
		log.Error().Err(err).Str("module", "rtc").Str("call", c.id).Msg("add ice candidate")
	}
}

func (g *Gateway) notify(n core.Notification) {
	g.mu.RLock()
	hs := make([]core.NotificationHandler, 0, len(g.handlers[n.Name]))
	for _, h := range g.handlers[n.Name] {
		hs = append(hs, h)
	}
	g.mu.RUnlock()
	log.Debug().Str("module", "rtc").Str("event", string(n.Name)).Int("handlers", len(hs)).Msg("notify")
	for _, h := range hs {
		h(n)
	}
}
