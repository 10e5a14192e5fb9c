package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/callsession/internal/app"
	"github.com/dkeye/callsession/internal/core"
	"github.com/dkeye/callsession/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrConnClosed = errors.New("connection closed")

// SignalWSController streams session events to a websocket consumer and
// runs the commands it sends.
type SignalWSController struct {
	Registry  *app.Registry
	Limiter   *RateLimiter
	ReadLimit int64
	// PingPeriod is the interval of websocket pings. A peer that sends no
	// pong for two periods is dropped.
	PingPeriod time.Duration
}

func NewSignalWSController(reg *app.Registry) *SignalWSController {
	return &SignalWSController{
		Registry:   reg,
		Limiter:    NewRateLimiter(5, 10*time.Second),
		ReadLimit:  32768,
		PingPeriod: 54 * time.Second,
	}
}

func (ctl *SignalWSController) pongWait() time.Duration {
	return 2 * ctl.PingPeriod
}

type wsSignalConn struct {
	id   string
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *wsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and serves it until either side closes.
// Without a live session the request is answered with 503.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sess, err := app.SessionFrom(ctl.Registry.Scope(c.Request.Context()))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}
	if ctl.PingPeriod > 0 {
		_ = ws.SetReadDeadline(time.Now().Add(ctl.pongWait()))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(ctl.pongWait()))
		})
	}

	conn := &wsSignalConn{
		id:   c.ClientIP(),
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	log.Info().Str("module", "signal").Str("remote", conn.id).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	sub := sess.SubscribeAll(func(ev domain.Event) {
		ctl.sendJSON(conn, eventMessage{Type: "event", Event: ev.DTO()})
	})
	go func() {
		select {
		case <-ctx.Done():
		case <-sess.Done():
			cancel()
		}
		sub.Unsubscribe()
		conn.Close()
	}()

	ctl.sendJSON(conn, sessionMessage{Type: "session", Session: sess.Snapshot().View()})

	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, sess.Commands(), conn)
	}()
}
