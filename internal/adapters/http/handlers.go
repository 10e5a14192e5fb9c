package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/dkeye/callsession/internal/app"
	"github.com/dkeye/callsession/internal/core"
	"github.com/dkeye/callsession/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type handlers struct{}

// status maps a command error to an HTTP status.
func status(err error) int {
	switch {
	case errors.Is(err, app.ErrNoSession), errors.Is(err, core.ErrSessionClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrNoActiveCall), errors.Is(err, core.ErrCallInProgress):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidDigit), errors.Is(err, domain.ErrUnknownCallKind):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func fail(c *gin.Context, err error) {
	code := status(err)
	log.Warn().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Int("status", code).Msg("request failed")
	c.JSON(code, gin.H{"error": err.Error()})
}

// access resolves the session scope or writes the failure.
func access(c *gin.Context) (app.Access, bool) {
	a, err := app.From(c.Request.Context())
	if err != nil {
		fail(c, err)
		return app.Access{}, false
	}
	return a, true
}

func (h *handlers) session(c *gin.Context) {
	a, ok := access(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.Snapshot.View())
}

func (h *handlers) register(c *gin.Context) {
	a, ok := access(c)
	if !ok {
		return
	}
	client, err := a.Commands.RegisterClient(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client_id": client.ClientID()})
}

func (h *handlers) unregister(c *gin.Context) {
	h.run(c, func(ctx context.Context, cmds core.Commands) error { return cmds.Unregister(ctx) })
}

func (h *handlers) makeCall(c *gin.Context) {
	var req struct {
		Kind   string `json:"kind" binding:"required"`
		Target string `json:"target" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := domain.ParseCallKind(req.Kind)
	if err != nil {
		fail(c, err)
		return
	}
	a, ok := access(c)
	if !ok {
		return
	}
	call, err := a.Commands.MakeCall(c.Request.Context(), kind, req.Target)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"call_id": call.CallID()})
}

func (h *handlers) answer(c *gin.Context) {
	h.run(c, func(ctx context.Context, cmds core.Commands) error { return cmds.Answer(ctx) })
}

func (h *handlers) reject(c *gin.Context) {
	h.run(c, func(ctx context.Context, cmds core.Commands) error { return cmds.Reject(ctx) })
}

func (h *handlers) hangup(c *gin.Context) {
	h.run(c, func(ctx context.Context, cmds core.Commands) error { return cmds.Hangup(ctx) })
}

func (h *handlers) muteCall(c *gin.Context) {
	h.run(c, func(ctx context.Context, cmds core.Commands) error { return cmds.MuteCall(ctx) })
}

func (h *handlers) dtmf(c *gin.Context) {
	var req struct {
		Digit string `json:"digit" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.run(c, func(ctx context.Context, cmds core.Commands) error { return cmds.SendDTMF(ctx, req.Digit) })
}

func (h *handlers) swapCamera(c *gin.Context) {
	var req struct {
		UseRear bool `json:"use_rear"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.run(c, func(ctx context.Context, cmds core.Commands) error { return cmds.SwapCamera(ctx, req.UseRear) })
}

type muteRequest struct {
	Muted *bool `json:"muted" binding:"required"`
}

func (h *handlers) muteMic(c *gin.Context) {
	var req muteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.run(c, func(ctx context.Context, cmds core.Commands) error { return cmds.SetLocalMicMuted(ctx, *req.Muted) })
}

func (h *handlers) muteVideo(c *gin.Context) {
	var req muteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.run(c, func(ctx context.Context, cmds core.Commands) error { return cmds.SetLocalVideoMuted(ctx, *req.Muted) })
}

func (h *handlers) run(c *gin.Context, fn func(context.Context, core.Commands) error) {
	a, ok := access(c)
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), a.Commands); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// events streams domain events as server-sent events. ?name= narrows the
// stream to one event name.
func (h *handlers) events(c *gin.Context) {
	sess, err := app.SessionFrom(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	name := domain.EventName(c.Query("name"))
	if name != "" && !name.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event " + string(name)})
		return
	}

	ctx := c.Request.Context()
	ch := make(chan domain.Event, 16)
	listener := func(ev domain.Event) {
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	}
	var sub core.Subscription
	if name == "" {
		sub = sess.SubscribeAll(listener)
	} else {
		sub = sess.Subscribe(name, listener)
	}
	defer sub.Unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.SSEvent("session", sess.Snapshot().View())
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-ch:
			c.SSEvent(string(ev.Name), ev.DTO())
			return true
		case <-ctx.Done():
			return false
		case <-sess.Done():
			return false
		}
	})
}
