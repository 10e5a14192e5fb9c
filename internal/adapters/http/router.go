package http

import (
	"context"

	"github.com/dkeye/callsession/internal/adapters/signal"
	"github.com/dkeye/callsession/internal/app"
	"github.com/dkeye/callsession/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RequestIDMiddleware tags each request with an id, reusing X-Request-ID when sent.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// SessionScopeMiddleware puts the live session, if any, in the request context.
func SessionScopeMiddleware(reg *app.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(reg.Scope(c.Request.Context()))
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, reg *app.Registry) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")

	h := &handlers{}
	api := r.Group("/api")
	api.Use(SessionScopeMiddleware(reg))

	api.GET("/session", h.session)
	api.POST("/register", h.register)
	api.POST("/unregister", h.unregister)

	api.POST("/call", h.makeCall)
	call := api.Group("/call")
	call.POST("/answer", h.answer)
	call.POST("/reject", h.reject)
	call.POST("/hangup", h.hangup)
	call.POST("/mute", h.muteCall)
	call.POST("/dtmf", h.dtmf)
	call.POST("/swap-camera", h.swapCamera)

	api.PUT("/mute/mic", h.muteMic)
	api.PUT("/mute/video", h.muteVideo)

	api.GET("/events", h.events)

	ws := signal.NewSignalWSController(reg)
	if cfg.ReadLimit > 0 {
		ws.ReadLimit = cfg.ReadLimit
	}
	if cfg.PingPeriod > 0 {
		ws.PingPeriod = cfg.PingPeriod
	}
	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("request_id", c.GetString("request_id")).Msg("ws endpoint hit")
		ws.HandleSignal(ctx, c)
	})

	return r
}
