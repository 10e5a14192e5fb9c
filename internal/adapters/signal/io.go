package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/callsession/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *wsSignalConn) {
	var ping <-chan time.Time
	if ctl.PingPeriod > 0 {
		ticker := time.NewTicker(ctl.PingPeriod)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-ping:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("remote", c.id).Msg("writePump ping")
				return
			}
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Info().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cmds core.Commands, c *wsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("remote", c.id).Msg("readPump closing")
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("remote", c.id).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("remote", c.id).Msg("readPump read error")
				return
			}
			ctl.handleSignal(ctx, cmds, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, cmds core.Commands, c *wsSignalConn, data []byte) {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendJSON(c, replyMessage{Type: "error", Error: "bad json"})
		return
	}

	switch req.Type {
	case "ping":
		ctl.handlePing(c)
	case "register":
		ctl.handleRegister(ctx, cmds, c)
	case "unregister":
		ctl.reply(c, req.Type, cmds.Unregister(ctx))
	case "call":
		ctl.handleCall(ctx, cmds, c, req)
	case "answer":
		ctl.reply(c, req.Type, cmds.Answer(ctx))
	case "reject":
		ctl.reply(c, req.Type, cmds.Reject(ctx))
	case "hangup":
		ctl.reply(c, req.Type, cmds.Hangup(ctx))
	case "mute":
		ctl.reply(c, req.Type, cmds.MuteCall(ctx))
	case "dtmf":
		ctl.reply(c, req.Type, cmds.SendDTMF(ctx, req.Digit))
	case "swap_camera":
		ctl.reply(c, req.Type, cmds.SwapCamera(ctx, req.UseRear))
	case "mute_mic":
		ctl.reply(c, req.Type, cmds.SetLocalMicMuted(ctx, req.Muted))
	case "mute_video":
		ctl.reply(c, req.Type, cmds.SetLocalVideoMuted(ctx, req.Muted))
	default:
		log.Warn().Str("module", "signal").Str("type", req.Type).Msg("unknown signal")
		ctl.sendJSON(c, replyMessage{Type: "error", Op: req.Type, Error: "unknown signal"})
	}
}

func (ctl *SignalWSController) sendJSON(c core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("sendJSON")
	}
}
