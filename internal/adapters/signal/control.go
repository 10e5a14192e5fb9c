package signal

import (
	"context"

	"github.com/dkeye/callsession/internal/core"
	"github.com/dkeye/callsession/internal/domain"
	"github.com/rs/zerolog/log"
)

// request is a consumer command. Fields beyond type depend on the command.
type request struct {
	Type    string `json:"type"`
	Kind    string `json:"kind,omitempty"`
	Target  string `json:"target,omitempty"`
	Digit   string `json:"digit,omitempty"`
	Muted   bool   `json:"muted,omitempty"`
	UseRear bool   `json:"use_rear,omitempty"`
}

type replyMessage struct {
	Type     string `json:"type"`
	Op       string `json:"op,omitempty"`
	CallID   string `json:"call_id,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

type eventMessage struct {
	Type  string          `json:"type"`
	Event domain.EventDTO `json:"event"`
}

type sessionMessage struct {
	Type    string             `json:"type"`
	Session domain.SessionView `json:"session"`
}

func (ctl *SignalWSController) handlePing(conn *wsSignalConn) {
	ctl.sendJSON(conn, replyMessage{Type: "pong"})
}

func (ctl *SignalWSController) reply(conn *wsSignalConn, op string, err error) {
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("op", op).Msg("command failed")
		ctl.sendJSON(conn, replyMessage{Type: "error", Op: op, Error: err.Error()})
		return
	}
	ctl.sendJSON(conn, replyMessage{Type: "ok", Op: op})
}

func (ctl *SignalWSController) handleRegister(ctx context.Context, cmds core.Commands, conn *wsSignalConn) {
	if ctl.Limiter != nil && !ctl.Limiter.Allow(conn.id) {
		ctl.sendJSON(conn, replyMessage{Type: "error", Op: "register", Error: "rate limited"})
		return
	}
	h, err := cmds.RegisterClient(ctx)
	if err != nil {
		ctl.reply(conn, "register", err)
		return
	}
	ctl.sendJSON(conn, replyMessage{Type: "ok", Op: "register", ClientID: h.ClientID()})
}

func (ctl *SignalWSController) handleCall(ctx context.Context, cmds core.Commands, conn *wsSignalConn, req request) {
	if ctl.Limiter != nil && !ctl.Limiter.Allow(conn.id) {
		ctl.sendJSON(conn, replyMessage{Type: "error", Op: "call", Error: "rate limited"})
		return
	}
	kind, err := domain.ParseCallKind(req.Kind)
	if err != nil {
		ctl.reply(conn, "call", err)
		return
	}
	h, err := cmds.MakeCall(ctx, kind, req.Target)
	if err != nil {
		ctl.reply(conn, "call", err)
		return
	}
	ctl.sendJSON(conn, replyMessage{Type: "ok", Op: "call", CallID: h.CallID()})
}
