package orch

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeye/callsession/internal/app"
	"github.com/dkeye/callsession/internal/core"
	"github.com/dkeye/callsession/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const dtmfDigits = "0123456789*#"

// RegisterClient registers the session's client with the engine. Calls made
// while a registration is in flight share its result. ctx bounds the wait
// only; the attempt runs on, limited by the register timeout.
func (o *Orchestrator) RegisterClient(ctx context.Context) (domain.ClientHandle, error) {
	ch := o.regs.DoChan("register", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.registerTimeout)
		defer cancel()
		return o.register(rctx)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		log.Debug().Err(ctx.Err()).Str("module", "orch.commands").Msg("register wait abandoned")
		return nil, ctx.Err()
	}
	if res.Shared {
		log.Debug().Str("module", "orch.commands").Msg("register coalesced")
	}
	if res.Err != nil {
		return nil, res.Err
	}
	h, _ := res.Val.(domain.ClientHandle)
	return h, nil
}

func (o *Orchestrator) register(ctx context.Context) (domain.ClientHandle, error) {
	var current domain.ClientHandle
	err := o.exec(ctx, func() error {
		s := o.store.Current()
		if s.Registration.State == domain.Registered {
			current = s.Registration.Client
			return nil
		}
		o.store.Update(func(c *domain.CallSession) {
			c.Registration = domain.Registration{State: domain.Registering}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if current != nil {
		return current, nil
	}

	log.Info().Str("module", "orch.commands").Str("client_id", o.creds.ClientID).Str("region", o.creds.Region).Msg("registering")
	h, regErr := o.Engine.Register(ctx, o.creds)
	if regErr == nil && h == nil {
		regErr = fmt.Errorf("%w: client %s", core.ErrRegistrationFailed, o.creds.ClientID)
	}

	// the outcome is committed even when the attempt timed out
	err = o.exec(context.WithoutCancel(ctx), func() error {
		o.store.Update(func(c *domain.CallSession) {
			if regErr != nil {
				c.Registration = domain.Registration{State: domain.Unregistered}
				return
			}
			c.Registration = domain.Registration{State: domain.Registered, Client: h}
		})
		return nil
	})
	if regErr != nil {
		log.Warn().Err(regErr).Str("module", "orch.commands").Msg("registration failed")
		return nil, regErr
	}
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "orch.commands").Str("client", h.ClientID()).Msg("registered")
	return h, nil
}

func (o *Orchestrator) Unregister(ctx context.Context) error {
	return o.exec(ctx, func() error {
		if err := o.Engine.Unregister(); err != nil {
			return err
		}
		o.store.Update(func(c *domain.CallSession) {
			c.Registration = domain.Registration{State: domain.Unregistered}
		})
		log.Info().Str("module", "orch.commands").Msg("unregistered")
		return nil
	})
}

// MakeCall dials target and tracks the returned handle as the active call.
func (o *Orchestrator) MakeCall(ctx context.Context, kind domain.CallKind, target string) (domain.CallHandle, error) {
	if kind != domain.KindPeer && kind != domain.KindService {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCallKind, kind)
	}
	target = domain.NormalizeTarget(target)

	var h domain.CallHandle
	err := o.exec(ctx, func() error {
		cur := o.store.Current()
		if cur.InCall() {
			if o.CallPolicy.OnOutstandingCall(cur, kind, target) == app.RejectCall {
				return fmt.Errorf("%w: %s", core.ErrCallInProgress, cur.ActiveCall.CallID())
			}
			o.supersede(cur.ActiveCall)
		}

		var err error
		switch kind {
		case domain.KindPeer:
			h, err = o.Engine.CallPeer(target)
		case domain.KindService:
			h, err = o.Engine.CallService(target)
		}
		if err != nil {
			return err
		}
		if h == nil {
			return fmt.Errorf("%w: %s %s", core.ErrNoCallHandle, kind, target)
		}

		o.store.Update(func(c *domain.CallSession) {
			c.Direction = domain.DirectionOutbound
			c.Kind = kind
			switch kind {
			case domain.KindPeer:
				c.PeerClientID = target
			case domain.KindService:
				c.ServiceID = target
			}
			c.ActiveCall = h
		})
		log.Info().Str("module", "orch.commands").Str("kind", string(kind)).Str("target", target).Str("call", h.CallID()).Msg("call placed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// supersede stops the outstanding call and resets the record through the
// Disconnected transition before a new call replaces it.
func (o *Orchestrator) supersede(old domain.CallHandle) {
	if err := o.Engine.StopCall(old); err != nil {
		log.Warn().Err(err).Str("module", "orch.commands").Str("call", old.CallID()).Msg("stop superseded call")
	}
	o.handleNotification(core.Notification{Name: domain.EventDisconnected})
	log.Info().Str("module", "orch.commands").Str("call", old.CallID()).Msg("call superseded")
}

func (o *Orchestrator) SetLocalMicMuted(ctx context.Context, muted bool) error {
	return o.exec(ctx, func() error {
		o.store.Update(func(c *domain.CallSession) { c.LocalMicMuted = muted })
		return nil
	})
}

func (o *Orchestrator) SetLocalVideoMuted(ctx context.Context, muted bool) error {
	return o.exec(ctx, func() error {
		o.store.Update(func(c *domain.CallSession) { c.LocalVideoMuted = muted })
		return nil
	})
}

func (o *Orchestrator) Answer(ctx context.Context) error {
	return o.withCall(ctx, "answer", o.Engine.Answer)
}

func (o *Orchestrator) Reject(ctx context.Context) error {
	return o.withCall(ctx, "reject", o.Engine.Reject)
}

// Hangup asks the engine to stop the call; the state resets when the
// engine reports Disconnected.
func (o *Orchestrator) Hangup(ctx context.Context) error {
	return o.withCall(ctx, "hangup", o.Engine.StopCall)
}

func (o *Orchestrator) MuteCall(ctx context.Context) error {
	return o.withCall(ctx, "mute", o.Engine.Mute)
}

func (o *Orchestrator) SwapCamera(ctx context.Context, useRear bool) error {
	return o.withCall(ctx, "swap_camera", func(h domain.CallHandle) error {
		return o.Engine.SwapCamera(useRear, h)
	})
}

func (o *Orchestrator) SendDTMF(ctx context.Context, digit string) error {
	if len(digit) != 1 || !strings.Contains(dtmfDigits, digit) {
		return fmt.Errorf("%w: %q", core.ErrInvalidDigit, digit)
	}
	return o.withCall(ctx, "dtmf", func(h domain.CallHandle) error {
		return o.Engine.SendDTMF(digit, h)
	})
}

func (o *Orchestrator) withCall(ctx context.Context, op string, fn func(domain.CallHandle) error) error {
	return o.exec(ctx, func() error {
		h := o.store.Current().ActiveCall
		if h == nil {
			return fmt.Errorf("%s: %w", op, core.ErrNoActiveCall)
		}
		log.Debug().Str("module", "orch.commands").Str("op", op).Str("call", h.CallID()).Msg("call control")
		return fn(h)
	})
}
