package orch

import (
	"errors"
	"fmt"

	"github.com/dkeye/callsession/internal/app"
	"github.com/dkeye/callsession/internal/core"
	"github.com/dkeye/callsession/internal/domain"
	"github.com/rs/zerolog/log"
)

// installBridge subscribes one handler per engine notification. A failed
// subscription is logged and skipped; the session runs without it.
func (o *Orchestrator) installBridge() {
	for _, name := range domain.EventNames {
		sub, err := o.Engine.Subscribe(name, func(n core.Notification) {
			n.Name = name
			o.onNotification(n)
		})
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", core.ErrEngineIntegration, name, err)
			log.Error().Err(err).Str("module", "orch.bridge").Str("event", string(name)).Msg("install handler")
			continue
		}
		o.subs = append(o.subs, sub)
	}
}

// onNotification runs on the engine's goroutine.
func (o *Orchestrator) onNotification(n core.Notification) {
	if err := o.post(func() { o.handleNotification(n) }); err != nil {
		log.Debug().Err(err).Str("module", "orch.bridge").Str("event", string(n.Name)).Msg("notification after close")
	}
}

func (o *Orchestrator) handleNotification(n core.Notification) {
	ev, err := o.store.Apply(n)
	switch {
	case errors.Is(err, core.ErrStaleNotification):
		log.Debug().Err(err).Str("module", "orch.bridge").Msg("dropped stale notification")
		return
	case err != nil:
		log.Warn().Err(err).Str("module", "orch.bridge").Msg("notification rejected")
		return
	}

	s := o.store.Current()
	log.Info().
		Str("module", "orch.bridge").
		Str("event", string(ev.Name)).
		Str("state", string(s.WebRTCState)).
		Str("direction", string(s.Direction)).
		Msg("transition")
	o.publish(ev)
}

func (o *Orchestrator) publish(ev domain.Event) {
	res := o.Bus.Publish(ev)
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(slow, ev) {
		case app.SpillAsync:
			o.Bus.Spill(slow, ev)
		case app.Unsubscribe:
			log.Warn().Str("module", "orch.bridge").Str("sub", slow.ID()).Msg("unsubscribing slow listener")
			slow.Unsubscribe()
		case app.DropEvent:
			log.Warn().Str("module", "orch.bridge").Str("sub", slow.ID()).Str("event", string(ev.Name)).Msg("event dropped")
		}
	}
}
