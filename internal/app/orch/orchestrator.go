package orch

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/callsession/internal/app"
	"github.com/dkeye/callsession/internal/core"
	"github.com/dkeye/callsession/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	defaultQueue           = 64
	defaultRegisterTimeout = 30 * time.Second
)

type Options struct {
	// Credentials are used by RegisterClient; ClientID is the identity the
	// session registers as.
	Credentials core.RegisterParams
	Policy      app.Policy
	CallPolicy  app.CallPolicy
	// Queue bounds the number of pending loop steps.
	Queue int
	// RegisterTimeout bounds one engine registration attempt.
	RegisterTimeout time.Duration
}

// Orchestrator owns one call session. All store mutations happen on the
// goroutine running Run; engine callbacks and commands are posted to it.
type Orchestrator struct {
	Engine     core.Engine
	Bus        *core.Bus
	Policy     app.Policy
	CallPolicy app.CallPolicy

	creds           core.RegisterParams
	registerTimeout time.Duration
	store           *core.Store
	ops             chan func()
	subs            []core.Subscription
	regs            singleflight.Group

	done      chan struct{}
	closeOnce sync.Once
}

// New builds the session and installs the event bridge on engine.
func New(engine core.Engine, bus *core.Bus, opts Options) *Orchestrator {
	if opts.Queue <= 0 {
		opts.Queue = defaultQueue
	}
	if opts.RegisterTimeout <= 0 {
		opts.RegisterTimeout = defaultRegisterTimeout
	}
	if opts.Policy == nil {
		opts.Policy = app.SimplePolicy{Action: app.SpillAsync}
	}
	if opts.CallPolicy == nil {
		opts.CallPolicy = app.SimpleCallPolicy{Action: app.OverrideCall}
	}
	o := &Orchestrator{
		Engine:          engine,
		Bus:             bus,
		Policy:          opts.Policy,
		CallPolicy:      opts.CallPolicy,
		creds:           opts.Credentials,
		registerTimeout: opts.RegisterTimeout,
		ops:             make(chan func(), opts.Queue),
		done:            make(chan struct{}),
	}
	o.store = core.NewStore(opts.Credentials.ClientID, engine.LocalStream)
	o.installBridge()
	log.Info().Str("module", "orch").Str("client_id", opts.Credentials.ClientID).Int("handlers", len(o.subs)).Msg("session created")
	return o
}

// Run processes loop steps until ctx is done or Close is called.
func (o *Orchestrator) Run(ctx context.Context) error {
	log.Info().Str("module", "orch").Msg("session loop started")
	for {
		select {
		case <-ctx.Done():
			o.Close()
			return ctx.Err()
		case <-o.done:
			return nil
		case fn := <-o.ops:
			fn()
		}
	}
}

// Close tears down engine subscriptions and the bus. Pending commands fail
// with core.ErrSessionClosed.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		for _, s := range o.subs {
			s.Unsubscribe()
		}
		close(o.done)
		o.Bus.Close()
		log.Info().Str("module", "orch").Msg("session closed")
	})
}

func (o *Orchestrator) Done() <-chan struct{} { return o.done }

func (o *Orchestrator) Snapshot() domain.CallSession { return o.store.Snapshot() }

func (o *Orchestrator) Commands() core.Commands { return o }

func (o *Orchestrator) Subscribe(name domain.EventName, l core.Listener) core.Subscription {
	return o.Bus.Subscribe(name, l)
}

func (o *Orchestrator) SubscribeAll(l core.Listener) core.Subscription {
	return o.Bus.SubscribeAll(l)
}

// post marshals fn onto the session loop.
func (o *Orchestrator) post(fn func()) error {
	select {
	case <-o.done:
		return core.ErrSessionClosed
	default:
	}
	select {
	case <-o.done:
		return core.ErrSessionClosed
	case o.ops <- fn:
		return nil
	}
}

// exec runs fn on the loop and waits for its result. A cancelled ctx stops
// the wait, not the step.
func (o *Orchestrator) exec(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	if err := o.post(func() { errc <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-o.done:
		return core.ErrSessionClosed
	}
}
