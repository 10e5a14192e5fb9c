package orch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dkeye/callsession/internal/core"
	"github.com/dkeye/callsession/internal/domain"
)

type call string

func (c call) CallID() string { return string(c) }

type stream string

func (s stream) StreamID() string { return string(s) }

type client string

func (c client) ClientID() string { return string(c) }

type sub func()

func (s sub) Unsubscribe() { s() }

// fakeEngine records calls and lets tests fire notifications.
type fakeEngine struct {
	mu       sync.Mutex
	handlers map[domain.EventName]core.NotificationHandler
	seq      int

	registers    atomic.Int32
	registerGate chan struct{}
	registerWith domain.ClientHandle
	registerErr  error

	dialled []string
	stopped []string
	answers []string
	dtmf    []string
	lookups []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		handlers:     make(map[domain.EventName]core.NotificationHandler),
		registerWith: client("client-1"),
	}
}

func (e *fakeEngine) Fire(n core.Notification) {
	e.mu.Lock()
	h := e.handlers[n.Name]
	e.mu.Unlock()
	if h != nil {
		h(n)
	}
}

func (e *fakeEngine) Handlers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}

func (e *fakeEngine) Subscribe(name domain.EventName, h core.NotificationHandler) (core.Subscription, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[name] = h
	return sub(func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.handlers, name)
	}), nil
}

func (e *fakeEngine) Register(ctx context.Context, _ core.RegisterParams) (domain.ClientHandle, error) {
	e.registers.Add(1)
	if e.registerGate != nil {
		select {
		case <-e.registerGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registerWith, e.registerErr
}

func (e *fakeEngine) Unregister() error { return nil }

func (e *fakeEngine) dial(prefix, id string) (domain.CallHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	e.dialled = append(e.dialled, prefix+":"+id)
	return call(fmt.Sprintf("H%d", e.seq)), nil
}

func (e *fakeEngine) CallPeer(id string) (domain.CallHandle, error)    { return e.dial("peer", id) }
func (e *fakeEngine) CallService(id string) (domain.CallHandle, error) { return e.dial("service", id) }

func (e *fakeEngine) LocalStream(h domain.CallHandle) (domain.MediaStream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lookups = append(e.lookups, h.CallID())
	return stream("local-" + h.CallID()), nil
}

func (e *fakeEngine) Mute(domain.CallHandle) error { return nil }

func (e *fakeEngine) SendDTMF(digit string, h domain.CallHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dtmf = append(e.dtmf, digit+"@"+h.CallID())
	return nil
}

func (e *fakeEngine) Reject(domain.CallHandle) error { return nil }

func (e *fakeEngine) Answer(h domain.CallHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.answers = append(e.answers, h.CallID())
	return nil
}

func (e *fakeEngine) StopCall(h domain.CallHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = append(e.stopped, h.CallID())
	return nil
}

func (e *fakeEngine) SwapCamera(bool, domain.CallHandle) error { return nil }

func (e *fakeEngine) snapshot() (dialled, stopped, answers, dtmf, lookups []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := func(s []string) []string { return append([]string(nil), s...) }
	return cp(e.dialled), cp(e.stopped), cp(e.answers), cp(e.dtmf), cp(e.lookups)
}

func startSession(t *testing.T, eng core.Engine, opts Options) *Orchestrator {
	t.Helper()
	if opts.Credentials.ClientID == "" {
		opts.Credentials = core.RegisterParams{Region: "0-2-0", AccessKey: "key", ClientID: "alice", LogLevel: "2", Token: "tok"}
	}
	o := New(eng, core.NewBus(16), opts)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = o.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		o.Close()
	})
	return o
}

// recorder collects published event names.
type recorder struct {
	mu  sync.Mutex
	got []domain.Event
}

func (r *recorder) listen(ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, ev)
}

func (r *recorder) names() []domain.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventName, 0, len(r.got))
	for _, ev := range r.got {
		out = append(out, ev.Name)
	}
	return out
}

func (r *recorder) last() domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return domain.Event{}
	}
	return r.got[len(r.got)-1]
}
