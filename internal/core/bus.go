package core

import (
	"sync"
	"time"

	"github.com/dkeye/callsession/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

// Listener receives published events. It runs on the subscriber's own
// goroutine and must not block for long.
type Listener func(domain.Event)

// Subscriber is a live bus registration.
type Subscriber interface {
	Subscription
	ID() string
	Name() domain.EventName
}

// PublishResult reports delivery stats/backpressure to the session.
type PublishResult struct {
	SendTo  int
	Dropped []Subscriber
}

const defaultCloseGrace = 2 * time.Second

// Bus is the public event bus owned by one session. Each subscriber gets a
// bounded mailbox; Publish never blocks.
type Bus struct {
	// CloseGrace bounds how long Close waits for spilled deliveries.
	CloseGrace time.Duration

	mu      sync.RWMutex
	subs    map[string]*subscriber
	mailbox int
	closed  bool

	spill conc.WaitGroup
}

func NewBus(mailbox int) *Bus {
	if mailbox <= 0 {
		mailbox = 1
	}
	return &Bus{
		CloseGrace: defaultCloseGrace,
		subs:       make(map[string]*subscriber),
		mailbox:    mailbox,
	}
}

// Subscribe delivers events named name to l.
func (b *Bus) Subscribe(name domain.EventName, l Listener) Subscription {
	return b.add(name, l)
}

// SubscribeAll delivers every event to l.
func (b *Bus) SubscribeAll(l Listener) Subscription {
	return b.add("", l)
}

func (b *Bus) add(name domain.EventName, l Listener) Subscription {
	s := &subscriber{
		id:       uuid.NewString(),
		name:     name,
		listener: l,
		inbox:    make(chan domain.Event, b.mailbox),
		bus:      b,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		log.Warn().Str("module", "core.bus").Str("event", string(name)).Msg("subscribe on closed bus")
		return noopSubscription{}
	}
	b.subs[s.id] = s
	b.mu.Unlock()

	go s.run()
	log.Debug().Str("module", "core.bus").Str("sub", s.id).Str("event", string(name)).Msg("subscribed")
	return s
}

// Publish offers ev to every matching subscriber without waiting.
func (b *Bus) Publish(ev domain.Event) PublishResult {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res := PublishResult{}
	if b.closed {
		return res
	}
	for _, s := range b.subs {
		if s.name != "" && s.name != ev.Name {
			continue
		}
		if err := s.TrySend(ev); err != nil {
			res.Dropped = append(res.Dropped, s)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.bus").Str("event", string(ev.Name)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("publish result")
	return res
}

// Spill delivers ev to sub on a separate goroutine, bypassing its mailbox.
func (b *Bus) Spill(sub Subscriber, ev domain.Event) {
	s, ok := sub.(*subscriber)
	if !ok {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	b.spill.Go(func() { s.deliver(ev) })
}

// Len reports the number of live subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close drops every subscriber and waits up to CloseGrace for spilled
// deliveries. Listeners still blocked after that are left running.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.subs = make(map[string]*subscriber)
	b.mu.Unlock()

	for _, s := range subs {
		s.close()
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		if r := b.spill.WaitAndRecover(); r != nil {
			log.Error().Str("module", "core.bus").Str("panic", r.String()).Msg("spilled listener panicked")
		}
	}()
	timer := time.NewTimer(b.CloseGrace)
	defer timer.Stop()
	select {
	case <-drained:
	case <-timer.C:
		log.Warn().Str("module", "core.bus").Dur("grace", b.CloseGrace).Msg("spilled deliveries still running at close")
	}
	log.Info().Str("module", "core.bus").Int("subscribers", len(subs)).Msg("bus closed")
}

func (b *Bus) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

type subscriber struct {
	id       string
	name     domain.EventName
	listener Listener
	inbox    chan domain.Event
	bus      *Bus

	mu     sync.RWMutex
	closed bool
}

func (s *subscriber) ID() string             { return s.id }
func (s *subscriber) Name() domain.EventName { return s.name }

func (s *subscriber) TrySend(ev domain.Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrBusClosed
	}
	select {
	case s.inbox <- ev:
	default:
		return ErrBackpressure
	}
	return nil
}

func (s *subscriber) Unsubscribe() {
	s.bus.remove(s.id)
	s.close()
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.inbox)
}

func (s *subscriber) run() {
	for ev := range s.inbox {
		s.deliver(ev)
	}
}

func (s *subscriber) deliver(ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "core.bus").Str("sub", s.id).Interface("panic", r).Msg("listener panicked")
		}
	}()
	s.listener(ev)
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}
