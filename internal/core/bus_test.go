package core

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/callsession/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, n int) (Listener, func() []domain.EventName) {
	t.Helper()
	var mu sync.Mutex
	var got []domain.EventName
	done := make(chan struct{})
	l := func(ev domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev.Name)
		if len(got) == n {
			close(done)
		}
	}
	wait := func() []domain.EventName {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %d events", n)
		}
		mu.Lock()
		defer mu.Unlock()
		return append([]domain.EventName(nil), got...)
	}
	return l, wait
}

func TestBus_SubscribeByName(t *testing.T) {
	bus := NewBus(8)
	defer bus.Close()

	l, wait := collect(t, 1)
	bus.Subscribe(domain.EventRinging, l)

	res := bus.Publish(domain.Event{Name: domain.EventGotMedia})
	assert.Equal(t, 0, res.SendTo)
	res = bus.Publish(domain.Event{Name: domain.EventRinging})
	assert.Equal(t, 1, res.SendTo)

	assert.Equal(t, []domain.EventName{domain.EventRinging}, wait())
}

func TestBus_SubscribeAllKeepsPerListenerOrder(t *testing.T) {
	bus := NewBus(16)
	defer bus.Close()

	l, wait := collect(t, 3)
	bus.SubscribeAll(l)
	bus.Publish(domain.Event{Name: domain.EventRinging})
	bus.Publish(domain.Event{Name: domain.EventGotMedia})
	bus.Publish(domain.Event{Name: domain.EventConnected})

	assert.Equal(t, []domain.EventName{domain.EventRinging, domain.EventGotMedia, domain.EventConnected}, wait())
}

func TestBus_FullMailboxIsReportedAndSpillDelivers(t *testing.T) {
	bus := NewBus(1)
	defer bus.Close()

	release := make(chan struct{})
	var mu sync.Mutex
	var got []domain.EventName
	all := make(chan struct{})
	bus.SubscribeAll(func(ev domain.Event) {
		<-release
		mu.Lock()
		got = append(got, ev.Name)
		if len(got) == 3 {
			close(all)
		}
		mu.Unlock()
	})

	// First event is taken by the listener goroutine, second fills the mailbox.
	bus.Publish(domain.Event{Name: domain.EventRinging})
	require.Eventually(t, func() bool {
		return bus.Publish(domain.Event{Name: domain.EventGotMedia}).SendTo == 1
	}, time.Second, 5*time.Millisecond)

	res := bus.Publish(domain.Event{Name: domain.EventConnected})
	require.Len(t, res.Dropped, 1)
	assert.ErrorIs(t, res.Dropped[0].(*subscriber).TrySend(domain.Event{}), ErrBackpressure)

	bus.Spill(res.Dropped[0], domain.Event{Name: domain.EventConnected})
	close(release)

	select {
	case <-all:
	case <-time.After(2 * time.Second):
		t.Fatal("spilled event not delivered")
	}
	mu.Lock()
	assert.Contains(t, got, domain.EventConnected)
	mu.Unlock()
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	sub := bus.SubscribeAll(func(domain.Event) {})
	assert.Equal(t, 1, bus.Len())
	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, bus.Len())
	assert.Equal(t, 0, bus.Publish(domain.Event{Name: domain.EventRinging}).SendTo)
}

func TestBus_ListenerPanicIsContained(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	bus.Subscribe(domain.EventRinging, func(domain.Event) { panic("boom") })
	l, wait := collect(t, 2)
	bus.SubscribeAll(l)

	bus.Publish(domain.Event{Name: domain.EventRinging})
	bus.Publish(domain.Event{Name: domain.EventGotMedia})
	assert.Len(t, wait(), 2)
}

func TestBus_Closed(t *testing.T) {
	bus := NewBus(4)
	bus.Close()
	bus.Close()

	sub := bus.SubscribeAll(func(domain.Event) { t.Error("delivered after close") })
	sub.Unsubscribe()
	assert.Equal(t, PublishResult{}, bus.Publish(domain.Event{Name: domain.EventRinging}))
}

func TestBus_CloseWaitsForSpilledDelivery(t *testing.T) {
	bus := NewBus(1)
	var delivered atomic.Bool
	sub := bus.SubscribeAll(func(domain.Event) {
		time.Sleep(20 * time.Millisecond)
		delivered.Store(true)
	})

	bus.Spill(sub.(Subscriber), domain.Event{Name: domain.EventRinging})
	bus.Close()
	assert.True(t, delivered.Load())
}

func TestBus_CloseDoesNotHangOnBlockedSpill(t *testing.T) {
	bus := NewBus(1)
	bus.CloseGrace = 50 * time.Millisecond

	block := make(chan struct{})
	defer close(block)
	sub := bus.SubscribeAll(func(domain.Event) { <-block })
	bus.Spill(sub.(Subscriber), domain.Event{Name: domain.EventRinging})

	closed := make(chan struct{})
	go func() {
		bus.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("close blocked on a spilled listener")
	}
}
