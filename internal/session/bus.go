// Package session carries authentication state changes from a backend to
// interested consumers.
//
// A Bus holds the current session and fans each change out to every live
// Subscription. Subscribing is an explicit call that returns a handle; the
// consumer reads Events() and calls Unsubscribe when done. A new subscription
// always receives the current session first as an InitialSession event.
//
// Delivery never blocks the publisher. Each subscription buffers a small
// number of events; when the buffer is full the oldest pending event is
// dropped, so a slow consumer still ends up seeing the latest state.
package session

import (
	"sync"

	"github.com/five82/handbook/internal/handbook"
)

// Kind names a session transition.
type Kind string

const (
	InitialSession Kind = "INITIAL_SESSION"
	SignedIn       Kind = "SIGNED_IN"
	SignedOut      Kind = "SIGNED_OUT"
)

// Event is one session transition. Session is nil after sign-out.
// Sessions are shared between subscribers and must be treated as read-only.
type Event struct {
	Kind    Kind
	Session *handbook.Session
}

const subscriptionBuffer = 8

// Bus tracks the current session and notifies subscribers of changes.
// The zero value is ready to use.
type Bus struct {
	mu      sync.Mutex
	current *handbook.Session
	subs    map[*Subscription]struct{}
}

// Current returns the session last published, or nil.
func (b *Bus) Current() *handbook.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Publish records s as the current session and notifies every subscriber.
func (b *Bus) Publish(kind Kind, s *handbook.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = s
	ev := Event{Kind: kind, Session: s}
	for sub := range b.subs {
		sub.deliver(ev)
	}
}

// Subscribe registers a new listener. The current session is queued on it
// immediately as an InitialSession event.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[*Subscription]struct{})
	}
	sub := &Subscription{bus: b, ch: make(chan Event, subscriptionBuffer)}
	b.subs[sub] = struct{}{}
	sub.deliver(Event{Kind: InitialSession, Session: b.current})
	return sub
}

// Len reports the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
}

// Subscription is a handle on a stream of session events.
type Subscription struct {
	bus  *Bus
	ch   chan Event
	once sync.Once
}

// Events returns the event stream. It is closed by Unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Unsubscribe stops delivery and closes the event channel. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.remove(s)
	})
}

// deliver must be called with the bus lock held.
func (s *Subscription) deliver(ev Event) {
	select {
	case s.ch <- ev:
		return
	default:
	}
	// Full: drop the oldest pending event to make room.
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- ev:
	default:
	}
}
