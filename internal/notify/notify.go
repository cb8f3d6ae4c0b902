// Package notify implements a latest-value broadcaster.
//
// Subscribers get the current value immediately and then a channel that
// delivers changes. Delivery is last-write-wins: each subscriber channel holds
// at most one pending value, and a newer value replaces an undelivered older
// one. Slow subscribers never block publishers.
package notify

import "sync"

// Broadcaster fans out the most recent value of T to subscribers.
type Broadcaster[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[int]chan T
	nextID  int
}

// New returns a Broadcaster holding initial as its current value.
func New[T any](initial T) *Broadcaster[T] {
	return &Broadcaster[T]{current: initial, subs: map[int]chan T{}}
}

// Current returns the most recently published value.
func (b *Broadcaster[T]) Current() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Publish stores v as the current value and offers it to every subscriber.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = v
	for _, ch := range b.subs {
		offer(ch, v)
	}
}

// Update applies fn to the current value and publishes the result atomically
// with respect to other Update and Publish calls.
func (b *Broadcaster[T]) Update(fn func(T) T) T {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = fn(b.current)
	for _, ch := range b.subs {
		offer(ch, b.current)
	}
	return b.current
}

// Subscribe returns the current value, a channel of subsequent values and a
// cancel func. Cancel unregisters the subscriber and closes the channel; it is
// safe to call more than once.
func (b *Broadcaster[T]) Subscribe() (T, <-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan T, 1)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return b.current, ch, cancel
}

// offer replaces any undelivered value in ch with v. Must be called with b.mu
// held so only one goroutine sends on ch at a time.
func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
