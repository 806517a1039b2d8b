// Package observable provides state holders with a cancellable subscribe/notify
// contract. A Value always has a current value; subscribers receive the current
// value on subscription and then every later value, conflated: a subscriber
// that falls behind only sees the most recent value, never a stale one.
package observable

import "sync"

// Value is a concurrency-safe observable state cell.
type Value[T any] struct {
	mu      sync.RWMutex
	current T
	nextID  uint64
	subs    map[uint64]*subscriber[T]
	closed  bool
}

type subscriber[T any] struct {
	mailbox chan T
	done    chan struct{}
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    make(map[uint64]*subscriber[T]),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set stores next and notifies subscribers. It never blocks on a subscriber.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = next
	for _, s := range v.subs {
		offer(s.mailbox, next)
	}
}

// Update atomically replaces the value with fn(current) and returns the result.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = fn(v.current)
	for _, s := range v.subs {
		offer(s.mailbox, v.current)
	}
	return v.current
}

// Subscribe calls fn with the current value and every later value, from a
// dedicated goroutine. The returned function cancels the subscription.
func (v *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	s := &subscriber[T]{
		mailbox: make(chan T, 1),
		done:    make(chan struct{}),
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return func() {}
	}
	id := v.nextID
	v.nextID++
	v.subs[id] = s
	s.mailbox <- v.current
	v.mu.Unlock()

	go func() {
		for {
			select {
			case val := <-s.mailbox:
				fn(val)
			case <-s.done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			_, live := v.subs[id]
			delete(v.subs, id)
			v.mu.Unlock()
			if live {
				close(s.done)
			}
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (v *Value[T]) Subscribers() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.subs)
}

// Close cancels every subscription. Set keeps working afterwards but nobody is notified.
func (v *Value[T]) Close() {
	v.mu.Lock()
	subs := v.subs
	v.subs = make(map[uint64]*subscriber[T])
	v.closed = true
	v.mu.Unlock()

	for _, s := range subs {
		close(s.done)
	}
}

// SetIfChanged stores next only when it differs from the current value and
// reports whether it did.
func SetIfChanged[T comparable](v *Value[T], next T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == next {
		return false
	}
	v.current = next
	for _, s := range v.subs {
		offer(s.mailbox, next)
	}
	return true
}

// offer replaces any pending value in a one-slot mailbox. Callers hold the
// Value's write lock, so the send cannot block.
func offer[T any](mailbox chan T, val T) {
	select {
	case <-mailbox:
	default:
	}
	mailbox <- val
}
