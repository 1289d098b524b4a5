package state

import (
	"sync"
	"sync/atomic"
)

// Observable is a push-based source of values.
// Subscribe registers fn and returns a function that stops delivery.
// Sources holding a current value replay it to fn before Subscribe returns.
type Observable[T any] interface {
	Subscribe(fn func(T)) (cancel func())
}

// ObservableFunc adapts a subscribe function to Observable.
type ObservableFunc[T any] func(fn func(T)) func()

// Subscribe calls f(fn).
func (f ObservableFunc[T]) Subscribe(fn func(T)) func() {
	return f(fn)
}

type subscriber[T any] struct {
	mu     sync.Mutex
	last   uint64
	closed atomic.Bool
	fn     func(T)
}

// deliver hands v to the callback unless a newer version was already delivered.
func (s *subscriber[T]) deliver(v T, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() || version <= s.last {
		return
	}
	s.last = version
	s.fn(v)
}

// Subject holds an optional current value and pushes every new value to its subscribers.
//
// Callbacks run on the goroutine that called Set and are never invoked while the subject's
// own lock is held, so a callback may Set other subjects or subscribe again. A subscriber
// never observes an older value after a newer one.
type Subject[T any] struct {
	mu      sync.Mutex
	value   T
	has     bool
	version uint64
	nextID  int
	subs    map[int]*subscriber[T]
	closed  atomic.Bool
}

// NewSubject returns a subject without a current value. Subscribers get nothing until the first Set.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{subs: make(map[int]*subscriber[T])}
}

// NewBehaviorSubject returns a subject seeded with initial.
func NewBehaviorSubject[T any](initial T) *Subject[T] {
	s := NewSubject[T]()
	s.value = initial
	s.has = true
	s.version = 1
	return s
}

// Subscribe registers fn and replays the current value, if any.
func (s *Subject[T]) Subscribe(fn func(T)) func() {
	sub := &subscriber[T]{fn: fn}

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	v, has, version := s.value, s.has, s.version
	s.mu.Unlock()

	if has {
		sub.deliver(v, version)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.closed.Store(true)
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Set stores v as the current value and pushes it to all subscribers.
func (s *Subject[T]) Set(v T) {
	if s.closed.Load() {
		return
	}

	s.mu.Lock()
	s.value = v
	s.has = true
	s.version++
	version := s.version
	subs := make([]*subscriber[T], 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(v, version)
	}
}

// Value returns the current value and whether one has been set.
func (s *Subject[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.has
}

// Subscribers returns the number of live subscriptions.
func (s *Subject[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close drops all subscribers. Later Set calls are ignored.
func (s *Subject[T]) Close() {
	s.closed.Store(true)
	s.mu.Lock()
	subs := s.subs
	s.subs = make(map[int]*subscriber[T])
	s.mu.Unlock()
	for _, sub := range subs {
		sub.closed.Store(true)
	}
}
