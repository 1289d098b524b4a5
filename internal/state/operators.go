package state

import (
	"context"
	"sync"
)

// Map projects every value of src through fn.
func Map[T, R any](src Observable[T], fn func(T) R) Observable[R] {
	return ObservableFunc[R](func(emit func(R)) func() {
		return src.Subscribe(func(v T) {
			emit(fn(v))
		})
	})
}

// Filter forwards only the values of src for which keep returns true.
func Filter[T any](src Observable[T], keep func(T) bool) Observable[T] {
	return ObservableFunc[T](func(emit func(T)) func() {
		return src.Subscribe(func(v T) {
			if keep(v) {
				emit(v)
			}
		})
	})
}

// Pair is the combined value emitted by CombineLatest2.
type Pair[A, B any] struct {
	First  A
	Second B
}

// CombineLatest2 emits the latest pair of values once both sources have emitted,
// and again every time either source emits.
//
// Emission happens under the combiner's lock so downstream sees pairs in the order they
// were formed; a downstream callback must not synchronously push into a or b.
func CombineLatest2[A, B any](a Observable[A], b Observable[B]) Observable[Pair[A, B]] {
	return ObservableFunc[Pair[A, B]](func(emit func(Pair[A, B])) func() {
		var (
			mu     sync.Mutex
			latest Pair[A, B]
			hasA   bool
			hasB   bool
			done   bool
		)

		cancelA := a.Subscribe(func(v A) {
			mu.Lock()
			defer mu.Unlock()
			latest.First, hasA = v, true
			if hasA && hasB && !done {
				emit(latest)
			}
		})
		cancelB := b.Subscribe(func(v B) {
			mu.Lock()
			defer mu.Unlock()
			latest.Second, hasB = v, true
			if hasA && hasB && !done {
				emit(latest)
			}
		})

		return func() {
			cancelA()
			cancelB()
			mu.Lock()
			done = true
			mu.Unlock()
		}
	})
}

// SwitchMap subscribes to project(v) for every value of src, dropping the previous
// inner subscription. Values from superseded inner sources are never forwarded.
func SwitchMap[T, R any](src Observable[T], project func(T) Observable[R]) Observable[R] {
	return ObservableFunc[R](func(emit func(R)) func() {
		var (
			mu     sync.Mutex
			emitMu sync.Mutex
			gen    uint64
			inner  func()
			done   bool
		)

		cancelOuter := src.Subscribe(func(v T) {
			mu.Lock()
			if done {
				mu.Unlock()
				return
			}
			gen++
			myGen := gen
			prev := inner
			inner = nil
			mu.Unlock()

			if prev != nil {
				prev()
			}

			cancel := project(v).Subscribe(func(r R) {
				emitMu.Lock()
				defer emitMu.Unlock()
				mu.Lock()
				current := gen == myGen && !done
				mu.Unlock()
				if current {
					emit(r)
				}
			})

			mu.Lock()
			if gen == myGen && !done {
				inner = cancel
				mu.Unlock()
				return
			}
			mu.Unlock()
			cancel()
		})

		return func() {
			mu.Lock()
			done = true
			prev := inner
			inner = nil
			mu.Unlock()

			cancelOuter()
			if prev != nil {
				prev()
			}
		}
	})
}

// FromFunc runs fn on its own goroutine for every subscription and emits its result once.
// Unsubscribing cancels the context handed to fn. Errors go to onErr unless the
// subscription was cancelled first.
func FromFunc[T any](ctx context.Context, fn func(context.Context) (T, error), onErr func(error)) Observable[T] {
	return ObservableFunc[T](func(emit func(T)) func() {
		cctx, cancel := context.WithCancel(ctx)

		var (
			mu      sync.Mutex
			stopped bool
		)

		go func() {
			defer cancel()

			v, err := fn(cctx)

			mu.Lock()
			live := !stopped && cctx.Err() == nil
			mu.Unlock()
			if !live {
				return
			}
			if err != nil {
				if onErr != nil {
					onErr(err)
				}
				return
			}
			emit(v)
		}()

		return func() {
			mu.Lock()
			stopped = true
			mu.Unlock()
			cancel()
		}
	})
}

// Current returns the value src replays synchronously on subscription, if any.
func Current[T any](src Observable[T]) (T, bool) {
	var (
		mu sync.Mutex
		v  T
		ok bool
	)
	cancel := src.Subscribe(func(x T) {
		mu.Lock()
		v, ok = x, true
		mu.Unlock()
	})
	cancel()

	mu.Lock()
	defer mu.Unlock()
	return v, ok
}

// Latest bridges src into a channel that always holds at most the most recent value.
// Slow readers skip intermediate values instead of blocking the producer.
func Latest[T any](src Observable[T]) (<-chan T, func()) {
	ch := make(chan T, 1)
	cancel := src.Subscribe(func(v T) {
		for {
			select {
			case ch <- v:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})
	return ch, cancel
}

// Distinct drops values equal to the previously forwarded one.
func Distinct[T any](src Observable[T], equal func(a, b T) bool) Observable[T] {
	return ObservableFunc[T](func(emit func(T)) func() {
		var (
			mu   sync.Mutex
			last T
			has  bool
		)
		return src.Subscribe(func(v T) {
			mu.Lock()
			defer mu.Unlock()
			if has && equal(last, v) {
				return
			}
			last, has = v, true
			emit(v)
		})
	})
}
