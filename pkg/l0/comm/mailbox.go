package comm

import (
	"context"
	"sync/atomic"
	"time"
)

// Mailbox is a single-slot handoff between one producer and one
// consumer. Put overwrites a value not yet taken (last write wins),
// Take empties the slot.
type Mailbox[T any] struct {
	ch         chan T
	overwrites atomic.Uint64
}

// NewMailbox creates an empty Mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{ch: make(chan T, 1)}
}

// Put stores v, replacing any unconsumed value. It never blocks and
// reports whether a previous value was overwritten.
func (m *Mailbox[T]) Put(v T) (overwritten bool) {
	for {
		select {
		case m.ch <- v:
			return
		default:
		}
		select {
		case <-m.ch:
			overwritten = true
			m.overwrites.Add(1)
		default:
		}
	}
}

// Take removes and returns the value if present.
func (m *Mailbox[T]) Take() (v T, ok bool) {
	select {
	case v = <-m.ch:
		ok = true
	default:
	}
	return
}

// Wait takes the value, waiting at most timeout for one to arrive.
func (m *Mailbox[T]) Wait(ctx context.Context, timeout time.Duration) (v T, ok bool) {
	if v, ok = m.Take(); ok || timeout <= 0 {
		return
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case v = <-m.ch:
		ok = true
	case <-timer.C:
	case <-ctx.Done():
	}
	return
}

// C exposes the slot for select statements.
func (m *Mailbox[T]) C() <-chan T {
	return m.ch
}

// Overwrites returns how many values were replaced before being taken.
func (m *Mailbox[T]) Overwrites() uint64 {
	return m.overwrites.Load()
}
