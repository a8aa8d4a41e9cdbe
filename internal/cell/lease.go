package cell

import "sync/atomic"

// ReadLease is a live non-exclusive grant. Release it when done; deferring
// the release keeps the gate correct on every exit path.
type ReadLease[T any] struct {
	state    *state[T]
	label    string
	released atomic.Bool
}

// Value returns the shared value under the read grant.
func (l *ReadLease[T]) Value() T {
	if l.released.Load() {
		panic("cell: access through released lease")
	}
	return l.state.value
}

// Release returns the grant. Safe to call more than once.
func (l *ReadLease[T]) Release() {
	if !l.released.CompareAndSwap(false, true) {
		return
	}
	st := l.state
	st.mu.Lock()
	defer st.mu.Unlock()
	st.leases--
	st.removeHolder(l.label)
}

// WriteLease is the live exclusive grant. While it is out, no other lease
// of either mode can be taken.
type WriteLease[T any] struct {
	state    *state[T]
	label    string
	released atomic.Bool
}

// Value returns the shared value under the exclusive grant.
func (l *WriteLease[T]) Value() T {
	if l.released.Load() {
		panic("cell: access through released lease")
	}
	return l.state.value
}

// Set replaces the shared value in place.
func (l *WriteLease[T]) Set(v T) {
	if l.released.Load() {
		panic("cell: access through released lease")
	}
	l.state.value = v
}

// Release returns the exclusive grant. Safe to call more than once.
func (l *WriteLease[T]) Release() {
	if !l.released.CompareAndSwap(false, true) {
		return
	}
	st := l.state
	st.mu.Lock()
	defer st.mu.Unlock()
	st.leases = 0
	st.removeHolder(l.label)
}
