package cell

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/danmuck/cellctl/internal/observability"
)

// Handle is one owner's reference to a shared cell. Handles cloned from the
// same origin all point at the identical value; none of them owns a copy.
type Handle[T any] struct {
	state    *state[T]
	label    string
	released atomic.Bool
}

// LeaseSnapshot is an observational view of the lease gate.
type LeaseSnapshot struct {
	Mode    string
	Readers int
	Holders []string
}

// Clone registers a new owner for the same underlying value.
// An empty label gets a generated one.
func (h *Handle[T]) Clone(label string) *Handle[T] {
	if h.released.Load() {
		panic("cell: clone through released handle")
	}
	h.state.owners.Add(1)
	observability.RecordCellClone()
	return &Handle[T]{state: h.state, label: normalizeLabel(label)}
}

// Read grants a non-exclusive lease. Any number of read leases may be
// outstanding at once; the only refusal is an active write lease.
func (h *Handle[T]) Read() (*ReadLease[T], error) {
	if h.released.Load() {
		panic("cell: lease through released handle")
	}
	st := h.state
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.leases == writerLeased {
		observability.RecordLeaseConflict(ModeRead)
		return nil, fmt.Errorf("%w: read requested by %q while write lease held by %s",
			ErrBorrowConflict, h.label, st.holderList())
	}
	st.leases++
	st.addHolder(h.label)
	observability.RecordLeaseAcquired(ModeRead)
	return &ReadLease[T]{state: st, label: h.label}, nil
}

// Write grants the exclusive lease. It refuses while any lease, read or
// write, is outstanding; it never waits.
func (h *Handle[T]) Write() (*WriteLease[T], error) {
	if h.released.Load() {
		panic("cell: lease through released handle")
	}
	st := h.state
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.leases != 0 {
		observability.RecordLeaseConflict(ModeWrite)
		return nil, fmt.Errorf("%w: write requested by %q while leases held by %s",
			ErrBorrowConflict, h.label, st.holderList())
	}
	st.leases = writerLeased
	st.addHolder(h.label)
	observability.RecordLeaseAcquired(ModeWrite)
	return &WriteLease[T]{state: st, label: h.label}, nil
}

// Release drops this owner's reference. It is idempotent per handle; the
// first release of the final owner destroys the cell.
func (h *Handle[T]) Release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	st := h.state
	remaining := st.owners.Add(-1)
	observability.RecordCellRelease()
	if remaining > 0 {
		return
	}
	st.mu.Lock()
	busy := st.leases != 0
	st.mu.Unlock()
	if busy {
		panic("cell: release of last owner with active leases")
	}
	if st.destroy != nil {
		st.destroy(st.value)
	}
	observability.RecordCellDestroy()
}

// Owners returns the current number of live owner references.
func (h *Handle[T]) Owners() int64 {
	return h.state.owners.Load()
}

// Label returns the owner label this handle was issued under.
func (h *Handle[T]) Label() string {
	return h.label
}

// Released reports whether this handle already gave up its reference.
func (h *Handle[T]) Released() bool {
	return h.released.Load()
}

// SnapshotLeases returns the gate state for diagnostics.
func (h *Handle[T]) SnapshotLeases() LeaseSnapshot {
	st := h.state
	st.mu.Lock()
	defer st.mu.Unlock()

	labels := make([]string, 0, len(st.holders))
	for label, n := range st.holders {
		for i := 0; i < n; i++ {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)

	switch {
	case st.leases == writerLeased:
		return LeaseSnapshot{Mode: ModeWrite, Readers: 0, Holders: labels}
	case st.leases > 0:
		return LeaseSnapshot{Mode: ModeRead, Readers: st.leases, Holders: labels}
	default:
		return LeaseSnapshot{Mode: ModeIdle, Readers: 0, Holders: labels}
	}
}
