package cell

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/danmuck/cellctl/internal/observability"
	"github.com/google/uuid"
)

var ErrBorrowConflict = errors.New("cell: borrow conflict")

// Gate modes reported by lease snapshots and metrics.
const (
	ModeIdle  = "idle"
	ModeRead  = "read"
	ModeWrite = "write"
)

// writerLeased marks the gate counter while an exclusive lease is out.
const writerLeased = -1

// state is the single shared core behind every handle cloned from one origin:
// the guarded value, the live owner count, and the lease gate.
type state[T any] struct {
	value   T
	destroy func(T)

	owners atomic.Int64

	mu      sync.Mutex
	leases  int // 0 idle, n>0 active readers, writerLeased exclusive
	holders map[string]int
}

// New wraps value in a fresh cell with a single owner.
func New[T any](label string, value T) *Handle[T] {
	return NewWithDestroy(label, value, nil)
}

// NewWithDestroy wraps value and arranges for destroy to run exactly once
// when the last owner releases.
func NewWithDestroy[T any](label string, value T, destroy func(T)) *Handle[T] {
	st := &state[T]{
		value:   value,
		destroy: destroy,
		holders: make(map[string]int),
	}
	st.owners.Store(1)
	observability.RecordCellCreate()
	return &Handle[T]{state: st, label: normalizeLabel(label)}
}

func normalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label != "" {
		return label
	}
	return "owner-" + uuid.NewString()[:8]
}

// addHolder and removeHolder track lease holders by label; callers hold st.mu.
func (st *state[T]) addHolder(label string) {
	st.holders[label]++
}

func (st *state[T]) removeHolder(label string) {
	n := st.holders[label] - 1
	if n <= 0 {
		delete(st.holders, label)
		return
	}
	st.holders[label] = n
}

// holderList renders current holder labels deterministically; callers hold st.mu.
func (st *state[T]) holderList() string {
	labels := make([]string, 0, len(st.holders))
	for label := range st.holders {
		labels = append(labels, `"`+label+`"`)
	}
	sort.Strings(labels)
	return strings.Join(labels, ", ")
}
