package record

import (
	"github.com/rs/zerolog"
)

// Record is one identified integer datum shared between owners. The id is
// fixed at construction; the value changes in place under whichever owner
// holds the exclusive lease.
type Record struct {
	id    string
	value int
	log   zerolog.Logger
}

// New builds a record. Construction always succeeds.
func New(id string, value int, log zerolog.Logger) *Record {
	return &Record{id: id, value: value, log: log}
}

// ID returns the immutable identifier.
func (r *Record) ID() string {
	return r.id
}

// Value returns the current value without logging.
func (r *Record) Value() int {
	return r.value
}

// SetValue replaces the value and logs the old and new one. Callers hold
// the exclusive lease already; the record does not re-check the gate.
func (r *Record) SetValue(v int) {
	r.log.Info().
		Str("record", r.id).
		Int("from", r.value).
		Int("to", v).
		Msg("record value updated")
	r.value = v
}

// Increment raises the value by one with the same logging contract as
// SetValue.
func (r *Record) Increment() {
	r.SetValue(r.value + 1)
}

// Display logs the id and current value. Read access is enough.
func (r *Record) Display() {
	r.log.Info().
		Str("record", r.id).
		Int("value", r.value).
		Msg("record state")
}
