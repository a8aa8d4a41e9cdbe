// Package cell owns shared-ownership concerns.
//
// Ownership boundary:
// - owner reference counting
// - lease gating for reads and exclusive writes
// - deterministic destruction at zero owners
//
// Cell does not know what it guards; callers bring their own value type.
package cell
