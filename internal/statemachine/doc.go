// Package statemachine holds the authoritative per-debate state and the
// legal-transition table. Every other component mutates a debate only by
// requesting a transition here; an illegal request fails with a
// TransitionError and leaves the state unchanged.
//
// Each accepted transition appends an immutable record to the debate's
// history. The history is the audit trail consumed by observability: it is
// always a path through the legal-transition table, with no transition out
// of a terminal state except the single Resolved → Appealed → Resolved
// detour.
//
// The Machine itself is not goroutine-safe. The engine serializes all
// access behind the owning debate's lock, so the machine never needs one
// of its own.
package statemachine
