// Package engine is the deliberation engine façade: it owns the debate
// registry and composes the state machine, turn scheduler, evidence
// aggregator, consensus evaluator, deadlock resolver, and appeal ledger
// behind a small operation surface.
//
// Concurrency model: operations on different debates run concurrently;
// operations on the same debate serialize behind that debate's lock.
// Turn timers race argument submission for the same lock and carry a
// turn epoch, so a timer that lost the race is a no-op. Persistence is
// asynchronous and best-effort; the in-memory handle is the source of
// truth.
package engine
