// Package event provides a synchronous pub-sub bus carrying debate
// lifecycle events to observability collaborators.
//
// The engine publishes an event on every accepted state transition,
// deadlock escalation, turn expiry, verdict, and appeal outcome.
// Subscribers (loggers, metrics exporters, the persistence writer) attach
// without the engine knowing who they are.
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - debate.transition, debate.cancelled
//   - debate.turn_passed
//   - debate.deadlocked, debate.mediation, debate.escalated
//   - debate.verdict
//   - debate.appeal
//
// # Thread Safety
//
// The [Bus] is safe for concurrent use. Handlers run synchronously in
// subscription order and are protected against panics: one misbehaving
// handler cannot block delivery to the rest.
package event
