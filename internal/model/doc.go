// Package model defines the immutable value types that flow through a
// debate: participants, arguments, evidence, votes, verdicts, and appeals.
//
// Everything in this package is pure data plus validation. Constructors
// reject malformed input before any value escapes; once created, values
// are never mutated, only referenced. All I/O, locking, and state
// transitions live elsewhere (see the engine and statemachine packages).
//
// # Main Types
//
//   - [Participant]: a registered agent with a trust weight
//   - [Argument]: a claim submitted by one participant in one round
//   - [Evidence]: a credibility-scored item attached to an argument
//   - [Vote]: a participant's final position with confidence
//   - [Verdict]: the terminal output of a debate
//   - [Appeal]: a single bounded post-verdict challenge
//
// # Validation
//
// Constructors return sentinel errors (ErrEmptyClaim, ErrInvalidConfidence,
// and friends) that callers can match with errors.Is. Validation never
// consults external state: cross-entity checks such as "round must equal
// the debate's current round" belong to the engine, which sees both sides.
package model
