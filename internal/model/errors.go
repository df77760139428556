package model

import "errors"

// Validation sentinel errors. All are rejected before any state mutation
// and are fully recoverable by the caller correcting its input.
var (
	// ErrEmptyTopic indicates a debate topic that is empty or whitespace-only.
	ErrEmptyTopic = errors.New("topic must not be empty")

	// ErrEmptyClaim indicates an argument with an empty claim.
	ErrEmptyClaim = errors.New("claim must not be empty")

	// ErrClaimTooLong indicates an argument claim over the configured limit.
	ErrClaimTooLong = errors.New("claim exceeds maximum length")

	// ErrInvalidConfidence indicates a confidence value outside [0, 1].
	ErrInvalidConfidence = errors.New("confidence must be within [0, 1]")

	// ErrInvalidCredibility indicates a credibility score outside [0, 1].
	ErrInvalidCredibility = errors.New("credibility score must be within [0, 1]")

	// ErrInvalidTrustWeight indicates a trust weight outside [0, 1].
	ErrInvalidTrustWeight = errors.New("trust weight must be within [0, 1]")

	// ErrUnknownStance indicates a stance outside the closed set.
	ErrUnknownStance = errors.New("unknown stance")

	// ErrUnknownSourceType indicates an evidence source type outside the closed set.
	ErrUnknownSourceType = errors.New("unknown evidence source type")

	// ErrEmptyPosition indicates a vote with an empty position.
	ErrEmptyPosition = errors.New("position must not be empty")

	// ErrEmptyAgentID indicates a participant without an agent ID.
	ErrEmptyAgentID = errors.New("agent id must not be empty")

	// ErrEmptyJustification indicates an appeal without a justification.
	ErrEmptyJustification = errors.New("justification must not be empty")
)
