package engine

import "errors"

// Sentinel errors returned by engine operations. Errors wrap these with
// context; callers match with errors.Is.
var (
	// ErrDebateNotFound indicates the debate ID is not in the registry.
	ErrDebateNotFound = errors.New("debate not found")

	// ErrNotEnoughParticipants indicates fewer than two agents were
	// supplied at initiation.
	ErrNotEnoughParticipants = errors.New("a debate needs at least two participants")

	// ErrDuplicateParticipant indicates the same agent ID was supplied
	// twice at initiation.
	ErrDuplicateParticipant = errors.New("duplicate participant")

	// ErrNotParticipant indicates the acting agent is not registered in
	// the debate.
	ErrNotParticipant = errors.New("agent is not a participant in this debate")

	// ErrDebateTerminal indicates the debate has ended and accepts no
	// further submissions.
	ErrDebateTerminal = errors.New("debate is in a terminal state")

	// ErrWrongPhase indicates the operation is not valid in the debate's
	// current state.
	ErrWrongPhase = errors.New("operation not valid in current debate state")

	// ErrNotMediator indicates a mediation vote from an agent other than
	// the selected mediator.
	ErrNotMediator = errors.New("agent is not the selected mediator")

	// ErrNoVerdict indicates the debate has not produced a verdict.
	ErrNoVerdict = errors.New("debate has no verdict")

	// ErrArgumentNotFound indicates a parent or target argument ID does
	// not exist in this debate.
	ErrArgumentNotFound = errors.New("argument not found in this debate")
)
