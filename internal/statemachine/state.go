package statemachine

// State represents a debate's position in its lifecycle.
type State string

const (
	// StateProposed is the initial state: the debate exists but no
	// participant has spoken.
	StateProposed State = "proposed"

	// StateOpening collects each participant's opening statement.
	StateOpening State = "opening"

	// StateDeliberating runs turn-based argument rounds.
	StateDeliberating State = "deliberating"

	// StateVoting collects final positions from participants.
	StateVoting State = "voting"

	// StateConsensusReached indicates the consensus engine produced a
	// winning position; a verdict is being recorded.
	StateConsensusReached State = "consensus_reached"

	// StateDeadlocked indicates repeated deliberation or voting failed
	// to converge; the resolver decides what happens next.
	StateDeadlocked State = "deadlocked"

	// StateMediation runs a bounded tie-break by a designated mediator.
	StateMediation State = "mediation"

	// StateEscalatedToHuman is a terminal-pending state: the engine has
	// given up and an operator must resolve the debate externally.
	StateEscalatedToHuman State = "escalated_to_human"

	// StateResolved is terminal: a verdict exists. The only permitted
	// exit is the single bounded appeal.
	StateResolved State = "resolved"

	// StateAppealed is the one bounded reconsideration window after a
	// verdict. It always returns to Resolved.
	StateAppealed State = "appealed"

	// StateCancelled is terminal: the debate was abandoned without a
	// verdict.
	StateCancelled State = "cancelled"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether the state accepts no further mutation.
// Resolved is terminal except for the single permitted appeal detour,
// which the transition table encodes.
func (s State) IsTerminal() bool {
	switch s {
	case StateResolved, StateCancelled, StateEscalatedToHuman:
		return true
	default:
		return false
	}
}

// legalTransitions is the closed table of accepted state changes. Every
// non-terminal state can also be cancelled.
var legalTransitions = map[State][]State{
	StateProposed:         {StateOpening, StateCancelled},
	StateOpening:          {StateDeliberating, StateCancelled},
	StateDeliberating:     {StateVoting, StateDeadlocked, StateCancelled},
	StateVoting:           {StateConsensusReached, StateDeadlocked, StateCancelled},
	StateDeadlocked:       {StateMediation, StateEscalatedToHuman, StateCancelled},
	StateMediation:        {StateConsensusReached, StateDeadlocked, StateCancelled},
	StateConsensusReached: {StateResolved, StateCancelled},
	StateResolved:         {StateAppealed},
	StateAppealed:         {StateResolved},
	StateEscalatedToHuman: {},
	StateCancelled:        {},
}

// CanTransition reports whether the table permits moving from one state
// to another.
func CanTransition(from, to State) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
