package statemachine

import (
	"fmt"
	"time"

	"github.com/praetor-ai/praetor/internal/model"
)

// TransitionError reports an illegal transition request. The debate's
// state is unchanged when it is returned.
type TransitionError struct {
	From State
	To   State
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition from %s to %s", e.From, e.To)
}

// Machine tracks one debate's current state and its append-only
// transition history. The zero value is not usable; create with New.
type Machine struct {
	state   State
	history []model.TransitionRecord
}

// New creates a Machine in the Proposed state with an empty history.
func New() *Machine {
	return &Machine{state: StateProposed}
}

// Restore rebuilds a Machine from a persisted state and history.
// Used when loading an archived debate for inspection.
func Restore(state State, history []model.TransitionRecord) *Machine {
	h := make([]model.TransitionRecord, len(history))
	copy(h, history)
	return &Machine{state: state, history: h}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Transition requests a move to the target state. An illegal request
// fails with a *TransitionError and leaves state and history unchanged.
// An accepted transition appends an immutable record to the history.
func (m *Machine) Transition(to State, reason string, now time.Time) (model.TransitionRecord, error) {
	if !CanTransition(m.state, to) {
		return model.TransitionRecord{}, &TransitionError{From: m.state, To: to}
	}
	rec := model.TransitionRecord{
		From:   m.state.String(),
		To:     to.String(),
		Reason: reason,
		At:     now,
	}
	m.state = to
	m.history = append(m.history, rec)
	return rec, nil
}

// History returns a copy of the transition records in order of
// application.
func (m *Machine) History() []model.TransitionRecord {
	out := make([]model.TransitionRecord, len(m.history))
	copy(out, m.history)
	return out
}
