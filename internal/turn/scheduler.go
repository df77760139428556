// Package turn decides whose turn it is to speak during deliberation
// rounds and enforces round fairness: no participant gets two turns in
// the same round before all others have had one.
//
// The scheduler tracks order and marks only. Timeouts are timers owned by
// the engine, which calls RecordPass when one fires; the scheduler itself
// never blocks or sleeps, which keeps it trivially testable.
package turn

import (
	"errors"
	"fmt"
)

// Mark records how a participant used a turn.
type Mark string

const (
	// MarkSpoken indicates the participant submitted an argument.
	MarkSpoken Mark = "spoken"

	// MarkPassed indicates the turn timed out with no argument. The
	// participant remains eligible next round.
	MarkPassed Mark = "passed"
)

// ErrNotCurrentTurn indicates an attempt to mark a participant who does
// not hold the current turn.
var ErrNotCurrentTurn = errors.New("not this participant's turn")

// Scheduler hands out turns in round-robin order established at debate
// creation (registration order). Not goroutine-safe: the engine serializes
// access behind the debate lock.
type Scheduler struct {
	order []string
	round int
	index int
	marks map[string]Mark // current round only
	epoch uint64          // bumped every turn change, guards stale timers
}

// NewScheduler creates a Scheduler over the registration order, starting
// at round 1 with the first participant.
func NewScheduler(order []string) *Scheduler {
	o := make([]string, len(order))
	copy(o, order)
	return &Scheduler{
		order: o,
		round: 1,
		marks: make(map[string]Mark),
		epoch: 1,
	}
}

// Round returns the current round number, starting at 1.
func (s *Scheduler) Round() int {
	return s.round
}

// Current returns the participant holding the turn, or "" when the round
// is complete.
func (s *Scheduler) Current() string {
	if s.index >= len(s.order) {
		return ""
	}
	return s.order[s.index]
}

// Epoch identifies the current turn. A timer captures the epoch when
// scheduled and fires only if it still matches, so a turn that completed
// normally cannot be passed by a stale timer.
func (s *Scheduler) Epoch() uint64 {
	return s.epoch
}

// RecordSpoken marks the current turn as spoken and advances.
func (s *Scheduler) RecordSpoken(participantID string) error {
	return s.record(participantID, MarkSpoken)
}

// RecordPass marks the current turn as passed and advances.
func (s *Scheduler) RecordPass(participantID string) error {
	return s.record(participantID, MarkPassed)
}

func (s *Scheduler) record(participantID string, m Mark) error {
	cur := s.Current()
	if cur == "" || cur != participantID {
		return fmt.Errorf("%w: current is %q, got %q", ErrNotCurrentTurn, cur, participantID)
	}
	s.marks[participantID] = m
	s.index++
	s.epoch++
	return nil
}

// RoundComplete reports whether every participant has had a turn this
// round, spoken or passed.
func (s *Scheduler) RoundComplete() bool {
	return s.index >= len(s.order)
}

// Marks returns a copy of the current round's marks.
func (s *Scheduler) Marks() map[string]Mark {
	out := make(map[string]Mark, len(s.marks))
	for k, v := range s.marks {
		out[k] = v
	}
	return out
}

// NextRound clears the marks and restarts the rotation for the following
// round. It is an error to start the next round before the current one is
// complete; fairness depends on it.
func (s *Scheduler) NextRound() error {
	if !s.RoundComplete() {
		return fmt.Errorf("round %d is not complete", s.round)
	}
	s.round++
	s.index = 0
	s.marks = make(map[string]Mark)
	s.epoch++
	return nil
}
