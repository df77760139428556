package event

import "time"

// Event is the interface all published events implement.
type Event interface {
	// EventType returns the "category.action" identifier.
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides the common fields. Embed it in concrete events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{eventType: eventType, timestamp: time.Now()}
}

// TransitionEvent is emitted on every accepted state transition.
type TransitionEvent struct {
	baseEvent
	DebateID string
	From     string
	To       string
	Reason   string
	Round    int
}

// NewTransitionEvent creates a TransitionEvent.
func NewTransitionEvent(debateID, from, to, reason string, round int) TransitionEvent {
	return TransitionEvent{
		baseEvent: newBaseEvent("debate.transition"),
		DebateID:  debateID,
		From:      from,
		To:        to,
		Reason:    reason,
		Round:     round,
	}
}

// TurnPassedEvent is emitted when a turn timer expires with no argument
// accepted. Not a caller-facing failure: the debate advances.
type TurnPassedEvent struct {
	baseEvent
	DebateID      string
	ParticipantID string
	Round         int
}

// NewTurnPassedEvent creates a TurnPassedEvent.
func NewTurnPassedEvent(debateID, participantID string, round int) TurnPassedEvent {
	return TurnPassedEvent{
		baseEvent:     newBaseEvent("debate.turn_passed"),
		DebateID:      debateID,
		ParticipantID: participantID,
		Round:         round,
	}
}

// DeadlockEvent is emitted when non-convergence is declared.
type DeadlockEvent struct {
	baseEvent
	DebateID        string
	Round           int
	ProjectedWinner string
}

// NewDeadlockEvent creates a DeadlockEvent.
func NewDeadlockEvent(debateID string, round int, projectedWinner string) DeadlockEvent {
	return DeadlockEvent{
		baseEvent:       newBaseEvent("debate.deadlocked"),
		DebateID:        debateID,
		Round:           round,
		ProjectedWinner: projectedWinner,
	}
}

// MediationEvent is emitted when a mediation attempt begins.
type MediationEvent struct {
	baseEvent
	DebateID   string
	MediatorID string
	Attempt    int
}

// NewMediationEvent creates a MediationEvent.
func NewMediationEvent(debateID, mediatorID string, attempt int) MediationEvent {
	return MediationEvent{
		baseEvent:  newBaseEvent("debate.mediation"),
		DebateID:   debateID,
		MediatorID: mediatorID,
		Attempt:    attempt,
	}
}

// EscalatedEvent is emitted when a debate gives up on automated
// resolution and awaits an operator. This is the priority event
// observability consumers should alert on.
type EscalatedEvent struct {
	baseEvent
	DebateID string
	Round    int
	Attempts int
}

// NewEscalatedEvent creates an EscalatedEvent.
func NewEscalatedEvent(debateID string, round, attempts int) EscalatedEvent {
	return EscalatedEvent{
		baseEvent: newBaseEvent("debate.escalated"),
		DebateID:  debateID,
		Round:     round,
		Attempts:  attempts,
	}
}

// VerdictEvent is emitted when a verdict is recorded, original or
// superseding.
type VerdictEvent struct {
	baseEvent
	DebateID        string
	WinningPosition string
	ConfidenceScore float64
	Algorithm       string
	Superseding     bool
}

// NewVerdictEvent creates a VerdictEvent.
func NewVerdictEvent(debateID, winningPosition string, confidence float64, algorithm string, superseding bool) VerdictEvent {
	return VerdictEvent{
		baseEvent:       newBaseEvent("debate.verdict"),
		DebateID:        debateID,
		WinningPosition: winningPosition,
		ConfidenceScore: confidence,
		Algorithm:       algorithm,
		Superseding:     superseding,
	}
}

// AppealEvent is emitted when an appeal is admitted or concluded.
type AppealEvent struct {
	baseEvent
	DebateID    string
	AppealID    string
	AppellantID string
	Outcome     string
}

// NewAppealEvent creates an AppealEvent.
func NewAppealEvent(debateID, appealID, appellantID, outcome string) AppealEvent {
	return AppealEvent{
		baseEvent:   newBaseEvent("debate.appeal"),
		DebateID:    debateID,
		AppealID:    appealID,
		AppellantID: appellantID,
		Outcome:     outcome,
	}
}
