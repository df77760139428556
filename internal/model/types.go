package model

import (
	"strings"
	"time"
)

// Stance is a participant's position on the debate topic relative to an
// argument they are making.
type Stance string

const (
	// StanceFor argues in favor of the debate topic.
	StanceFor Stance = "for"

	// StanceAgainst argues against the debate topic.
	StanceAgainst Stance = "against"

	// StanceNeutral neither supports nor opposes the topic, typically a
	// clarification or a request for evidence.
	StanceNeutral Stance = "neutral"
)

// String returns the string representation of the stance.
func (s Stance) String() string {
	return string(s)
}

// Valid reports whether the stance is a member of the closed set.
func (s Stance) Valid() bool {
	switch s {
	case StanceFor, StanceAgainst, StanceNeutral:
		return true
	default:
		return false
	}
}

// SourceType classifies where a piece of evidence comes from. The type
// determines the weight multiplier applied during aggregation.
type SourceType string

const (
	// SourceCitation is a reference to an external authoritative source.
	SourceCitation SourceType = "citation"

	// SourceEmpirical is a measurement or observed result.
	SourceEmpirical SourceType = "empirical"

	// SourceTestimonial is a first-hand account by an agent.
	SourceTestimonial SourceType = "testimonial"

	// SourceLogicalDeduction is a conclusion derived from prior accepted claims.
	SourceLogicalDeduction SourceType = "logical-deduction"
)

// String returns the string representation of the source type.
func (s SourceType) String() string {
	return string(s)
}

// Valid reports whether the source type is a member of the closed set.
func (s SourceType) Valid() bool {
	switch s {
	case SourceCitation, SourceEmpirical, SourceTestimonial, SourceLogicalDeduction:
		return true
	default:
		return false
	}
}

// Participant is a registered agent in a debate. Trust weights come from
// the external participant directory at debate creation and are fixed for
// the debate's lifetime.
type Participant struct {
	// AgentID uniquely identifies the agent within the debate.
	AgentID string `json:"agent_id"`

	// TrustWeight scales this participant's contribution under the
	// Weighted consensus algorithm. Must be within [0, 1].
	TrustWeight float64 `json:"trust_weight"`

	// MediatorEligible marks the participant as a candidate mediator
	// during deadlock resolution.
	MediatorEligible bool `json:"mediator_eligible,omitempty"`
}

// Validate checks the participant's fields.
func (p Participant) Validate() error {
	if strings.TrimSpace(p.AgentID) == "" {
		return ErrEmptyAgentID
	}
	if p.TrustWeight < 0 || p.TrustWeight > 1 {
		return ErrInvalidTrustWeight
	}
	return nil
}

// ValidateTopic checks that a debate topic is non-empty after trimming
// whitespace.
func ValidateTopic(topic string) error {
	if strings.TrimSpace(topic) == "" {
		return ErrEmptyTopic
	}
	return nil
}

// TransitionRecord is one entry in a debate's append-only audit trail.
type TransitionRecord struct {
	From   string    `json:"from"`
	To     string    `json:"to"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}
