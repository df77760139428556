package model

import (
	"strings"
	"time"
)

// Vote is a participant's position at the close of deliberation. One live
// vote exists per participant: resubmission during the voting phase
// overwrites the prior vote (last write wins under the debate's lock).
type Vote struct {
	// ParticipantID is the registered participant casting the vote.
	ParticipantID string `json:"participant_id"`

	// Position is one of the debate's outcome positions.
	Position string `json:"position"`

	// Confidence is within [0, 1].
	Confidence float64 `json:"confidence"`

	// Rationale is optional free text explaining the vote.
	Rationale string `json:"rationale,omitempty"`

	// CastAt is when the vote was accepted.
	CastAt time.Time `json:"cast_at"`
}

// NewVote validates and creates a Vote.
func NewVote(participantID, position string, confidence float64, rationale string, now time.Time) (Vote, error) {
	if strings.TrimSpace(position) == "" {
		return Vote{}, ErrEmptyPosition
	}
	if confidence < 0 || confidence > 1 {
		return Vote{}, ErrInvalidConfidence
	}
	return Vote{
		ParticipantID: participantID,
		Position:      position,
		Confidence:    confidence,
		Rationale:     rationale,
		CastAt:        now,
	}, nil
}
