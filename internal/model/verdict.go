package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Verdict is the terminal output of a debate: the position the system
// treats as authoritative, with a confidence score and a dissent record.
// A verdict is immutable once created. An upheld appeal supersedes it with
// a new verdict; the original is never mutated or deleted.
type Verdict struct {
	// DebateID is the debate this verdict concludes.
	DebateID string `json:"debate_id"`

	// WinningPosition is the authoritative outcome.
	WinningPosition string `json:"winning_position"`

	// ConfidenceScore is the normalized winning total (Weighted/Quorum)
	// or the agreeing vote fraction (Majority/Unanimous), within [0, 1].
	ConfidenceScore float64 `json:"confidence_score"`

	// Dissenting lists participants whose vote disagreed with the
	// winning position.
	Dissenting []string `json:"dissenting,omitempty"`

	// AlgorithmUsed names the consensus algorithm that produced this
	// verdict.
	AlgorithmUsed string `json:"algorithm_used"`

	// ReachedAtRound is the round at which consensus was reached.
	ReachedAtRound int `json:"reached_at_round"`

	// Supersedes is the creation time of the verdict this one replaced
	// through an appeal, zero for an original verdict.
	Supersedes time.Time `json:"supersedes,omitzero"`

	// CreatedAt is when the verdict was produced.
	CreatedAt time.Time `json:"created_at"`
}

// AppealOutcome is the processing state of an appeal.
type AppealOutcome string

const (
	// AppealPending indicates the appeal's revote has not concluded.
	AppealPending AppealOutcome = "pending"

	// AppealUpheld indicates the appeal changed the winning position.
	AppealUpheld AppealOutcome = "upheld"

	// AppealRejected indicates the original verdict stands.
	AppealRejected AppealOutcome = "rejected"
)

// Appeal is a single bounded post-verdict challenge. At most one appeal
// per debate is ever processed; a second attempt is rejected outright.
type Appeal struct {
	// ID uniquely identifies the appeal.
	ID string `json:"id"`

	// DebateID is the resolved debate being challenged.
	DebateID string `json:"debate_id"`

	// AppellantID is the registered participant filing the appeal.
	AppellantID string `json:"appellant_id"`

	// Justification explains why the verdict should be reconsidered.
	Justification string `json:"justification"`

	// NewEvidence optionally seeds the reopened round.
	NewEvidence []Evidence `json:"new_evidence,omitempty"`

	// SubmittedAt is when the appeal was accepted.
	SubmittedAt time.Time `json:"submitted_at"`

	// Outcome is pending until the revote concludes.
	Outcome AppealOutcome `json:"outcome"`
}

// NewAppeal validates and creates an Appeal in the pending state.
func NewAppeal(debateID, appellantID, justification string, newEvidence []Evidence, now time.Time) (Appeal, error) {
	if strings.TrimSpace(justification) == "" {
		return Appeal{}, ErrEmptyJustification
	}
	return Appeal{
		ID:            uuid.NewString(),
		DebateID:      debateID,
		AppellantID:   appellantID,
		Justification: justification,
		NewEvidence:   newEvidence,
		SubmittedAt:   now,
		Outcome:       AppealPending,
	}, nil
}
