package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxClaimLength bounds claim text when the debate config does not
// override it.
const DefaultMaxClaimLength = 4000

// Argument is a claim submitted by one participant in one round. Arguments
// are immutable once created; rebuttals reference their target through
// ParentID rather than modifying it.
type Argument struct {
	// ID uniquely identifies the argument.
	ID string `json:"id"`

	// DebateID is the debate this argument belongs to.
	DebateID string `json:"debate_id"`

	// ParticipantID is the registered participant who submitted it.
	ParticipantID string `json:"participant_id"`

	// Round is the debate round the argument was submitted in.
	Round int `json:"round"`

	// Stance is the argument's position relative to the debate topic.
	Stance Stance `json:"stance"`

	// Claim is the argument text.
	Claim string `json:"claim"`

	// ParentID links a rebuttal to the argument it rebuts. Empty for
	// top-level arguments. A parent must belong to the same debate;
	// the engine enforces that cross-entity rule.
	ParentID string `json:"parent_id,omitempty"`

	// EvidenceIDs lists the evidence items attached to this argument.
	EvidenceIDs []string `json:"evidence_ids,omitempty"`

	// SubmittedAt is when the argument was accepted.
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewArgument validates and creates an Argument with a generated ID.
// maxClaimLen of 0 means DefaultMaxClaimLength.
func NewArgument(debateID, participantID string, round int, stance Stance, claim, parentID string, maxClaimLen int, now time.Time) (Argument, error) {
	if maxClaimLen <= 0 {
		maxClaimLen = DefaultMaxClaimLength
	}
	if strings.TrimSpace(claim) == "" {
		return Argument{}, ErrEmptyClaim
	}
	if len(claim) > maxClaimLen {
		return Argument{}, ErrClaimTooLong
	}
	if !stance.Valid() {
		return Argument{}, ErrUnknownStance
	}
	return Argument{
		ID:            uuid.NewString(),
		DebateID:      debateID,
		ParticipantID: participantID,
		Round:         round,
		Stance:        stance,
		Claim:         claim,
		ParentID:      parentID,
		SubmittedAt:   now,
	}, nil
}

// Evidence is a credibility-scored item owned by the argument it supports.
// Many evidence items may attach to one argument.
type Evidence struct {
	// ID uniquely identifies the evidence item.
	ID string `json:"id"`

	// SourceType classifies the evidence for weighting.
	SourceType SourceType `json:"source_type"`

	// CredibilityScore is within [0, 1]. When the submitter does not
	// supply one, the engine fills in the neutral default.
	CredibilityScore float64 `json:"credibility_score"`

	// Content is the evidence body.
	Content string `json:"content"`

	// SubmittedBy is the agent that submitted the evidence.
	SubmittedBy string `json:"submitted_by"`

	// SubmittedAt is when the evidence was accepted.
	SubmittedAt time.Time `json:"submitted_at"`
}

// NeutralCredibility is used when neither the submitter nor an external
// scorer supplies a credibility score.
const NeutralCredibility = 0.5

// NewEvidence validates and creates an Evidence item with a generated ID.
func NewEvidence(sourceType SourceType, credibility float64, content, submittedBy string, now time.Time) (Evidence, error) {
	if !sourceType.Valid() {
		return Evidence{}, ErrUnknownSourceType
	}
	if credibility < 0 || credibility > 1 {
		return Evidence{}, ErrInvalidCredibility
	}
	return Evidence{
		ID:               uuid.NewString(),
		SourceType:       sourceType,
		CredibilityScore: credibility,
		Content:          content,
		SubmittedBy:      submittedBy,
		SubmittedAt:      now,
	}, nil
}
