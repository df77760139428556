// Package consensus computes whether a set of votes constitutes a verdict,
// and under which algorithm.
//
// The algorithm is selected per debate at creation time and is immutable
// for that debate's lifetime, including through appeal: an appeal re-runs
// the same algorithm over updated inputs. Evaluation is deterministic; the
// same input always produces the same result, with position-name ordering
// breaking exact ties.
package consensus

import (
	"fmt"
	"sort"

	"github.com/praetor-ai/praetor/internal/model"
)

// Algorithm is the closed set of consensus algorithms.
type Algorithm string

const (
	// Majority requires a strict >50% share of cast votes.
	Majority Algorithm = "majority"

	// Weighted sums confidence x trust weight x evidence strength per
	// position; the highest total wins if it clears the configured
	// margin over the runner-up.
	Weighted Algorithm = "weighted"

	// Unanimous requires every registered participant to have cast the
	// same position.
	Unanimous Algorithm = "unanimous"

	// QuorumThreshold requires a configured fraction of registered
	// participants (not just those who voted) to agree.
	QuorumThreshold Algorithm = "quorum"
)

// String returns the string representation of the algorithm.
func (a Algorithm) String() string {
	return string(a)
}

// Valid reports whether the algorithm is a member of the closed set.
func (a Algorithm) Valid() bool {
	switch a {
	case Majority, Weighted, Unanimous, QuorumThreshold:
		return true
	default:
		return false
	}
}

// ParseAlgorithm converts a config string into an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown consensus algorithm %q", s)
	}
	return a, nil
}

// DefaultWeightedMargin is the minimum lead the winning weighted total
// must hold over the runner-up, as a fraction of the combined totals.
const DefaultWeightedMargin = 0.1

// DefaultQuorumFraction is the agreeing fraction of registered
// participants required under QuorumThreshold.
const DefaultQuorumFraction = 0.66

// Input carries everything an evaluation needs. Votes are the live votes
// (one per participant); Registered is the total registered participant
// count, which matters for Unanimous and QuorumThreshold.
type Input struct {
	Votes      []model.Vote
	Registered int

	// TrustWeights maps participant ID to trust weight. Missing entries
	// default to 1. Used by Weighted only.
	TrustWeights map[string]float64

	// Strengths maps position to evidence strength as computed by the
	// aggregator for the current round. Missing entries default to a
	// neutral 1 so an unevidenced position is not zeroed out. Used by
	// Weighted only.
	Strengths map[string]float64

	// MediationWeights maps participant ID to an extra multiplier for
	// mediation votes. Missing entries default to 1.
	MediationWeights map[string]float64

	// QuorumFraction overrides DefaultQuorumFraction when > 0.
	QuorumFraction float64

	// Margin overrides DefaultWeightedMargin when > 0.
	Margin float64
}

// Result is the outcome of one evaluation.
type Result struct {
	// Reached reports whether the algorithm's bar was cleared.
	Reached bool

	// WinningPosition is set when Reached is true. It is also set as the
	// projected leader when Reached is false and at least one vote
	// exists; the deadlock resolver compares projections across rounds.
	WinningPosition string

	// ConfidenceScore is the normalized winning total (Weighted/Quorum)
	// or the agreeing vote fraction (Majority/Unanimous).
	ConfidenceScore float64

	// Dissenting lists participants whose vote disagreed with the
	// winning position, sorted for determinism.
	Dissenting []string
}

// Evaluate runs the selected algorithm over the input. The switch is
// exhaustive: adding an algorithm without a case here is a compile-time
// exercise for the reviewer, and an unknown value returns a non-reached
// result rather than guessing.
func Evaluate(alg Algorithm, in Input) Result {
	switch alg {
	case Majority:
		return evaluateMajority(in)
	case Weighted:
		return evaluateWeighted(in)
	case Unanimous:
		return evaluateUnanimous(in)
	case QuorumThreshold:
		return evaluateQuorum(in)
	default:
		return Result{}
	}
}

// tally counts votes per position and returns positions sorted by count
// descending, name ascending for ties.
func tally(votes []model.Vote) (counts map[string]int, ordered []string) {
	counts = make(map[string]int)
	for _, v := range votes {
		counts[v.Position]++
	}
	ordered = make([]string, 0, len(counts))
	for pos := range counts {
		ordered = append(ordered, pos)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if counts[ordered[i]] != counts[ordered[j]] {
			return counts[ordered[i]] > counts[ordered[j]]
		}
		return ordered[i] < ordered[j]
	})
	return counts, ordered
}

// dissenters returns the sorted participants who voted against the winner.
func dissenters(votes []model.Vote, winner string) []string {
	var out []string
	for _, v := range votes {
		if v.Position != winner {
			out = append(out, v.ParticipantID)
		}
	}
	sort.Strings(out)
	return out
}

func evaluateMajority(in Input) Result {
	if len(in.Votes) == 0 {
		return Result{}
	}
	counts, ordered := tally(in.Votes)
	leader := ordered[0]
	fraction := float64(counts[leader]) / float64(len(in.Votes))
	return Result{
		Reached:         fraction > 0.5,
		WinningPosition: leader,
		ConfidenceScore: fraction,
		Dissenting:      dissenters(in.Votes, leader),
	}
}

func evaluateUnanimous(in Input) Result {
	if len(in.Votes) == 0 || in.Registered == 0 {
		return Result{}
	}
	counts, ordered := tally(in.Votes)
	leader := ordered[0]
	fraction := float64(counts[leader]) / float64(in.Registered)
	reached := len(in.Votes) == in.Registered && counts[leader] == in.Registered
	return Result{
		Reached:         reached,
		WinningPosition: leader,
		ConfidenceScore: fraction,
		Dissenting:      dissenters(in.Votes, leader),
	}
}

func evaluateQuorum(in Input) Result {
	if len(in.Votes) == 0 || in.Registered == 0 {
		return Result{}
	}
	threshold := in.QuorumFraction
	if threshold <= 0 {
		threshold = DefaultQuorumFraction
	}
	counts, ordered := tally(in.Votes)
	leader := ordered[0]
	fraction := float64(counts[leader]) / float64(in.Registered)
	return Result{
		Reached:         fraction >= threshold,
		WinningPosition: leader,
		ConfidenceScore: fraction,
		Dissenting:      dissenters(in.Votes, leader),
	}
}

func evaluateWeighted(in Input) Result {
	if len(in.Votes) == 0 {
		return Result{}
	}
	margin := in.Margin
	if margin <= 0 {
		margin = DefaultWeightedMargin
	}

	totals := make(map[string]float64)
	var grand float64
	for _, v := range in.Votes {
		trust := 1.0
		if w, ok := in.TrustWeights[v.ParticipantID]; ok {
			trust = w
		}
		strength := 1.0
		if s, ok := in.Strengths[v.Position]; ok {
			strength = s
		}
		extra := 1.0
		if m, ok := in.MediationWeights[v.ParticipantID]; ok && m > 0 {
			extra = m
		}
		totals[v.Position] += v.Confidence * trust * strength * extra
		grand += v.Confidence * trust * strength * extra
	}

	ordered := make([]string, 0, len(totals))
	for pos := range totals {
		ordered = append(ordered, pos)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if totals[ordered[i]] != totals[ordered[j]] {
			return totals[ordered[i]] > totals[ordered[j]]
		}
		return ordered[i] < ordered[j]
	})

	leader := ordered[0]
	var runnerUp float64
	if len(ordered) > 1 {
		runnerUp = totals[ordered[1]]
	}

	var confidence float64
	if grand > 0 {
		confidence = totals[leader] / grand
	}
	reached := grand > 0 && (totals[leader]-runnerUp)/grand >= margin && totals[leader] > runnerUp
	return Result{
		Reached:         reached,
		WinningPosition: leader,
		ConfidenceScore: confidence,
		Dissenting:      dissenters(in.Votes, leader),
	}
}
