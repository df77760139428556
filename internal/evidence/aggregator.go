// Package evidence combines the evidence items attached to an argument
// into a single weighted strength score, and projects per-position
// strengths for the consensus engine.
//
// Aggregation is a pure function of the arguments and evidence passed in.
// Nothing is cached across rounds: evidence strength can change as new
// items are submitted in later rounds, so every caller sees the score for
// exactly the inputs it supplied.
package evidence

import (
	"github.com/praetor-ai/praetor/internal/model"
)

// Default source-type weight multipliers. Citations outrank empirical
// data, which outranks deduction, which outranks testimony.
const (
	DefaultCitationWeight    = 1.0
	DefaultEmpiricalWeight   = 0.85
	DefaultDeductionWeight   = 0.8
	DefaultTestimonialWeight = 0.6
)

// Aggregator scores arguments by their attached evidence.
type Aggregator struct {
	weights map[model.SourceType]float64
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSourceWeight overrides the weight multiplier for one source type.
// Weights outside (0, 1] are ignored.
func WithSourceWeight(st model.SourceType, w float64) Option {
	return func(a *Aggregator) {
		if w > 0 && w <= 1 {
			a.weights[st] = w
		}
	}
}

// New creates an Aggregator with the default source-type weights.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		weights: map[model.SourceType]float64{
			model.SourceCitation:         DefaultCitationWeight,
			model.SourceEmpirical:        DefaultEmpiricalWeight,
			model.SourceLogicalDeduction: DefaultDeductionWeight,
			model.SourceTestimonial:      DefaultTestimonialWeight,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// weight returns the multiplier for a source type. The switch is
// exhaustive over the closed set; an unknown type (which validation
// should have rejected upstream) contributes nothing.
func (a *Aggregator) weight(st model.SourceType) float64 {
	switch st {
	case model.SourceCitation, model.SourceEmpirical, model.SourceLogicalDeduction, model.SourceTestimonial:
		return a.weights[st]
	default:
		return 0
	}
}

// Strength computes an argument's strength: the normalized weighted sum
// of its evidence credibility scores, clamped to [0, 1]. An argument with
// no evidence has strength 0.
func (a *Aggregator) Strength(items []model.Evidence) float64 {
	var sum, totalWeight float64
	for _, ev := range items {
		w := a.weight(ev.SourceType)
		sum += w * ev.CredibilityScore
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return clamp01(sum / totalWeight)
}

// PositionStrengths maps each position to the maximum strength among the
// arguments supporting it, considering only arguments from the given
// round. Ties between equal-strength arguments are broken by earliest
// submission. The position an argument supports comes from its stance via
// bind; a nil bind maps the stance string itself.
func (a *Aggregator) PositionStrengths(args []model.Argument, evidenceByArg map[string][]model.Evidence, round int, bind func(model.Stance) string) map[string]float64 {
	if bind == nil {
		bind = func(s model.Stance) string { return s.String() }
	}

	type leader struct {
		strength float64
		at       int64 // earliest submission wins ties
	}
	leaders := make(map[string]leader)

	for _, arg := range args {
		if arg.Round != round {
			continue
		}
		pos := bind(arg.Stance)
		if pos == "" {
			continue
		}
		s := a.Strength(evidenceByArg[arg.ID])
		at := arg.SubmittedAt.UnixNano()
		cur, ok := leaders[pos]
		if !ok || s > cur.strength || (s == cur.strength && at < cur.at) {
			leaders[pos] = leader{strength: s, at: at}
		}
	}

	out := make(map[string]float64, len(leaders))
	for pos, l := range leaders {
		out[pos] = l.strength
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
