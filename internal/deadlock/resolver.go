// Package deadlock detects non-convergence and drives the escalation
// ladder: mediation first, then human escalation. It never silently picks
// a default winner; a debate that cannot converge becomes an operator
// problem, not a fabricated verdict.
package deadlock

import (
	"sort"

	"github.com/praetor-ai/praetor/internal/consensus"
	"github.com/praetor-ai/praetor/internal/model"
)

// DefaultMaxMediationAttempts bounds the mediation loop before the
// debate escalates to a human operator.
const DefaultMaxMediationAttempts = 2

// DefaultMediationWeight is the extra multiplier applied to the
// mediator's vote during a mediation attempt.
const DefaultMediationWeight = 2.0

// Projector remembers the projected winning position at the end of each
// completed round. Convergence has stalled when the projection is
// unchanged across the last two rounds without consensus being reached.
type Projector struct {
	prev     string
	cur      string
	observed int
}

// Observe records the projected leader at the end of a round.
func (p *Projector) Observe(winningPosition string) {
	p.prev = p.cur
	p.cur = winningPosition
	p.observed++
}

// Current returns the most recently observed projection, empty when no
// round has been observed.
func (p *Projector) Current() string {
	return p.cur
}

// Stalled reports whether the last two observed projections exist, are
// non-empty, and match.
func (p *Projector) Stalled() bool {
	return p.observed >= 2 && p.cur != "" && p.cur == p.prev
}

// Resolver tracks mediation attempts for one debate and selects the
// mediator.
type Resolver struct {
	maxAttempts int
	attempts    int
	tieBreaker  string
	weight      float64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxAttempts bounds the mediation loop. Values below 1 keep the
// default.
func WithMaxAttempts(n int) Option {
	return func(r *Resolver) {
		if n >= 1 {
			r.maxAttempts = n
		}
	}
}

// WithTieBreaker names an externally supplied tie-break agent that wins
// mediator selection over the trust-weight default.
func WithTieBreaker(agentID string) Option {
	return func(r *Resolver) { r.tieBreaker = agentID }
}

// WithMediationWeight overrides the extra multiplier on the mediator's
// vote. Values at or below 1 keep the default.
func WithMediationWeight(w float64) Option {
	return func(r *Resolver) {
		if w > 1 {
			r.weight = w
		}
	}
}

// NewResolver creates a Resolver with a fresh attempt budget.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		maxAttempts: DefaultMaxMediationAttempts,
		weight:      DefaultMediationWeight,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MediationWeight returns the multiplier for the mediator's vote.
func (r *Resolver) MediationWeight() float64 {
	return r.weight
}

// Attempts returns the number of mediation attempts consumed so far.
func (r *Resolver) Attempts() int {
	return r.attempts
}

// Exhausted reports whether the mediation budget is spent.
func (r *Resolver) Exhausted() bool {
	return r.attempts >= r.maxAttempts
}

// BeginAttempt consumes one mediation attempt. It returns false when the
// budget was already spent, in which case the debate must escalate.
func (r *Resolver) BeginAttempt() bool {
	if r.Exhausted() {
		return false
	}
	r.attempts++
	return true
}

// SelectMediator picks the mediator for a deadlocked debate: the
// configured tie-break agent if it is a registered participant, else the
// mediator-eligible participant with the highest trust weight, agent ID
// ordering breaking exact ties. Returns "" when no candidate exists.
func (r *Resolver) SelectMediator(participants []model.Participant) string {
	if r.tieBreaker != "" {
		for _, p := range participants {
			if p.AgentID == r.tieBreaker {
				return p.AgentID
			}
		}
	}

	candidates := make([]model.Participant, 0, len(participants))
	for _, p := range participants {
		if p.MediatorEligible {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].TrustWeight != candidates[j].TrustWeight {
			return candidates[i].TrustWeight > candidates[j].TrustWeight
		}
		return candidates[i].AgentID < candidates[j].AgentID
	})
	return candidates[0].AgentID
}

// ShouldDeclare reports whether a deadlock should be declared given the
// latest consensus result and the round projector: either the projection
// stalled across two rounds without consensus, or voting closed without
// consensus.
func ShouldDeclare(res consensus.Result, proj *Projector, votingClosed bool) bool {
	if res.Reached {
		return false
	}
	if votingClosed {
		return true
	}
	return proj != nil && proj.Stalled()
}
