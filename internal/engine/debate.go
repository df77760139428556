package engine

import (
	"sync"
	"time"

	"github.com/praetor-ai/praetor/internal/appeal"
	"github.com/praetor-ai/praetor/internal/consensus"
	"github.com/praetor-ai/praetor/internal/deadlock"
	"github.com/praetor-ai/praetor/internal/event"
	"github.com/praetor-ai/praetor/internal/model"
	"github.com/praetor-ai/praetor/internal/persist"
	"github.com/praetor-ai/praetor/internal/statemachine"
	"github.com/praetor-ai/praetor/internal/turn"
)

// debate is one debate's in-memory handle. All fields below mu are
// guarded by it.
type debate struct {
	mu sync.Mutex

	id    string
	topic string
	cfg   DebateConfig

	machine  *statemachine.Machine
	sched    *turn.Scheduler
	proj     *deadlock.Projector
	resolver *deadlock.Resolver
	ledger   *appeal.Ledger

	participants []model.Participant
	trust        map[string]float64

	arguments []model.Argument
	evidence  map[string][]model.Evidence // argument ID -> items
	votes     map[string]model.Vote       // participant ID -> live vote
	verdicts  []model.Verdict

	mediatorID string

	timer *time.Timer
}

// isParticipant reports whether agentID is registered in the debate.
func (d *debate) isParticipant(agentID string) bool {
	_, ok := d.trust[agentID]
	return ok
}

// findArgument returns the argument with the given ID, if it belongs to
// this debate.
func (d *debate) findArgument(argumentID string) (model.Argument, bool) {
	for _, a := range d.arguments {
		if a.ID == argumentID {
			return a, true
		}
	}
	return model.Argument{}, false
}

// stopTimerLocked cancels any pending turn timer.
func (d *debate) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// bindStance maps an argument stance to an outcome position. Neutral
// arguments support no position.
func (d *debate) bindStance(s model.Stance) string {
	switch s {
	case model.StanceFor:
		return d.cfg.PositionFor
	case model.StanceAgainst:
		return d.cfg.PositionAgainst
	default:
		return ""
	}
}

// latestVerdict returns the authoritative verdict, if any.
func (d *debate) latestVerdict() (model.Verdict, bool) {
	if len(d.verdicts) == 0 {
		return model.Verdict{}, false
	}
	return d.verdicts[len(d.verdicts)-1], true
}

// transitionLocked applies one state transition, then publishes, logs,
// and persists it. Caller holds d.mu.
func (e *Engine) transitionLocked(d *debate, to statemachine.State, reason string) error {
	rec, err := d.machine.Transition(to, reason, e.now())
	if err != nil {
		return err
	}
	e.log.WithDebate(d.id).Info("state transition",
		"from", rec.From,
		"to", rec.To,
		"reason", reason,
		"round", d.sched.Round())
	e.bus.Publish(event.NewTransitionEvent(d.id, rec.From, rec.To, reason, d.sched.Round()))
	e.writer.AppendTransition(d.id, rec)
	return nil
}

// scheduleTurnLocked arms the turn timer for the current speaker. The
// timer captures the scheduler epoch; when it fires it re-acquires the
// debate lock and checks the epoch, so a turn that completed normally
// in the meantime is left alone.
func (e *Engine) scheduleTurnLocked(d *debate) {
	d.stopTimerLocked()
	cur := d.sched.Current()
	if cur == "" || d.cfg.TurnTimeout <= 0 {
		return
	}
	epoch := d.sched.Epoch()
	d.timer = time.AfterFunc(d.cfg.TurnTimeout, func() {
		e.onTurnTimeout(d, cur, epoch)
	})
}

// onTurnTimeout records a pass for a turn that expired.
func (e *Engine) onTurnTimeout(d *debate, participantID string, epoch uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state := d.machine.State()
	if state != statemachine.StateOpening && state != statemachine.StateDeliberating {
		return
	}
	if d.sched.Epoch() != epoch {
		return // turn already completed
	}
	if err := d.sched.RecordPass(participantID); err != nil {
		return
	}

	e.log.WithDebate(d.id).WithParticipant(participantID).Info("turn passed on timeout",
		"round", d.sched.Round())
	e.bus.Publish(event.NewTurnPassedEvent(d.id, participantID, d.sched.Round()))

	if d.sched.RoundComplete() {
		e.completeRoundLocked(d)
		return
	}
	e.scheduleTurnLocked(d)
}

// completeRoundLocked handles the end of a deliberation round: it
// advances the opening debate into deliberation, detects stalled or
// silent rounds, and otherwise starts the next round. Caller holds d.mu.
func (e *Engine) completeRoundLocked(d *debate) {
	round := d.sched.Round()
	marks := d.sched.Marks()

	if d.machine.State() == statemachine.StateOpening {
		if err := e.transitionLocked(d, statemachine.StateDeliberating, "opening round complete"); err != nil {
			return
		}
		if err := d.sched.NextRound(); err != nil {
			return
		}
		e.scheduleTurnLocked(d)
		return
	}

	allPassed := true
	for _, m := range marks {
		if m == turn.MarkSpoken {
			allPassed = false
			break
		}
	}
	if allPassed {
		// A full round of silence means nobody is advancing anything.
		e.declareDeadlockLocked(d, "no arguments submitted in round")
		return
	}

	strengths := e.agg.PositionStrengths(d.arguments, d.evidence, round, d.bindStance)
	leader := strongestPosition(strengths)
	d.proj.Observe(leader)

	if d.proj.Stalled() {
		d.stopTimerLocked()
		_ = e.transitionLocked(d, statemachine.StateVoting, "positions stabilized across rounds")
		return
	}
	if round >= d.cfg.MaxRounds {
		d.stopTimerLocked()
		_ = e.transitionLocked(d, statemachine.StateVoting, "maximum rounds reached")
		return
	}

	if err := d.sched.NextRound(); err != nil {
		return
	}
	e.scheduleTurnLocked(d)
}

// strongestPosition returns the position with the highest strength,
// name ordering breaking exact ties. Empty when there are no positions.
func strongestPosition(strengths map[string]float64) string {
	var best string
	var bestVal float64
	for pos, v := range strengths {
		if best == "" || v > bestVal || (v == bestVal && pos < best) {
			best, bestVal = pos, v
		}
	}
	return best
}

// consensusInputLocked assembles the evaluation input from the debate's
// live votes. Caller holds d.mu.
func (e *Engine) consensusInputLocked(d *debate, mediationWeights map[string]float64) consensus.Input {
	votes := make([]model.Vote, 0, len(d.votes))
	for _, v := range d.votes {
		votes = append(votes, v)
	}
	strengths := make(map[string]float64)
	for round := 1; round <= d.sched.Round(); round++ {
		// Latest round wins for a position seen in several rounds. A
		// position argued without any evidence keeps the evaluator's
		// neutral default instead of zeroing out its votes.
		for pos, s := range e.agg.PositionStrengths(d.arguments, d.evidence, round, d.bindStance) {
			if s > 0 {
				strengths[pos] = s
			}
		}
	}
	return consensus.Input{
		Votes:            votes,
		Registered:       len(d.participants),
		TrustWeights:     d.trust,
		Strengths:        strengths,
		MediationWeights: mediationWeights,
		QuorumFraction:   d.cfg.QuorumThreshold,
		Margin:           d.cfg.WeightedMargin,
	}
}

// closeVotingLocked evaluates consensus over the live votes and drives
// the resulting transition: a verdict on success, the deadlock ladder
// otherwise. Caller holds d.mu.
func (e *Engine) closeVotingLocked(d *debate) error {
	res := consensus.Evaluate(d.cfg.Algorithm, e.consensusInputLocked(d, nil))
	if res.Reached {
		if err := e.transitionLocked(d, statemachine.StateConsensusReached, "consensus reached"); err != nil {
			return err
		}
		return e.resolveLocked(d, res, time.Time{})
	}
	if deadlock.ShouldDeclare(res, d.proj, true) {
		e.declareDeadlockLocked(d, "voting closed without consensus")
	}
	return nil
}

// resolveLocked records a verdict and moves the debate to Resolved.
// supersedes is the creation time of the verdict being replaced, zero
// for an original verdict. Caller holds d.mu.
func (e *Engine) resolveLocked(d *debate, res consensus.Result, supersedes time.Time) error {
	v := model.Verdict{
		DebateID:        d.id,
		WinningPosition: res.WinningPosition,
		ConfidenceScore: res.ConfidenceScore,
		Dissenting:      res.Dissenting,
		AlgorithmUsed:   d.cfg.Algorithm.String(),
		ReachedAtRound:  d.sched.Round(),
		Supersedes:      supersedes,
		CreatedAt:       e.now(),
	}
	if err := e.transitionLocked(d, statemachine.StateResolved, "verdict recorded"); err != nil {
		return err
	}
	d.verdicts = append(d.verdicts, v)
	d.stopTimerLocked()

	e.log.WithDebate(d.id).Info("verdict recorded",
		"winning_position", v.WinningPosition,
		"confidence", v.ConfidenceScore,
		"algorithm", v.AlgorithmUsed,
		"superseding", !supersedes.IsZero())
	e.bus.Publish(event.NewVerdictEvent(d.id, v.WinningPosition, v.ConfidenceScore, v.AlgorithmUsed, !supersedes.IsZero()))
	e.writer.SaveVerdict(d.id, v)
	e.archiveLocked(d)
	return nil
}

// declareDeadlockLocked moves the debate to Deadlocked and immediately
// drives the next rung of the ladder: another mediation attempt if the
// budget allows and a mediator exists, human escalation otherwise.
// Caller holds d.mu.
func (e *Engine) declareDeadlockLocked(d *debate, reason string) {
	d.stopTimerLocked()
	if err := e.transitionLocked(d, statemachine.StateDeadlocked, reason); err != nil {
		return
	}
	e.bus.Publish(event.NewDeadlockEvent(d.id, d.sched.Round(), d.proj.Current()))

	mediator := d.resolver.SelectMediator(d.participants)
	if mediator == "" || !d.resolver.BeginAttempt() {
		e.escalateLocked(d)
		return
	}
	d.mediatorID = mediator
	if err := e.transitionLocked(d, statemachine.StateMediation, "mediation attempt started"); err != nil {
		return
	}
	e.log.WithDebate(d.id).Info("mediation started",
		"mediator", mediator,
		"attempt", d.resolver.Attempts())
	e.bus.Publish(event.NewMediationEvent(d.id, mediator, d.resolver.Attempts()))
}

// escalateLocked gives up on automated resolution. Caller holds d.mu.
func (e *Engine) escalateLocked(d *debate) {
	if err := e.transitionLocked(d, statemachine.StateEscalatedToHuman, "mediation exhausted"); err != nil {
		return
	}
	e.log.WithDebate(d.id).Warn("debate escalated to human operator",
		"round", d.sched.Round(),
		"mediation_attempts", d.resolver.Attempts())
	e.bus.Publish(event.NewEscalatedEvent(d.id, d.sched.Round(), d.resolver.Attempts()))
	e.archiveLocked(d)
}

// archiveLocked hands the full debate record to the async writer.
// Caller holds d.mu.
func (e *Engine) archiveLocked(d *debate) {
	rec := persist.DebateRecord{
		ID:           d.id,
		Topic:        d.topic,
		State:        d.machine.State().String(),
		Round:        d.sched.Round(),
		Algorithm:    d.cfg.Algorithm.String(),
		Participants: append([]model.Participant(nil), d.participants...),
		History:      d.machine.History(),
		Verdicts:     append([]model.Verdict(nil), d.verdicts...),
		ArchivedAt:   e.now(),
	}
	if ap, ok := d.ledger.Current(); ok {
		rec.Appeal = &ap
	}
	e.writer.ArchiveDebate(rec, nil)
}
