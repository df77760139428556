package engine

import (
	"fmt"
	"time"

	"github.com/praetor-ai/praetor/internal/consensus"
	"github.com/praetor-ai/praetor/internal/model"
	"github.com/praetor-ai/praetor/internal/statemachine"
	"github.com/praetor-ai/praetor/internal/turn"
)

// phaseErr wraps ErrDebateTerminal or ErrWrongPhase with the current
// state for the caller's error message.
func phaseErr(state statemachine.State) error {
	if state.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrDebateTerminal, state)
	}
	return fmt.Errorf("%w: %s", ErrWrongPhase, state)
}

// SubmitArgument accepts an argument from the participant holding the
// current turn. A rebuttal names its target through parentID, which must
// be an argument of the same debate.
func (e *Engine) SubmitArgument(debateID, participantID string, stance model.Stance, claim, parentID string) (model.Argument, error) {
	d, err := e.lookup(debateID)
	if err != nil {
		return model.Argument{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	state := d.machine.State()
	if state != statemachine.StateOpening && state != statemachine.StateDeliberating {
		return model.Argument{}, phaseErr(state)
	}
	if !d.isParticipant(participantID) {
		return model.Argument{}, fmt.Errorf("%w: %s", ErrNotParticipant, participantID)
	}
	if cur := d.sched.Current(); cur != participantID {
		return model.Argument{}, fmt.Errorf("%w: current is %q", turn.ErrNotCurrentTurn, cur)
	}
	if parentID != "" {
		if _, ok := d.findArgument(parentID); !ok {
			return model.Argument{}, fmt.Errorf("%w: parent %s", ErrArgumentNotFound, parentID)
		}
	}

	arg, err := model.NewArgument(d.id, participantID, d.sched.Round(), stance, claim, parentID, d.cfg.MaxClaimLength, e.now())
	if err != nil {
		return model.Argument{}, err
	}
	if err := d.sched.RecordSpoken(participantID); err != nil {
		return model.Argument{}, err
	}
	d.arguments = append(d.arguments, arg)

	e.log.WithDebate(d.id).WithParticipant(participantID).Debug("argument accepted",
		"argument", arg.ID,
		"stance", arg.Stance.String(),
		"round", arg.Round,
		"rebuttal", parentID != "")

	if d.sched.RoundComplete() {
		e.completeRoundLocked(d)
	} else {
		e.scheduleTurnLocked(d)
	}
	return arg, nil
}

// SubmitEvidence attaches an evidence item to an argument of the same
// debate. A negative credibility means the submitter supplied no score
// and the neutral default applies.
func (e *Engine) SubmitEvidence(debateID, argumentID, submitterID string, sourceType model.SourceType, credibility float64, content string) (model.Evidence, error) {
	d, err := e.lookup(debateID)
	if err != nil {
		return model.Evidence{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.machine.State() {
	case statemachine.StateOpening, statemachine.StateDeliberating, statemachine.StateMediation, statemachine.StateAppealed:
	default:
		return model.Evidence{}, phaseErr(d.machine.State())
	}
	if !d.isParticipant(submitterID) {
		return model.Evidence{}, fmt.Errorf("%w: %s", ErrNotParticipant, submitterID)
	}
	idx := -1
	for i := range d.arguments {
		if d.arguments[i].ID == argumentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Evidence{}, fmt.Errorf("%w: %s", ErrArgumentNotFound, argumentID)
	}

	if credibility < 0 {
		credibility = model.NeutralCredibility
	}
	ev, err := model.NewEvidence(sourceType, credibility, content, submitterID, e.now())
	if err != nil {
		return model.Evidence{}, err
	}
	d.evidence[argumentID] = append(d.evidence[argumentID], ev)
	d.arguments[idx].EvidenceIDs = append(d.arguments[idx].EvidenceIDs, ev.ID)

	e.log.WithDebate(d.id).WithParticipant(submitterID).Debug("evidence accepted",
		"argument", argumentID,
		"source_type", sourceType.String(),
		"credibility", ev.CredibilityScore)
	return ev, nil
}

// SubmitVote records a participant's live vote. Resubmission before the
// phase closes overwrites the prior vote. When every registered
// participant has voted, the phase closes automatically.
func (e *Engine) SubmitVote(debateID, participantID, position string, confidence float64, rationale string) error {
	d, err := e.lookup(debateID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	state := d.machine.State()
	switch state {
	case statemachine.StateVoting, statemachine.StateMediation, statemachine.StateAppealed:
	default:
		return phaseErr(state)
	}
	if !d.isParticipant(participantID) {
		return fmt.Errorf("%w: %s", ErrNotParticipant, participantID)
	}

	v, err := model.NewVote(participantID, position, confidence, rationale, e.now())
	if err != nil {
		return err
	}
	d.votes[participantID] = v

	e.log.WithDebate(d.id).WithParticipant(participantID).Debug("vote recorded",
		"position", position,
		"confidence", confidence,
		"phase", state.String())

	if len(d.votes) == len(d.participants) {
		switch state {
		case statemachine.StateVoting:
			return e.closeVotingLocked(d)
		case statemachine.StateAppealed:
			_, err := e.closeAppealLocked(d)
			return err
		}
	}
	return nil
}

// SubmitMediationVote records the mediator's weighted vote and
// re-evaluates consensus. Success resolves the debate; failure consumes
// the mediation attempt and either starts another or escalates.
func (e *Engine) SubmitMediationVote(debateID, mediatorID, position string, confidence float64, rationale string) error {
	d, err := e.lookup(debateID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.machine.State() != statemachine.StateMediation {
		return phaseErr(d.machine.State())
	}
	if mediatorID != d.mediatorID {
		return fmt.Errorf("%w: mediator is %q", ErrNotMediator, d.mediatorID)
	}

	v, err := model.NewVote(mediatorID, position, confidence, rationale, e.now())
	if err != nil {
		return err
	}
	d.votes[mediatorID] = v

	weights := map[string]float64{mediatorID: d.resolver.MediationWeight()}
	res := consensus.Evaluate(d.cfg.Algorithm, e.consensusInputLocked(d, weights))
	if res.Reached {
		if err := e.transitionLocked(d, statemachine.StateConsensusReached, "consensus reached under mediation"); err != nil {
			return err
		}
		return e.resolveLocked(d, res, time.Time{})
	}
	e.declareDeadlockLocked(d, "mediation attempt failed")
	return nil
}

// CloseVoting force-closes the voting phase over the votes cast so far.
// Callers use it when a laggard participant should not hold up the
// debate; the automatic close on a full vote count makes it optional.
func (e *Engine) CloseVoting(debateID string) error {
	d, err := e.lookup(debateID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.machine.State() != statemachine.StateVoting {
		return phaseErr(d.machine.State())
	}
	return e.closeVotingLocked(d)
}
