package engine

import (
	"fmt"

	"github.com/praetor-ai/praetor/internal/consensus"
	"github.com/praetor-ai/praetor/internal/event"
	"github.com/praetor-ai/praetor/internal/model"
	"github.com/praetor-ai/praetor/internal/statemachine"
)

// EvidenceInput describes an evidence item before it has an identity.
// A negative Credibility means the submitter supplied no score and the
// neutral default applies.
type EvidenceInput struct {
	SourceType  model.SourceType
	Credibility float64
	Content     string
}

// SubmitAppeal challenges a resolved debate's verdict. Admission opens a
// revote: the debate moves to Appealed, prior votes are discarded, and
// participants vote again over the appellant's new evidence. At most one
// appeal per debate is ever processed.
func (e *Engine) SubmitAppeal(debateID, appellantID, justification string, newEvidence []EvidenceInput) (model.Appeal, error) {
	d, err := e.lookup(debateID)
	if err != nil {
		return model.Appeal{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.machine.State() != statemachine.StateResolved {
		return model.Appeal{}, phaseErr(d.machine.State())
	}
	if !d.isParticipant(appellantID) {
		return model.Appeal{}, fmt.Errorf("%w: %s", ErrNotParticipant, appellantID)
	}
	verdict, ok := d.latestVerdict()
	if !ok {
		return model.Appeal{}, fmt.Errorf("%w: %s", ErrNoVerdict, debateID)
	}

	now := e.now()
	items := make([]model.Evidence, 0, len(newEvidence))
	for _, in := range newEvidence {
		cred := in.Credibility
		if cred < 0 {
			cred = model.NeutralCredibility
		}
		ev, err := model.NewEvidence(in.SourceType, cred, in.Content, appellantID, now)
		if err != nil {
			return model.Appeal{}, err
		}
		items = append(items, ev)
	}

	ap, err := model.NewAppeal(d.id, appellantID, justification, items, now)
	if err != nil {
		return model.Appeal{}, err
	}
	if err := d.ledger.Admit(ap, verdict.CreatedAt, now); err != nil {
		return model.Appeal{}, err
	}
	if err := e.transitionLocked(d, statemachine.StateAppealed, "appeal admitted"); err != nil {
		return model.Appeal{}, err
	}

	// Fresh revote over the appeal's evidence.
	d.votes = make(map[string]model.Vote)

	e.log.WithDebate(d.id).WithParticipant(appellantID).Info("appeal admitted",
		"appeal", ap.ID,
		"new_evidence", len(items))
	e.bus.Publish(event.NewAppealEvent(d.id, ap.ID, appellantID, string(model.AppealPending)))
	e.writer.SaveAppeal(d.id, ap)
	return ap, nil
}

// CloseAppeal concludes the revote over the votes cast so far. The
// appeal is upheld only if the re-run of the debate's own algorithm
// reaches consensus on a different winning position; otherwise it is
// rejected and the original verdict stands. Either way the debate
// returns to Resolved and its reconsideration bound is spent.
func (e *Engine) CloseAppeal(debateID string) (model.Appeal, error) {
	d, err := e.lookup(debateID)
	if err != nil {
		return model.Appeal{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.machine.State() != statemachine.StateAppealed {
		return model.Appeal{}, phaseErr(d.machine.State())
	}
	return e.closeAppealLocked(d)
}

// closeAppealLocked evaluates the revote and concludes the admitted
// appeal. Caller holds d.mu and has verified the Appealed state.
func (e *Engine) closeAppealLocked(d *debate) (model.Appeal, error) {
	original, ok := d.latestVerdict()
	if !ok {
		return model.Appeal{}, fmt.Errorf("%w: %s", ErrNoVerdict, d.id)
	}

	res := consensus.Evaluate(d.cfg.Algorithm, e.consensusInputLocked(d, nil))
	outcome := model.AppealRejected
	if res.Reached && res.WinningPosition != original.WinningPosition {
		outcome = model.AppealUpheld
	}

	concluded, err := d.ledger.Conclude(outcome)
	if err != nil {
		return model.Appeal{}, err
	}

	if outcome == model.AppealUpheld {
		if err := e.resolveLocked(d, res, original.CreatedAt); err != nil {
			return model.Appeal{}, err
		}
	} else {
		if err := e.transitionLocked(d, statemachine.StateResolved, "appeal rejected, original verdict stands"); err != nil {
			return model.Appeal{}, err
		}
		e.archiveLocked(d)
	}
	e.log.WithDebate(d.id).Info("appeal concluded",
		"appeal", concluded.ID,
		"outcome", string(outcome))
	e.bus.Publish(event.NewAppealEvent(d.id, concluded.ID, concluded.AppellantID, string(outcome)))
	e.writer.SaveAppeal(d.id, concluded)
	return concluded, nil
}
