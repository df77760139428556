package engine

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/praetor-ai/praetor/internal/appeal"
	"github.com/praetor-ai/praetor/internal/consensus"
	"github.com/praetor-ai/praetor/internal/directory"
	"github.com/praetor-ai/praetor/internal/event"
	"github.com/praetor-ai/praetor/internal/model"
	"github.com/praetor-ai/praetor/internal/statemachine"
	"github.com/praetor-ai/praetor/internal/turn"
)

// eventRecorder collects published event types in order.
type eventRecorder struct {
	mu    sync.Mutex
	types []string
}

func (r *eventRecorder) record(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, e.EventType())
}

func (r *eventRecorder) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.types {
		if t == eventType {
			n++
		}
	}
	return n
}

func testDirectory() *directory.Static {
	return directory.NewStatic(map[string]directory.AgentInfo{
		"athena": {TrustWeight: 0.9, MediatorEligible: true},
		"bruno":  {TrustWeight: 0.8},
		"cato":   {TrustWeight: 0.7},
		"delia":  {TrustWeight: 0.6},
	})
}

// newTestEngine builds an engine with short deliberation (two rounds)
// and effectively disabled turn timers.
func newTestEngine(t *testing.T, mutate func(*DebateConfig), opts ...Option) *Engine {
	t.Helper()
	cfg := DefaultDebateConfig()
	cfg.MaxRounds = 2
	cfg.TurnTimeout = time.Hour
	if mutate != nil {
		mutate(&cfg)
	}
	opts = append([]Option{WithDirectory(testDirectory())}, opts...)
	e := New(cfg, opts...)
	t.Cleanup(e.Close)
	return e
}

// driveToVoting begins the debate and runs it through its deliberation
// rounds with unevidenced arguments, alternating stances.
func driveToVoting(t *testing.T, e *Engine, debateID string, agents []string) {
	t.Helper()
	if err := e.Begin(debateID); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	for round := 1; round <= 2; round++ {
		for i, agent := range agents {
			stance := model.StanceFor
			if i%2 == 1 {
				stance = model.StanceAgainst
			}
			claim := fmt.Sprintf("round %d position of %s", round, agent)
			if _, err := e.SubmitArgument(debateID, agent, stance, claim, ""); err != nil {
				t.Fatalf("SubmitArgument(%s, round %d) error = %v", agent, round, err)
			}
		}
	}
	snap, err := e.GetDebateState(debateID)
	if err != nil {
		t.Fatalf("GetDebateState() error = %v", err)
	}
	if snap.State != statemachine.StateVoting {
		t.Fatalf("state after deliberation = %s, want voting", snap.State)
	}
}

func TestInitiateDebateValidation(t *testing.T) {
	e := newTestEngine(t, nil)

	if _, err := e.InitiateDebate(InitiateRequest{Topic: "  ", Agents: []string{"athena", "bruno"}}); !errors.Is(err, model.ErrEmptyTopic) {
		t.Errorf("empty topic error = %v, want ErrEmptyTopic", err)
	}
	if _, err := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena"}}); !errors.Is(err, ErrNotEnoughParticipants) {
		t.Errorf("single agent error = %v, want ErrNotEnoughParticipants", err)
	}
	if _, err := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena", "athena"}}); !errors.Is(err, ErrDuplicateParticipant) {
		t.Errorf("duplicate agent error = %v, want ErrDuplicateParticipant", err)
	}
	if _, err := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena", "nobody"}}); !errors.Is(err, directory.ErrUnknownAgent) {
		t.Errorf("unknown agent error = %v, want ErrUnknownAgent", err)
	}
	if _, err := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena", "bruno"}, Algorithm: "coin-flip"}); err == nil {
		t.Error("unknown algorithm accepted, want error")
	}
}

func TestMajorityLifecycle(t *testing.T) {
	e := newTestEngine(t, nil)
	rec := &eventRecorder{}
	e.Bus().SubscribeAll(rec.record)

	id, err := e.InitiateDebate(InitiateRequest{Topic: "adopt rate limiting", Agents: []string{"athena", "bruno", "cato"}})
	if err != nil {
		t.Fatalf("InitiateDebate() error = %v", err)
	}
	driveToVoting(t, e, id, []string{"athena", "bruno", "cato"})

	if err := e.SubmitVote(id, "bruno", "adopt", 0.8, ""); err != nil {
		t.Fatalf("SubmitVote(bruno) error = %v", err)
	}
	if err := e.SubmitVote(id, "cato", "adopt", 0.7, ""); err != nil {
		t.Fatalf("SubmitVote(cato) error = %v", err)
	}
	// Third vote completes the count and closes voting automatically.
	if err := e.SubmitVote(id, "athena", "reject", 0.9, "insufficient evidence"); err != nil {
		t.Fatalf("SubmitVote(athena) error = %v", err)
	}

	snap, err := e.GetDebateState(id)
	if err != nil {
		t.Fatalf("GetDebateState() error = %v", err)
	}
	if snap.State != statemachine.StateResolved {
		t.Fatalf("state = %s, want resolved", snap.State)
	}

	v, err := e.GetVerdict(id)
	if err != nil {
		t.Fatalf("GetVerdict() error = %v", err)
	}
	if v.WinningPosition != "adopt" {
		t.Errorf("WinningPosition = %q, want adopt", v.WinningPosition)
	}
	if diff := v.ConfidenceScore - 2.0/3.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("ConfidenceScore = %v, want 2/3", v.ConfidenceScore)
	}
	if len(v.Dissenting) != 1 || v.Dissenting[0] != "athena" {
		t.Errorf("Dissenting = %v, want [athena]", v.Dissenting)
	}
	if v.AlgorithmUsed != "majority" {
		t.Errorf("AlgorithmUsed = %q, want majority", v.AlgorithmUsed)
	}
	if !v.Supersedes.IsZero() {
		t.Errorf("Supersedes = %v, want zero for original verdict", v.Supersedes)
	}

	// GetVerdict is idempotent.
	again, err := e.GetVerdict(id)
	if err != nil {
		t.Fatalf("second GetVerdict() error = %v", err)
	}
	if again.CreatedAt != v.CreatedAt || again.WinningPosition != v.WinningPosition {
		t.Error("repeated GetVerdict() returned a different verdict")
	}

	if rec.count("debate.verdict") != 1 {
		t.Errorf("verdict events = %d, want 1", rec.count("debate.verdict"))
	}
	if rec.count("debate.transition") == 0 {
		t.Error("no transition events published")
	}

	// History walks only legal edges.
	for _, tr := range snap.History {
		if !statemachine.CanTransition(statemachine.State(tr.From), statemachine.State(tr.To)) {
			t.Errorf("history contains illegal transition %s -> %s", tr.From, tr.To)
		}
	}
}

func TestUnanimousRequiresAllRegistered(t *testing.T) {
	e := newTestEngine(t, nil)
	id, err := e.InitiateDebate(InitiateRequest{
		Topic:     "switch to the new scheduler",
		Agents:    []string{"athena", "bruno", "cato"},
		Algorithm: "unanimous",
	})
	if err != nil {
		t.Fatalf("InitiateDebate() error = %v", err)
	}
	driveToVoting(t, e, id, []string{"athena", "bruno", "cato"})

	for _, agent := range []string{"athena", "bruno", "cato"} {
		if err := e.SubmitVote(id, agent, "switch", 0.9, ""); err != nil {
			t.Fatalf("SubmitVote(%s) error = %v", agent, err)
		}
	}

	v, err := e.GetVerdict(id)
	if err != nil {
		t.Fatalf("GetVerdict() error = %v", err)
	}
	if v.WinningPosition != "switch" || v.ConfidenceScore != 1.0 {
		t.Errorf("verdict = %q at %v, want switch at 1.0", v.WinningPosition, v.ConfidenceScore)
	}
	if len(v.Dissenting) != 0 {
		t.Errorf("Dissenting = %v, want empty", v.Dissenting)
	}
}

func TestVoteRejectionLeavesStateUnchanged(t *testing.T) {
	e := newTestEngine(t, nil)
	id, _ := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena", "bruno", "cato"}})

	// Voting before the voting phase is a phase error.
	if err := e.SubmitVote(id, "athena", "adopt", 0.5, ""); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("vote in proposed state error = %v, want ErrWrongPhase", err)
	}

	driveToVoting(t, e, id, []string{"athena", "bruno", "cato"})

	if err := e.SubmitVote(id, "athena", "adopt", 1.5, ""); !errors.Is(err, model.ErrInvalidConfidence) {
		t.Errorf("confidence 1.5 error = %v, want ErrInvalidConfidence", err)
	}
	if err := e.SubmitVote(id, "athena", "", 0.5, ""); !errors.Is(err, model.ErrEmptyPosition) {
		t.Errorf("empty position error = %v, want ErrEmptyPosition", err)
	}
	if err := e.SubmitVote(id, "outsider", "adopt", 0.5, ""); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("outsider vote error = %v, want ErrNotParticipant", err)
	}

	snap, _ := e.GetDebateState(id)
	if len(snap.Votes) != 0 {
		t.Errorf("rejected votes were recorded: %v", snap.Votes)
	}
	if snap.State != statemachine.StateVoting {
		t.Errorf("state = %s, want voting after rejected submissions", snap.State)
	}

	// Boundary confidences are accepted.
	if err := e.SubmitVote(id, "athena", "adopt", 0, ""); err != nil {
		t.Errorf("confidence 0 rejected: %v", err)
	}
	if err := e.SubmitVote(id, "bruno", "adopt", 1, ""); err != nil {
		t.Errorf("confidence 1 rejected: %v", err)
	}
}

func TestVoteOverwriteLastWins(t *testing.T) {
	e := newTestEngine(t, nil)
	id, _ := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena", "bruno", "cato"}})
	driveToVoting(t, e, id, []string{"athena", "bruno", "cato"})

	if err := e.SubmitVote(id, "bruno", "adopt", 0.9, ""); err != nil {
		t.Fatalf("SubmitVote() error = %v", err)
	}
	if err := e.SubmitVote(id, "bruno", "reject", 0.9, "changed my mind"); err != nil {
		t.Fatalf("overwriting SubmitVote() error = %v", err)
	}
	snap, _ := e.GetDebateState(id)
	if len(snap.Votes) != 1 {
		t.Fatalf("votes = %d, want 1 live vote after overwrite", len(snap.Votes))
	}
	if snap.Votes[0].Position != "reject" {
		t.Errorf("live vote position = %q, want reject", snap.Votes[0].Position)
	}

	e.SubmitVote(id, "cato", "reject", 0.8, "")
	e.SubmitVote(id, "athena", "adopt", 0.8, "")
	v, err := e.GetVerdict(id)
	if err != nil {
		t.Fatalf("GetVerdict() error = %v", err)
	}
	if v.WinningPosition != "reject" {
		t.Errorf("WinningPosition = %q, want reject from overwritten vote", v.WinningPosition)
	}
}

func TestTurnOrderEnforced(t *testing.T) {
	e := newTestEngine(t, nil)
	id, _ := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena", "bruno"}})
	if err := e.Begin(id); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if _, err := e.SubmitArgument(id, "bruno", model.StanceFor, "out of turn", ""); !errors.Is(err, turn.ErrNotCurrentTurn) {
		t.Errorf("out-of-turn error = %v, want ErrNotCurrentTurn", err)
	}
	if _, err := e.SubmitArgument(id, "athena", model.StanceFor, "opening", ""); err != nil {
		t.Fatalf("SubmitArgument(athena) error = %v", err)
	}
	// No participant speaks twice in a round before everyone has spoken.
	if _, err := e.SubmitArgument(id, "athena", model.StanceFor, "again", ""); !errors.Is(err, turn.ErrNotCurrentTurn) {
		t.Errorf("second turn in round error = %v, want ErrNotCurrentTurn", err)
	}
	if _, err := e.SubmitArgument(id, "outsider", model.StanceFor, "hi", ""); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("outsider argument error = %v, want ErrNotParticipant", err)
	}
}

func TestArgumentValidation(t *testing.T) {
	e := newTestEngine(t, func(cfg *DebateConfig) { cfg.MaxClaimLength = 24 })
	id, _ := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena", "bruno"}})
	e.Begin(id)

	if _, err := e.SubmitArgument(id, "athena", model.StanceFor, "   ", ""); !errors.Is(err, model.ErrEmptyClaim) {
		t.Errorf("empty claim error = %v, want ErrEmptyClaim", err)
	}
	if _, err := e.SubmitArgument(id, "athena", model.StanceFor, "this claim is far too long to accept", ""); !errors.Is(err, model.ErrClaimTooLong) {
		t.Errorf("long claim error = %v, want ErrClaimTooLong", err)
	}
	if _, err := e.SubmitArgument(id, "athena", model.Stance("maybe"), "short claim", ""); !errors.Is(err, model.ErrUnknownStance) {
		t.Errorf("bad stance error = %v, want ErrUnknownStance", err)
	}
	if _, err := e.SubmitArgument(id, "athena", model.StanceFor, "short claim", "no-such-argument"); !errors.Is(err, ErrArgumentNotFound) {
		t.Errorf("missing parent error = %v, want ErrArgumentNotFound", err)
	}
}

func TestRebuttalCannotCrossDebates(t *testing.T) {
	e := newTestEngine(t, nil)
	id1, _ := e.InitiateDebate(InitiateRequest{Topic: "first", Agents: []string{"athena", "bruno"}})
	id2, _ := e.InitiateDebate(InitiateRequest{Topic: "second", Agents: []string{"athena", "bruno"}})
	e.Begin(id1)
	e.Begin(id2)

	arg, err := e.SubmitArgument(id1, "athena", model.StanceFor, "claim in first debate", "")
	if err != nil {
		t.Fatalf("SubmitArgument() error = %v", err)
	}
	if _, err := e.SubmitArgument(id2, "athena", model.StanceAgainst, "rebuttal across debates", arg.ID); !errors.Is(err, ErrArgumentNotFound) {
		t.Errorf("cross-debate rebuttal error = %v, want ErrArgumentNotFound", err)
	}
}

func TestEvidenceDefaultsAndPhase(t *testing.T) {
	e := newTestEngine(t, nil)
	id, _ := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena", "bruno"}})
	e.Begin(id)

	arg, err := e.SubmitArgument(id, "athena", model.StanceFor, "claim", "")
	if err != nil {
		t.Fatalf("SubmitArgument() error = %v", err)
	}

	// Negative credibility means unset: the neutral default applies.
	ev, err := e.SubmitEvidence(id, arg.ID, "bruno", model.SourceEmpirical, -1, "benchmark results")
	if err != nil {
		t.Fatalf("SubmitEvidence() error = %v", err)
	}
	if ev.CredibilityScore != model.NeutralCredibility {
		t.Errorf("CredibilityScore = %v, want neutral %v", ev.CredibilityScore, model.NeutralCredibility)
	}

	if _, err := e.SubmitEvidence(id, "no-such-argument", "bruno", model.SourceCitation, 0.9, "x"); !errors.Is(err, ErrArgumentNotFound) {
		t.Errorf("unknown argument error = %v, want ErrArgumentNotFound", err)
	}
	if _, err := e.SubmitEvidence(id, arg.ID, "bruno", model.SourceType("rumor"), 0.9, "x"); !errors.Is(err, model.ErrUnknownSourceType) {
		t.Errorf("bad source type error = %v, want ErrUnknownSourceType", err)
	}
	if _, err := e.SubmitEvidence(id, arg.ID, "outsider", model.SourceCitation, 0.9, "x"); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("outsider evidence error = %v, want ErrNotParticipant", err)
	}

	snap, _ := e.GetDebateState(id)
	if len(snap.Arguments) != 1 || len(snap.Arguments[0].EvidenceIDs) != 1 {
		t.Errorf("argument evidence links = %+v, want one attached item", snap.Arguments)
	}
}

func TestStalledProjectionMovesToVoting(t *testing.T) {
	e := newTestEngine(t, func(cfg *DebateConfig) { cfg.MaxRounds = 5 })
	id, _ := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena", "bruno"}})
	e.Begin(id)

	// Opening round.
	e.SubmitArgument(id, "athena", model.StanceFor, "opening for", "")
	e.SubmitArgument(id, "bruno", model.StanceAgainst, "opening against", "")

	// Two deliberation rounds with the same evidence leader stall the
	// projection before MaxRounds.
	for round := 2; round <= 3; round++ {
		arg, err := e.SubmitArgument(id, "athena", model.StanceFor, fmt.Sprintf("round %d evidence-backed", round), "")
		if err != nil {
			t.Fatalf("SubmitArgument(athena) error = %v", err)
		}
		if _, err := e.SubmitEvidence(id, arg.ID, "athena", model.SourceCitation, 0.9, "rfc reference"); err != nil {
			t.Fatalf("SubmitEvidence() error = %v", err)
		}
		if _, err := e.SubmitArgument(id, "bruno", model.StanceAgainst, fmt.Sprintf("round %d unevidenced", round), ""); err != nil {
			t.Fatalf("SubmitArgument(bruno) error = %v", err)
		}
	}

	snap, _ := e.GetDebateState(id)
	if snap.State != statemachine.StateVoting {
		t.Errorf("state = %s, want voting after stalled projection", snap.State)
	}
	if snap.Round != 3 {
		t.Errorf("round = %d, want 3 (before MaxRounds)", snap.Round)
	}
}

func TestTurnTimeoutsPassAndSilenceEscalates(t *testing.T) {
	e := newTestEngine(t, func(cfg *DebateConfig) { cfg.TurnTimeout = 20 * time.Millisecond })
	rec := &eventRecorder{}
	e.Bus().SubscribeAll(rec.record)

	// Neither participant is mediator-eligible, so a silent deadlock
	// escalates straight to a human.
	id, _ := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"bruno", "cato"}})
	if err := e.Begin(id); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		snap, err := e.GetDebateState(id)
		if err != nil {
			t.Fatalf("GetDebateState() error = %v", err)
		}
		if snap.State == statemachine.StateEscalatedToHuman {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("state = %s, debate never escalated", snap.State)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Two participants, two fully passed rounds.
	if got := rec.count("debate.turn_passed"); got != 4 {
		t.Errorf("turn_passed events = %d, want 4", got)
	}
	if rec.count("debate.escalated") != 1 {
		t.Errorf("escalated events = %d, want 1", rec.count("debate.escalated"))
	}

	// The escalated debate accepts nothing further.
	if err := e.SubmitVote(id, "bruno", "adopt", 0.5, ""); !errors.Is(err, ErrDebateTerminal) {
		t.Errorf("vote after escalation error = %v, want ErrDebateTerminal", err)
	}
}

func TestWeightedDeadlockResolvedByMediation(t *testing.T) {
	e := newTestEngine(t, nil)
	rec := &eventRecorder{}
	e.Bus().SubscribeAll(rec.record)

	id, err := e.InitiateDebate(InitiateRequest{
		Topic:     "migrate storage backend",
		Agents:    []string{"athena", "bruno", "cato"},
		Algorithm: "weighted",
	})
	if err != nil {
		t.Fatalf("InitiateDebate() error = %v", err)
	}
	driveToVoting(t, e, id, []string{"athena", "bruno", "cato"})

	// Totals land inside the margin: deadlock.
	e.SubmitVote(id, "bruno", "migrate", 0.9, "")
	e.SubmitVote(id, "cato", "stay", 0.9, "")
	if err := e.SubmitVote(id, "athena", "stay", 0.05, ""); err != nil {
		t.Fatalf("final vote error = %v", err)
	}

	snap, _ := e.GetDebateState(id)
	if snap.State != statemachine.StateMediation {
		t.Fatalf("state = %s, want mediation after deadlocked voting", snap.State)
	}
	if snap.MediatorID != "athena" {
		t.Errorf("MediatorID = %q, want athena (only eligible participant)", snap.MediatorID)
	}
	if rec.count("debate.deadlocked") != 1 || rec.count("debate.mediation") != 1 {
		t.Errorf("deadlock/mediation events = %d/%d, want 1/1",
			rec.count("debate.deadlocked"), rec.count("debate.mediation"))
	}

	if err := e.SubmitMediationVote(id, "bruno", "stay", 0.5, ""); !errors.Is(err, ErrNotMediator) {
		t.Errorf("non-mediator mediation vote error = %v, want ErrNotMediator", err)
	}

	// The mediator's weighted vote clears the margin.
	if err := e.SubmitMediationVote(id, "athena", "stay", 0.5, "tie-break"); err != nil {
		t.Fatalf("SubmitMediationVote() error = %v", err)
	}

	v, err := e.GetVerdict(id)
	if err != nil {
		t.Fatalf("GetVerdict() error = %v", err)
	}
	if v.WinningPosition != "stay" {
		t.Errorf("WinningPosition = %q, want stay", v.WinningPosition)
	}
	if v.AlgorithmUsed != "weighted" {
		t.Errorf("AlgorithmUsed = %q, want weighted", v.AlgorithmUsed)
	}
}

func TestMediationExhaustionEscalates(t *testing.T) {
	e := newTestEngine(t, nil)
	rec := &eventRecorder{}
	e.Bus().SubscribeAll(rec.record)

	id, _ := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena", "bruno", "cato", "delia"}})
	driveToVoting(t, e, id, []string{"athena", "bruno", "cato", "delia"})

	// An even split has no strict majority.
	e.SubmitVote(id, "athena", "adopt", 0.9, "")
	e.SubmitVote(id, "bruno", "adopt", 0.9, "")
	e.SubmitVote(id, "cato", "reject", 0.9, "")
	if err := e.SubmitVote(id, "delia", "reject", 0.9, ""); err != nil {
		t.Fatalf("final vote error = %v", err)
	}

	snap, _ := e.GetDebateState(id)
	if snap.State != statemachine.StateMediation {
		t.Fatalf("state = %s, want mediation", snap.State)
	}

	// Under majority the mediator's weight buys nothing, so each attempt
	// leaves the split intact until the budget is spent.
	if err := e.SubmitMediationVote(id, "athena", "adopt", 1, ""); err != nil {
		t.Fatalf("first mediation vote error = %v", err)
	}
	snap, _ = e.GetDebateState(id)
	if snap.State != statemachine.StateMediation {
		t.Fatalf("state after failed attempt = %s, want second mediation", snap.State)
	}
	if snap.MediationAttempts != 2 {
		t.Errorf("MediationAttempts = %d, want 2", snap.MediationAttempts)
	}

	if err := e.SubmitMediationVote(id, "athena", "adopt", 1, ""); err != nil {
		t.Fatalf("second mediation vote error = %v", err)
	}
	snap, _ = e.GetDebateState(id)
	if snap.State != statemachine.StateEscalatedToHuman {
		t.Fatalf("state after exhausted mediation = %s, want escalated_to_human", snap.State)
	}

	if rec.count("debate.deadlocked") != 3 {
		t.Errorf("deadlock events = %d, want 3", rec.count("debate.deadlocked"))
	}
	if rec.count("debate.mediation") != 2 {
		t.Errorf("mediation events = %d, want 2", rec.count("debate.mediation"))
	}
	if rec.count("debate.escalated") != 1 {
		t.Errorf("escalated events = %d, want 1", rec.count("debate.escalated"))
	}
	if _, err := e.GetVerdict(id); !errors.Is(err, ErrNoVerdict) {
		t.Errorf("GetVerdict() after escalation error = %v, want ErrNoVerdict", err)
	}
}

// resolveMajority drives a fresh debate to a 2-1 "adopt" verdict.
func resolveMajority(t *testing.T, e *Engine) string {
	t.Helper()
	id, err := e.InitiateDebate(InitiateRequest{Topic: "adopt proposal", Agents: []string{"athena", "bruno", "cato"}})
	if err != nil {
		t.Fatalf("InitiateDebate() error = %v", err)
	}
	driveToVoting(t, e, id, []string{"athena", "bruno", "cato"})
	e.SubmitVote(id, "bruno", "adopt", 0.8, "")
	e.SubmitVote(id, "cato", "adopt", 0.7, "")
	if err := e.SubmitVote(id, "athena", "reject", 0.9, ""); err != nil {
		t.Fatalf("final vote error = %v", err)
	}
	snap, _ := e.GetDebateState(id)
	if snap.State != statemachine.StateResolved {
		t.Fatalf("state = %s, want resolved", snap.State)
	}
	return id
}

func TestAppealUpheldSupersedesVerdict(t *testing.T) {
	e := newTestEngine(t, nil)
	id := resolveMajority(t, e)
	original, _ := e.GetVerdict(id)

	ap, err := e.SubmitAppeal(id, "athena", "key benchmark was misread", []EvidenceInput{
		{SourceType: model.SourceEmpirical, Credibility: 0.9, Content: "corrected benchmark run"},
	})
	if err != nil {
		t.Fatalf("SubmitAppeal() error = %v", err)
	}
	if ap.Outcome != model.AppealPending {
		t.Errorf("appeal outcome = %s, want pending", ap.Outcome)
	}

	snap, _ := e.GetDebateState(id)
	if snap.State != statemachine.StateAppealed {
		t.Fatalf("state = %s, want appealed", snap.State)
	}
	if len(snap.Votes) != 0 {
		t.Errorf("votes after appeal admission = %d, want 0 (fresh revote)", len(snap.Votes))
	}

	// A debate under appeal cannot be cancelled.
	if err := e.CancelDebate(id, "never mind"); err == nil {
		t.Error("CancelDebate() during appeal succeeded, want error")
	}

	// The corrected evidence flips the revote.
	e.SubmitVote(id, "athena", "reject", 0.9, "")
	e.SubmitVote(id, "bruno", "reject", 0.8, "convinced by new data")
	if err := e.SubmitVote(id, "cato", "reject", 0.7, ""); err != nil {
		t.Fatalf("final revote error = %v", err)
	}

	snap, _ = e.GetDebateState(id)
	if snap.State != statemachine.StateResolved {
		t.Fatalf("state after revote = %s, want resolved", snap.State)
	}
	v, err := e.GetVerdict(id)
	if err != nil {
		t.Fatalf("GetVerdict() error = %v", err)
	}
	if v.WinningPosition != "reject" {
		t.Errorf("WinningPosition = %q, want reject after upheld appeal", v.WinningPosition)
	}
	if v.Supersedes != original.CreatedAt {
		t.Errorf("Supersedes = %v, want original CreatedAt %v", v.Supersedes, original.CreatedAt)
	}
	if len(snap.Verdicts) != 2 {
		t.Errorf("verdicts = %d, want original plus superseding", len(snap.Verdicts))
	}

	// The per-debate bound is spent: no second appeal, ever.
	if _, err := e.SubmitAppeal(id, "bruno", "a different complaint entirely", nil); !errors.Is(err, appeal.ErrDuplicateAppeal) {
		t.Errorf("second appeal error = %v, want ErrDuplicateAppeal", err)
	}
}

func TestAppealRejectedOriginalStands(t *testing.T) {
	e := newTestEngine(t, nil)
	id := resolveMajority(t, e)
	original, _ := e.GetVerdict(id)

	if _, err := e.SubmitAppeal(id, "athena", "the vote was rushed", nil); err != nil {
		t.Fatalf("SubmitAppeal() error = %v", err)
	}

	// The revote reproduces the original outcome.
	e.SubmitVote(id, "bruno", "adopt", 0.8, "")
	e.SubmitVote(id, "cato", "adopt", 0.7, "")
	if err := e.SubmitVote(id, "athena", "reject", 0.9, ""); err != nil {
		t.Fatalf("final revote error = %v", err)
	}

	snap, _ := e.GetDebateState(id)
	if snap.State != statemachine.StateResolved {
		t.Fatalf("state = %s, want resolved", snap.State)
	}
	if len(snap.Verdicts) != 1 {
		t.Errorf("verdicts = %d, want just the original", len(snap.Verdicts))
	}
	v, _ := e.GetVerdict(id)
	if v.WinningPosition != original.WinningPosition || v.CreatedAt != original.CreatedAt {
		t.Error("rejected appeal changed the authoritative verdict")
	}
}

func TestAppealNonParticipantAndWrongPhase(t *testing.T) {
	e := newTestEngine(t, nil)
	id, _ := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena", "bruno", "cato"}})

	if _, err := e.SubmitAppeal(id, "athena", "premature", nil); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("appeal before resolution error = %v, want ErrWrongPhase", err)
	}

	id2 := resolveMajority(t, e)
	if _, err := e.SubmitAppeal(id2, "outsider", "not my debate", nil); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("outsider appeal error = %v, want ErrNotParticipant", err)
	}
	if _, err := e.SubmitAppeal(id2, "athena", "   ", nil); !errors.Is(err, model.ErrEmptyJustification) {
		t.Errorf("empty justification error = %v, want ErrEmptyJustification", err)
	}
}

func TestAppealWindowExpires(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	e := newTestEngine(t, nil, WithClock(clock))
	id := resolveMajority(t, e)

	now = now.Add(25 * time.Hour)
	if _, err := e.SubmitAppeal(id, "athena", "too late", nil); !errors.Is(err, appeal.ErrAppealWindowExpired) {
		t.Errorf("late appeal error = %v, want ErrAppealWindowExpired", err)
	}
}

func TestCancelDebate(t *testing.T) {
	e := newTestEngine(t, nil)

	// Cancellable straight from Proposed.
	id, _ := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena", "bruno"}})
	if err := e.CancelDebate(id, "superseded by another decision"); err != nil {
		t.Fatalf("CancelDebate() error = %v", err)
	}
	snap, _ := e.GetDebateState(id)
	if snap.State != statemachine.StateCancelled {
		t.Errorf("state = %s, want cancelled", snap.State)
	}
	if err := e.SubmitVote(id, "athena", "adopt", 0.5, ""); !errors.Is(err, ErrDebateTerminal) {
		t.Errorf("vote after cancel error = %v, want ErrDebateTerminal", err)
	}
	if err := e.CancelDebate(id, "again"); err == nil {
		t.Error("double cancel succeeded, want error")
	}

	// Cancellable mid-voting.
	id2, _ := e.InitiateDebate(InitiateRequest{Topic: "t2", Agents: []string{"athena", "bruno", "cato"}})
	driveToVoting(t, e, id2, []string{"athena", "bruno", "cato"})
	if err := e.CancelDebate(id2, ""); err != nil {
		t.Errorf("CancelDebate() in voting error = %v", err)
	}

	// Resolved debates cannot be cancelled.
	id3 := resolveMajority(t, e)
	if err := e.CancelDebate(id3, ""); err == nil {
		t.Error("CancelDebate() after resolution succeeded, want error")
	}
}

func TestUnknownDebateID(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.Begin("ghost"); !errors.Is(err, ErrDebateNotFound) {
		t.Errorf("Begin(ghost) error = %v, want ErrDebateNotFound", err)
	}
	if _, err := e.GetDebateState("ghost"); !errors.Is(err, ErrDebateNotFound) {
		t.Errorf("GetDebateState(ghost) error = %v, want ErrDebateNotFound", err)
	}
	if _, err := e.GetVerdict("ghost"); !errors.Is(err, ErrDebateNotFound) {
		t.Errorf("GetVerdict(ghost) error = %v, want ErrDebateNotFound", err)
	}
}

func TestGetVerdictBeforeResolution(t *testing.T) {
	e := newTestEngine(t, nil)
	id, _ := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena", "bruno"}})
	if _, err := e.GetVerdict(id); !errors.Is(err, ErrNoVerdict) {
		t.Errorf("GetVerdict() error = %v, want ErrNoVerdict", err)
	}
}

func TestCloseVotingForcesPartialCount(t *testing.T) {
	e := newTestEngine(t, nil)
	id, _ := e.InitiateDebate(InitiateRequest{Topic: "t", Agents: []string{"athena", "bruno", "cato"}})
	driveToVoting(t, e, id, []string{"athena", "bruno", "cato"})

	e.SubmitVote(id, "athena", "adopt", 0.9, "")
	if err := e.SubmitVote(id, "bruno", "adopt", 0.8, ""); err != nil {
		t.Fatalf("SubmitVote() error = %v", err)
	}
	// cato never votes; the caller closes anyway. Two of two cast votes
	// agree, a strict majority.
	if err := e.CloseVoting(id); err != nil {
		t.Fatalf("CloseVoting() error = %v", err)
	}
	v, err := e.GetVerdict(id)
	if err != nil {
		t.Fatalf("GetVerdict() error = %v", err)
	}
	if v.WinningPosition != "adopt" || v.ConfidenceScore != 1.0 {
		t.Errorf("verdict = %q at %v, want adopt at 1.0 of cast votes", v.WinningPosition, v.ConfidenceScore)
	}

	if err := e.CloseVoting(id); !errors.Is(err, ErrDebateTerminal) {
		t.Errorf("CloseVoting() after resolution error = %v, want ErrDebateTerminal", err)
	}
}

func TestConcurrentDebatesAreIndependent(t *testing.T) {
	e := newTestEngine(t, nil)
	const n = 8
	ids := make([]string, n)
	for i := range ids {
		id, err := e.InitiateDebate(InitiateRequest{
			Topic:  fmt.Sprintf("topic %d", i),
			Agents: []string{"athena", "bruno", "cato"},
		})
		if err != nil {
			t.Fatalf("InitiateDebate(%d) error = %v", i, err)
		}
		ids[i] = id
	}

	agents := []string{"athena", "bruno", "cato"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			// Errors here surface through the verdict checks below.
			e.Begin(id)
			for round := 1; round <= 2; round++ {
				for i, agent := range agents {
					stance := model.StanceFor
					if i%2 == 1 {
						stance = model.StanceAgainst
					}
					e.SubmitArgument(id, agent, stance, fmt.Sprintf("round %d by %s", round, agent), "")
				}
			}
			e.SubmitVote(id, "bruno", "adopt", 0.8, "")
			e.SubmitVote(id, "cato", "adopt", 0.7, "")
			e.SubmitVote(id, "athena", "reject", 0.9, "")
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		v, err := e.GetVerdict(id)
		if err != nil {
			t.Errorf("GetVerdict(%s) error = %v", id, err)
			continue
		}
		if v.WinningPosition != "adopt" {
			t.Errorf("debate %s verdict = %q, want adopt", id, v.WinningPosition)
		}
	}
}

func TestDefaultsFrom(t *testing.T) {
	cfg := DefaultDebateConfig()
	if cfg.Algorithm != consensus.Majority {
		t.Errorf("default algorithm = %s, want majority", cfg.Algorithm)
	}
	if cfg.PositionFor != "for" || cfg.PositionAgainst != "against" {
		t.Errorf("default positions = %q/%q, want for/against", cfg.PositionFor, cfg.PositionAgainst)
	}
}
