package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praetor-ai/praetor/internal/appeal"
	"github.com/praetor-ai/praetor/internal/config"
	"github.com/praetor-ai/praetor/internal/consensus"
	"github.com/praetor-ai/praetor/internal/deadlock"
	"github.com/praetor-ai/praetor/internal/directory"
	"github.com/praetor-ai/praetor/internal/event"
	"github.com/praetor-ai/praetor/internal/evidence"
	"github.com/praetor-ai/praetor/internal/logging"
	"github.com/praetor-ai/praetor/internal/model"
	"github.com/praetor-ai/praetor/internal/persist"
	"github.com/praetor-ai/praetor/internal/statemachine"
	"github.com/praetor-ai/praetor/internal/turn"
)

// DebateConfig is the resolved per-debate configuration. Each debate
// copies it at initiation, so later changes to engine defaults never
// affect a debate in flight.
type DebateConfig struct {
	Algorithm            consensus.Algorithm
	QuorumThreshold      float64
	WeightedMargin       float64
	MaxRounds            int
	TurnTimeout          time.Duration
	MaxMediationAttempts int
	AppealWindow         time.Duration
	MaxClaimLength       int

	// PositionFor and PositionAgainst bind argument stances to outcome
	// positions for evidence-strength projection.
	PositionFor     string
	PositionAgainst string

	// MediationTieBreaker optionally names an agent that wins mediator
	// selection when registered in the debate.
	MediationTieBreaker string
}

// DefaultDebateConfig returns the built-in per-debate defaults.
func DefaultDebateConfig() DebateConfig {
	return DebateConfig{
		Algorithm:            consensus.Majority,
		QuorumThreshold:      consensus.DefaultQuorumFraction,
		WeightedMargin:       consensus.DefaultWeightedMargin,
		MaxRounds:            5,
		TurnTimeout:          30 * time.Second,
		MaxMediationAttempts: deadlock.DefaultMaxMediationAttempts,
		AppealWindow:         appeal.DefaultWindow,
		MaxClaimLength:       model.DefaultMaxClaimLength,
		PositionFor:          "for",
		PositionAgainst:      "against",
	}
}

// DefaultsFrom maps loaded configuration onto a DebateConfig.
func DefaultsFrom(cfg config.DebateConfig) (DebateConfig, error) {
	alg, err := consensus.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return DebateConfig{}, err
	}
	d := DefaultDebateConfig()
	d.Algorithm = alg
	d.QuorumThreshold = cfg.QuorumThreshold
	d.WeightedMargin = cfg.WeightedMargin
	d.MaxRounds = cfg.MaxRounds
	d.TurnTimeout = cfg.TurnTimeout()
	d.MaxMediationAttempts = cfg.MaxMediationAttempts
	d.AppealWindow = cfg.AppealWindow()
	d.MaxClaimLength = cfg.MaxClaimLength
	return d, nil
}

// Engine is the deliberation engine. Safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	debates  map[string]*debate
	defaults DebateConfig

	dir    directory.Directory
	bus    *event.Bus
	writer *persist.Writer
	log    *logging.Logger
	agg    *evidence.Aggregator
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithDirectory sets the participant directory consulted at initiation.
func WithDirectory(d directory.Directory) Option {
	return func(e *Engine) { e.dir = d }
}

// WithBus sets the event bus transitions and verdicts are published on.
func WithBus(b *event.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

// WithWriter sets the asynchronous persistence writer.
func WithWriter(w *persist.Writer) Option {
	return func(e *Engine) { e.writer = w }
}

// WithLogger sets the structured logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithAggregator overrides the evidence aggregator, for tuned source
// weights.
func WithAggregator(a *evidence.Aggregator) Option {
	return func(e *Engine) { e.agg = a }
}

// WithClock overrides the time source. Tests use this to exercise the
// appeal window without sleeping.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine with the given per-debate defaults.
func New(defaults DebateConfig, opts ...Option) *Engine {
	e := &Engine{
		debates:  make(map[string]*debate),
		defaults: defaults,
		bus:      event.NewBus(),
		writer:   persist.NewWriter(nil, nil),
		log:      logging.Nop(),
		agg:      evidence.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bus returns the engine's event bus for subscriber registration.
func (e *Engine) Bus() *event.Bus {
	return e.bus
}

// InitiateRequest describes a new debate.
type InitiateRequest struct {
	Topic  string
	Agents []string

	// Algorithm optionally overrides the engine default for this debate.
	Algorithm string
}

// InitiateDebate registers a new debate in the Proposed state and
// returns its ID. Participants are resolved through the directory;
// an unknown agent fails the whole initiation.
func (e *Engine) InitiateDebate(req InitiateRequest) (string, error) {
	if err := model.ValidateTopic(req.Topic); err != nil {
		return "", err
	}
	if len(req.Agents) < 2 {
		return "", fmt.Errorf("%w: got %d", ErrNotEnoughParticipants, len(req.Agents))
	}

	cfg := e.defaults
	if req.Algorithm != "" {
		alg, err := consensus.ParseAlgorithm(req.Algorithm)
		if err != nil {
			return "", err
		}
		cfg.Algorithm = alg
	}

	seen := make(map[string]bool, len(req.Agents))
	participants := make([]model.Participant, 0, len(req.Agents))
	trust := make(map[string]float64, len(req.Agents))
	for _, agentID := range req.Agents {
		if seen[agentID] {
			return "", fmt.Errorf("%w: %s", ErrDuplicateParticipant, agentID)
		}
		seen[agentID] = true

		p := model.Participant{AgentID: agentID, TrustWeight: 1}
		if e.dir != nil {
			info, err := e.dir.ResolveParticipant(agentID)
			if err != nil {
				return "", fmt.Errorf("resolve participant %s: %w", agentID, err)
			}
			p.TrustWeight = info.TrustWeight
			p.MediatorEligible = info.MediatorEligible
		}
		if err := p.Validate(); err != nil {
			return "", fmt.Errorf("participant %s: %w", agentID, err)
		}
		participants = append(participants, p)
		trust[agentID] = p.TrustWeight
	}

	order := make([]string, len(participants))
	for i, p := range participants {
		order[i] = p.AgentID
	}

	d := &debate{
		id:           uuid.NewString(),
		topic:        req.Topic,
		cfg:          cfg,
		machine:      statemachine.New(),
		sched:        turn.NewScheduler(order),
		proj:         &deadlock.Projector{},
		resolver:     deadlock.NewResolver(deadlock.WithMaxAttempts(cfg.MaxMediationAttempts), deadlock.WithTieBreaker(cfg.MediationTieBreaker)),
		ledger:       appeal.NewLedger(cfg.AppealWindow),
		participants: participants,
		trust:        trust,
		evidence:     make(map[string][]model.Evidence),
		votes:        make(map[string]model.Vote),
	}

	e.mu.Lock()
	e.debates[d.id] = d
	e.mu.Unlock()

	e.log.WithDebate(d.id).Info("debate initiated",
		"topic", req.Topic,
		"participants", len(participants),
		"algorithm", cfg.Algorithm.String())
	return d.id, nil
}

// lookup finds a debate handle without locking it.
func (e *Engine) lookup(debateID string) (*debate, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.debates[debateID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDebateNotFound, debateID)
	}
	return d, nil
}

// Begin moves a proposed debate into its opening round and starts the
// first turn timer.
func (e *Engine) Begin(debateID string) error {
	d, err := e.lookup(debateID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := e.transitionLocked(d, statemachine.StateOpening, "debate started"); err != nil {
		return err
	}
	e.scheduleTurnLocked(d)
	return nil
}

// CancelDebate moves a non-terminal debate to Cancelled immediately.
// A debate under appeal cannot be cancelled; the appeal must conclude.
func (e *Engine) CancelDebate(debateID, reason string) error {
	d, err := e.lookup(debateID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if reason == "" {
		reason = "cancelled by caller"
	}
	if err := e.transitionLocked(d, statemachine.StateCancelled, reason); err != nil {
		return err
	}
	d.stopTimerLocked()
	e.archiveLocked(d)
	return nil
}

// Snapshot is a point-in-time copy of a debate's observable state.
type Snapshot struct {
	ID                string
	Topic             string
	State             statemachine.State
	Round             int
	CurrentTurn       string
	Participants      []model.Participant
	Arguments         []model.Argument
	Votes             []model.Vote
	Verdicts          []model.Verdict
	MediatorID        string
	MediationAttempts int
	History           []model.TransitionRecord
}

// GetDebateState returns a copy of the debate's current state.
func (e *Engine) GetDebateState(debateID string) (Snapshot, error) {
	d, err := e.lookup(debateID)
	if err != nil {
		return Snapshot{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return e.snapshotLocked(d), nil
}

func (e *Engine) snapshotLocked(d *debate) Snapshot {
	snap := Snapshot{
		ID:                d.id,
		Topic:             d.topic,
		State:             d.machine.State(),
		Round:             d.sched.Round(),
		MediatorID:        d.mediatorID,
		MediationAttempts: d.resolver.Attempts(),
		History:           d.machine.History(),
	}
	if snap.State == statemachine.StateOpening || snap.State == statemachine.StateDeliberating {
		snap.CurrentTurn = d.sched.Current()
	}
	snap.Participants = append(snap.Participants, d.participants...)
	snap.Arguments = append(snap.Arguments, d.arguments...)
	snap.Verdicts = append(snap.Verdicts, d.verdicts...)
	for _, v := range d.votes {
		snap.Votes = append(snap.Votes, v)
	}
	sort.Slice(snap.Votes, func(i, j int) bool {
		return snap.Votes[i].ParticipantID < snap.Votes[j].ParticipantID
	})
	return snap
}

// GetVerdict returns the debate's authoritative verdict: the latest one
// recorded. Repeated calls return the same verdict until an upheld
// appeal supersedes it.
func (e *Engine) GetVerdict(debateID string) (model.Verdict, error) {
	d, err := e.lookup(debateID)
	if err != nil {
		return model.Verdict{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.verdicts) == 0 {
		return model.Verdict{}, fmt.Errorf("%w: %s", ErrNoVerdict, debateID)
	}
	return d.verdicts[len(d.verdicts)-1], nil
}

// Close stops all turn timers. In-flight persistence is flushed by the
// caller through the Writer.
func (e *Engine) Close() {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, d := range e.debates {
		d.mu.Lock()
		d.stopTimerLocked()
		d.mu.Unlock()
	}
}
