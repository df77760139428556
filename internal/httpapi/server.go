// Package httpapi exposes the deliberation engine over a small JSON HTTP
// surface. It is a thin adapter: every handler decodes a request, calls
// one engine operation, and maps the error to a status code. No debate
// logic lives here.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/praetor-ai/praetor/internal/appeal"
	"github.com/praetor-ai/praetor/internal/engine"
	"github.com/praetor-ai/praetor/internal/logging"
	"github.com/praetor-ai/praetor/internal/model"
	"github.com/praetor-ai/praetor/internal/statemachine"
	"github.com/praetor-ai/praetor/internal/turn"
)

// Server handles HTTP requests against one engine.
type Server struct {
	engine *engine.Engine
	log    *logging.Logger
}

// NewServer creates a Server. A nil logger discards request logs.
func NewServer(eng *engine.Engine, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	return &Server{engine: eng, log: log}
}

// Router builds the chi router with all debate routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/debates", func(r chi.Router) {
		r.Post("/", s.handleInitiate)
		r.Route("/{debateID}", func(r chi.Router) {
			r.Get("/", s.handleGetState)
			r.Delete("/", s.handleCancel)
			r.Post("/begin", s.handleBegin)
			r.Post("/arguments", s.handleSubmitArgument)
			r.Post("/arguments/{argumentID}/evidence", s.handleSubmitEvidence)
			r.Post("/votes", s.handleSubmitVote)
			r.Post("/mediation-votes", s.handleSubmitMediationVote)
			r.Post("/close-voting", s.handleCloseVoting)
			r.Get("/verdict", s.handleGetVerdict)
			r.Post("/appeals", s.handleSubmitAppeal)
			r.Post("/appeals/close", s.handleCloseAppeal)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

type initiateRequest struct {
	Topic     string   `json:"topic"`
	Agents    []string `json:"agents"`
	Algorithm string   `json:"algorithm,omitempty"`
}

func (s *Server) handleInitiate(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, err := s.engine.InitiateDebate(engine.InitiateRequest{
		Topic:     req.Topic,
		Agents:    req.Agents,
		Algorithm: req.Algorithm,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, map[string]string{"debate_id": id})
}

func (s *Server) handleBegin(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Begin(chi.URLParam(r, "debateID")); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.GetDebateState(chi.URLParam(r, "debateID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, snapshotResponse(snap))
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if r.ContentLength > 0 && !s.decode(w, r, &req) {
		return
	}
	if err := s.engine.CancelDebate(chi.URLParam(r, "debateID"), req.Reason); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type argumentRequest struct {
	ParticipantID string `json:"participant_id"`
	Stance        string `json:"stance"`
	Claim         string `json:"claim"`
	ParentID      string `json:"parent_id,omitempty"`
}

func (s *Server) handleSubmitArgument(w http.ResponseWriter, r *http.Request) {
	var req argumentRequest
	if !s.decode(w, r, &req) {
		return
	}
	arg, err := s.engine.SubmitArgument(chi.URLParam(r, "debateID"), req.ParticipantID, model.Stance(req.Stance), req.Claim, req.ParentID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, arg)
}

type evidenceRequest struct {
	SubmittedBy string   `json:"submitted_by"`
	SourceType  string   `json:"source_type"`
	Credibility *float64 `json:"credibility,omitempty"`
	Content     string   `json:"content"`
}

func (s *Server) handleSubmitEvidence(w http.ResponseWriter, r *http.Request) {
	var req evidenceRequest
	if !s.decode(w, r, &req) {
		return
	}
	credibility := -1.0 // unset: engine applies the neutral default
	if req.Credibility != nil {
		credibility = *req.Credibility
	}
	ev, err := s.engine.SubmitEvidence(
		chi.URLParam(r, "debateID"),
		chi.URLParam(r, "argumentID"),
		req.SubmittedBy,
		model.SourceType(req.SourceType),
		credibility,
		req.Content,
	)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, ev)
}

type voteRequest struct {
	ParticipantID string  `json:"participant_id"`
	Position      string  `json:"position"`
	Confidence    float64 `json:"confidence"`
	Rationale     string  `json:"rationale,omitempty"`
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.engine.SubmitVote(chi.URLParam(r, "debateID"), req.ParticipantID, req.Position, req.Confidence, req.Rationale); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func (s *Server) handleSubmitMediationVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.engine.SubmitMediationVote(chi.URLParam(r, "debateID"), req.ParticipantID, req.Position, req.Confidence, req.Rationale); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func (s *Server) handleCloseVoting(w http.ResponseWriter, r *http.Request) {
	debateID := chi.URLParam(r, "debateID")
	if err := s.engine.CloseVoting(debateID); err != nil {
		s.respondError(w, err)
		return
	}
	snap, err := s.engine.GetDebateState(debateID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, snapshotResponse(snap))
}

func (s *Server) handleGetVerdict(w http.ResponseWriter, r *http.Request) {
	v, err := s.engine.GetVerdict(chi.URLParam(r, "debateID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, v)
}

type appealRequest struct {
	AppellantID   string            `json:"appellant_id"`
	Justification string            `json:"justification"`
	NewEvidence   []evidenceRequest `json:"new_evidence,omitempty"`
}

func (s *Server) handleSubmitAppeal(w http.ResponseWriter, r *http.Request) {
	var req appealRequest
	if !s.decode(w, r, &req) {
		return
	}
	items := make([]engine.EvidenceInput, 0, len(req.NewEvidence))
	for _, in := range req.NewEvidence {
		credibility := -1.0
		if in.Credibility != nil {
			credibility = *in.Credibility
		}
		items = append(items, engine.EvidenceInput{
			SourceType:  model.SourceType(in.SourceType),
			Credibility: credibility,
			Content:     in.Content,
		})
	}
	ap, err := s.engine.SubmitAppeal(chi.URLParam(r, "debateID"), req.AppellantID, req.Justification, items)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, ap)
}

func (s *Server) handleCloseAppeal(w http.ResponseWriter, r *http.Request) {
	ap, err := s.engine.CloseAppeal(chi.URLParam(r, "debateID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, ap)
}

// stateResponse is the wire shape of a debate snapshot.
type stateResponse struct {
	ID                string                   `json:"id"`
	Topic             string                   `json:"topic"`
	State             string                   `json:"state"`
	Round             int                      `json:"round"`
	CurrentTurn       string                   `json:"current_turn,omitempty"`
	Participants      []model.Participant      `json:"participants"`
	Arguments         []model.Argument         `json:"arguments,omitempty"`
	Votes             []model.Vote             `json:"votes,omitempty"`
	Verdicts          []model.Verdict          `json:"verdicts,omitempty"`
	MediatorID        string                   `json:"mediator_id,omitempty"`
	MediationAttempts int                      `json:"mediation_attempts,omitempty"`
	History           []model.TransitionRecord `json:"history"`
}

func snapshotResponse(snap engine.Snapshot) stateResponse {
	return stateResponse{
		ID:                snap.ID,
		Topic:             snap.Topic,
		State:             snap.State.String(),
		Round:             snap.Round,
		CurrentTurn:       snap.CurrentTurn,
		Participants:      snap.Participants,
		Arguments:         snap.Arguments,
		Votes:             snap.Votes,
		Verdicts:          snap.Verdicts,
		MediatorID:        snap.MediatorID,
		MediationAttempts: snap.MediationAttempts,
		History:           snap.History,
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

// respondError maps engine errors onto HTTP status codes.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest

	var transitionErr *statemachine.TransitionError
	switch {
	case errors.Is(err, engine.ErrDebateNotFound),
		errors.Is(err, engine.ErrArgumentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrNotParticipant),
		errors.Is(err, engine.ErrNotMediator):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrDebateTerminal),
		errors.Is(err, engine.ErrWrongPhase),
		errors.Is(err, engine.ErrNoVerdict),
		errors.Is(err, turn.ErrNotCurrentTurn),
		errors.Is(err, appeal.ErrDuplicateAppeal),
		errors.Is(err, appeal.ErrAppealWindowExpired),
		errors.As(err, &transitionErr):
		status = http.StatusConflict
	}

	s.respond(w, status, map[string]string{"error": err.Error()})
}
