// Package directory defines the agent/participant directory port. The
// engine consults it at debate creation to resolve trust weights and
// mediator eligibility; the real implementation lives with the
// surrounding orchestrator.
package directory

import (
	"errors"
	"sync"
)

// ErrUnknownAgent indicates the directory has no entry for an agent ID.
var ErrUnknownAgent = errors.New("unknown agent")

// AgentInfo is what the directory knows about one agent.
type AgentInfo struct {
	// TrustWeight is the agent's standing, within [0, 1].
	TrustWeight float64

	// MediatorEligible marks the agent as a candidate mediator.
	MediatorEligible bool
}

// Directory resolves agent identity and trust.
type Directory interface {
	// ResolveParticipant returns the directory entry for an agent.
	ResolveParticipant(agentID string) (AgentInfo, error)
}

// Static is an in-memory Directory, used by tests and the demo command.
// Safe for concurrent use.
type Static struct {
	mu     sync.RWMutex
	agents map[string]AgentInfo
}

// NewStatic creates a Static directory from an initial table.
func NewStatic(agents map[string]AgentInfo) *Static {
	m := make(map[string]AgentInfo, len(agents))
	for id, info := range agents {
		m[id] = info
	}
	return &Static{agents: m}
}

// ResolveParticipant implements Directory.
func (s *Static) ResolveParticipant(agentID string) (AgentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.agents[agentID]
	if !ok {
		return AgentInfo{}, ErrUnknownAgent
	}
	return info, nil
}

// Register adds or replaces an agent entry.
func (s *Static) Register(agentID string, info AgentInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[agentID] = info
}
