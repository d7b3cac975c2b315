package agent

import (
	"errors"
	"fmt"
	"sort"
)

// ErrAgentNotFound is returned when a registry lookup misses.
var ErrAgentNotFound = errors.New("agent not found")

// Registry holds all agents, built once at process start and never
// mutated afterwards. Read-mostly: safe for concurrent lookups without
// locking. Passed explicitly into the orchestrator, never a package
// global.
type Registry struct {
	agents map[string]Agent
	voters []*CouncilVoter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register adds an agent. Returns an error on duplicate names so
// configuration mistakes surface at startup, not at query time.
func (r *Registry) Register(a Agent) error {
	if _, exists := r.agents[a.Name()]; exists {
		return fmt.Errorf("duplicate agent name %q", a.Name())
	}
	r.agents[a.Name()] = a
	if voter, ok := a.(*CouncilVoter); ok {
		r.voters = append(r.voters, voter)
	}
	return nil
}

// Get returns an agent by name.
func (r *Registry) Get(name string) (Agent, error) {
	a, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	return a, nil
}

// Voters returns the registered council voters in registration order.
func (r *Registry) Voters() []*CouncilVoter {
	return r.voters
}

// Names returns all registered agent names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
