package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig reports a malformed environment or group definition.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrDelegateCycle reports agents that delegate to each other in a loop.
	ErrDelegateCycle = errors.New("delegate cycle")
)

// Selection policies.
const (
	SelectRoundRobin = "round_robin"
	SelectRouting    = "routing"
)

// Termination predicates.
const (
	PredicateContains   = "contains"
	PredicateVerdict    = "verdict"
	PredicateClassifier = "classifier"
)

// AgentSpec describes one agent of a group.
type AgentSpec struct {
	ID           string `yaml:"id"`
	Description  string `yaml:"description,omitempty"`
	Instructions string `yaml:"instructions"`

	// CapabilitySet names the agent's tool subset in logs and audit lines.
	// Defaults to the agent id.
	CapabilitySet string   `yaml:"capability_set,omitempty"`
	Tools         []string `yaml:"tools,omitempty"`

	// Delegates are agents of this group exposed to this agent as tools.
	Delegates []string `yaml:"delegates,omitempty"`

	MaxToolRounds      int `yaml:"max_tool_rounds,omitempty"`
	MaxHistoryMessages int `yaml:"max_history_messages,omitempty"`
}

// TerminationSpec selects the content predicate.
type TerminationSpec struct {
	Predicate string   `yaml:"predicate,omitempty"` // contains | verdict | classifier
	Token     string   `yaml:"token,omitempty"`     // contains: defaults to "approve"
	Verdicts  []string `yaml:"verdicts,omitempty"`  // verdict: accepted values
}

// Group is a group chat definition.
type Group struct {
	Name string `yaml:"name"`

	// Participants take turns in this order. Defaults to every agent that
	// is not only used as a delegate, in definition order.
	Participants []string `yaml:"participants,omitempty"`

	// Terminators may end the session by content. Empty means any
	// participant.
	Terminators   []string        `yaml:"terminators,omitempty"`
	MaxIterations int             `yaml:"max_iterations,omitempty"`
	Selection     string          `yaml:"selection,omitempty"` // round_robin | routing
	Termination   TerminationSpec `yaml:"termination,omitempty"`

	// TurnsPerInput bounds how many turns the console runs after each user
	// message. Zero runs until the session completes.
	TurnsPerInput int `yaml:"turns_per_input,omitempty"`

	// Vars are available to instruction templates as {{ index .Vars "name" }}.
	Vars map[string]any `yaml:"vars,omitempty"`

	Agents []AgentSpec `yaml:"agents"`
}

// LoadGroup reads and validates a YAML group file.
func LoadGroup(path string) (*Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read group file: %w", err)
	}
	g, err := ParseGroup(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ParseGroup decodes and validates a YAML group definition. Unknown fields
// are rejected.
func ParseGroup(data []byte) (*Group, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var g Group
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Marshal encodes the group as YAML.
func (g *Group) Marshal() ([]byte, error) {
	return yaml.Marshal(g)
}

// Agent returns the spec with the given id.
func (g *Group) Agent(id string) (AgentSpec, bool) {
	for _, a := range g.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentSpec{}, false
}

// ParticipantIDs returns the resolved turn order.
func (g *Group) ParticipantIDs() []string {
	if len(g.Participants) > 0 {
		return append([]string(nil), g.Participants...)
	}

	delegated := make(map[string]bool)
	for _, a := range g.Agents {
		for _, d := range a.Delegates {
			delegated[d] = true
		}
	}

	var ids []string
	for _, a := range g.Agents {
		if !delegated[a.ID] {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// Validate checks ids, references and enum values. Tool names are checked
// later against the registry by Build.
func (g *Group) Validate() error {
	if len(g.Agents) == 0 {
		return fmt.Errorf("%w: group %q defines no agents", ErrInvalidConfig, g.Name)
	}

	ids := make(map[string]bool, len(g.Agents))
	for _, a := range g.Agents {
		if a.ID == "" {
			return fmt.Errorf("%w: agent without id", ErrInvalidConfig)
		}
		if ids[a.ID] {
			return fmt.Errorf("%w: duplicate agent %q", ErrInvalidConfig, a.ID)
		}
		ids[a.ID] = true
	}

	for _, a := range g.Agents {
		for _, d := range a.Delegates {
			if !ids[d] {
				return fmt.Errorf("%w: agent %q delegates to unknown agent %q", ErrInvalidConfig, a.ID, d)
			}
			if d == a.ID {
				return fmt.Errorf("%w: agent %q delegates to itself", ErrDelegateCycle, a.ID)
			}
		}
	}
	if _, err := g.delegateOrder(); err != nil {
		return err
	}

	participants := g.ParticipantIDs()
	if len(participants) == 0 {
		return fmt.Errorf("%w: group %q has no participants", ErrInvalidConfig, g.Name)
	}
	inGroup := make(map[string]bool, len(participants))
	for _, p := range participants {
		if !ids[p] {
			return fmt.Errorf("%w: unknown participant %q", ErrInvalidConfig, p)
		}
		inGroup[p] = true
	}
	for _, t := range g.Terminators {
		if !inGroup[t] {
			return fmt.Errorf("%w: terminator %q is not a participant", ErrInvalidConfig, t)
		}
	}

	switch g.Selection {
	case "", SelectRoundRobin, SelectRouting:
	default:
		return fmt.Errorf("%w: unknown selection %q", ErrInvalidConfig, g.Selection)
	}
	switch g.Termination.Predicate {
	case "", PredicateContains, PredicateVerdict, PredicateClassifier:
	default:
		return fmt.Errorf("%w: unknown termination predicate %q", ErrInvalidConfig, g.Termination.Predicate)
	}
	if g.MaxIterations < 0 || g.TurnsPerInput < 0 {
		return fmt.Errorf("%w: max_iterations and turns_per_input must not be negative", ErrInvalidConfig)
	}
	return nil
}

// delegateOrder returns agent ids so that every agent comes after the
// agents it delegates to.
func (g *Group) delegateOrder() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int, len(g.Agents))
	order := make([]string, 0, len(g.Agents))

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %v", ErrDelegateCycle, append(path, id))
		}
		state[id] = visiting
		spec, _ := g.Agent(id)
		for _, d := range spec.Delegates {
			if err := visit(d, append(path, id)); err != nil {
				return err
			}
		}
		state[id] = done
		order = append(order, id)
		return nil
	}

	for _, a := range g.Agents {
		if err := visit(a.ID, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}
