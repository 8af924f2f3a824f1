package tool

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hupe1980/agentgroup/core"
)

// ErrDuplicateTool is returned when two tools share a name.
var ErrDuplicateTool = errors.New("duplicate tool name")

// Registry is the immutable catalog of every tool known to a process or
// session. It is built once and never mutated, so concurrent reads need no
// locking.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds a registry from tools. Names must be unique.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t == nil {
			return nil, errors.New("nil tool")
		}
		name := t.Name()
		if name == "" {
			return nil, errors.New("tool with empty name")
		}
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics on error. Intended for static setup.
func MustRegistry(tools ...Tool) *Registry {
	r, err := NewRegistry(tools...)
	if err != nil {
		panic(err)
	}
	return r
}

// With returns a new registry holding r's tools plus extra. r is unchanged.
func (r *Registry) With(extra ...Tool) (*Registry, error) {
	all := make([]Tool, 0, len(r.order)+len(extra))
	for _, name := range r.order {
		all = append(all, r.tools[name])
	}
	return NewRegistry(append(all, extra...)...)
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Subset creates a named capability set containing exactly the listed tools.
// Every unknown name is reported in a single *core.UnknownToolError. An
// empty name list yields an empty set.
func (r *Registry) Subset(setName string, names ...string) (*CapabilitySet, error) {
	var missing []string
	tools := make(map[string]Tool, len(names))
	for _, n := range names {
		t, ok := r.tools[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		tools[n] = t
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &core.UnknownToolError{Names: missing}
	}
	return newCapabilitySet(setName, tools), nil
}

// All returns a capability set containing every registered tool.
func (r *Registry) All(setName string) *CapabilitySet {
	cs, _ := r.Subset(setName, r.order...)
	return cs
}
