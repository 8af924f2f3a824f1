package tool

import "sort"

// CapabilitySet is the named, read-only slice of a Registry one agent may
// invoke. Equality of two sets is by name membership.
type CapabilitySet struct {
	name  string
	tools map[string]Tool
	names []string
}

func newCapabilitySet(name string, tools map[string]Tool) *CapabilitySet {
	names := make([]string, 0, len(tools))
	for n := range tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return &CapabilitySet{name: name, tools: tools, names: names}
}

// EmptyCapabilitySet returns a set that admits no tool.
func EmptyCapabilitySet(name string) *CapabilitySet {
	return newCapabilitySet(name, map[string]Tool{})
}

// Name returns the set's label, used in logs and violation errors.
func (c *CapabilitySet) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Contains reports whether the named tool is in the set.
func (c *CapabilitySet) Contains(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.tools[name]
	return ok
}

// Lookup returns the tool if it is in the set.
func (c *CapabilitySet) Lookup(name string) (Tool, bool) {
	if c == nil {
		return nil, false
	}
	t, ok := c.tools[name]
	return t, ok
}

// Len returns the number of tools in the set.
func (c *CapabilitySet) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Names returns member names sorted alphabetically.
func (c *CapabilitySet) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Tools returns the member tools ordered by name.
func (c *CapabilitySet) Tools() []Tool {
	if c == nil {
		return nil
	}
	out := make([]Tool, 0, len(c.names))
	for _, n := range c.names {
		out = append(out, c.tools[n])
	}
	return out
}

// Definitions describes the member tools for a model backend.
func (c *CapabilitySet) Definitions() []Definition {
	tools := c.Tools()
	defs := make([]Definition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, DefinitionOf(t))
	}
	return defs
}
