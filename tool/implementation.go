package tool

import (
	"context"
	"errors"
	"fmt"
)

// Kind names the implementation variant of a tool.
type Kind string

const (
	// KindNative is a Go function executed in process.
	KindNative Kind = "native"
	// KindAgent delegates to another agent.
	KindAgent Kind = "agent"
	// KindRemote is served by an external tool provider.
	KindRemote Kind = "remote"
)

// Implementation is the closed set of ways a tool can be backed. Exactly one
// of Native, DelegatingAgent or Remote.
type Implementation interface {
	kind() Kind
	invoke(ctx context.Context, name string, args map[string]any) (any, error)
}

// Native backs a tool with an in-process function.
type Native struct {
	Fn func(ctx context.Context, args map[string]any) (any, error)
}

func (Native) kind() Kind { return KindNative }

func (n Native) invoke(ctx context.Context, _ string, args map[string]any) (any, error) {
	if n.Fn == nil {
		return nil, errors.New("native tool has no function")
	}
	return n.Fn(ctx, args)
}

// DelegatingAgent backs a tool with another agent. Act receives the request
// text and returns the delegate's answer; it is supplied by the agent
// package so this package stays free of agent types.
type DelegatingAgent struct {
	AgentID string
	Act     func(ctx context.Context, input string) (string, error)
}

func (DelegatingAgent) kind() Kind { return KindAgent }

func (d DelegatingAgent) invoke(ctx context.Context, _ string, args map[string]any) (any, error) {
	if d.Act == nil {
		return nil, fmt.Errorf("agent %s is not bound", d.AgentID)
	}
	input, _ := args[DelegateInputField].(string)
	if input == "" {
		return nil, NewToolError(d.AgentID, fmt.Sprintf("field %q must be a non-empty string", DelegateInputField), CodeValidation)
	}
	return d.Act(ctx, input)
}

// DelegateInputField is the single argument of agent-backed tools.
const DelegateInputField = "input"

// DelegateParameters is the schema of agent-backed tools.
func DelegateParameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			DelegateInputField: map[string]any{"type": "string", "description": "Task or question for the agent"},
		},
		"required": []string{DelegateInputField},
	}
}

// InvokeFunc is the single invocation capability supplied by an external
// tool provider.
type InvokeFunc func(ctx context.Context, name string, args map[string]any) (any, error)

// Remote backs a tool with an external provider's invocation function.
type Remote struct {
	Invoke InvokeFunc
}

func (Remote) kind() Kind { return KindRemote }

func (r Remote) invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	if r.Invoke == nil {
		return nil, errors.New("remote tool has no invoker")
	}
	return r.Invoke(ctx, name, args)
}

// implTool is the generic Tool built from a descriptor and an Implementation.
type implTool struct {
	name        string
	description string
	parameters  map[string]any
	impl        Implementation
}

// New builds a tool from its descriptor fields and implementation variant.
// A nil parameters schema is replaced by an empty object schema.
func New(name, description string, parameters map[string]any, impl Implementation) Tool {
	if parameters == nil {
		parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return &implTool{name: name, description: description, parameters: parameters, impl: impl}
}

func (t *implTool) Name() string               { return t.name }
func (t *implTool) Description() string        { return t.description }
func (t *implTool) Parameters() map[string]any { return t.parameters }
func (t *implTool) Kind() Kind                 { return t.impl.kind() }

func (t *implTool) Call(ctx context.Context, args map[string]any) (any, error) {
	return t.impl.invoke(ctx, t.name, args)
}

// Descriptor is what an external tool provider supplies per tool.
type Descriptor struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// FromProvider converts provider descriptors plus the provider's invocation
// function into tools. The core never discovers tools itself.
func FromProvider(descs []Descriptor, invoke InvokeFunc) []Tool {
	tools := make([]Tool, 0, len(descs))
	for _, d := range descs {
		tools = append(tools, New(d.Name, d.Description, d.Parameters, Remote{Invoke: invoke}))
	}
	return tools
}
