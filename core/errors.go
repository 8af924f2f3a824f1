package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCapabilityViolation indicates an agent requested a tool outside its
	// capability set.
	ErrCapabilityViolation = errors.New("capability violation")

	// ErrUnknownTool indicates a capability set referenced a tool the
	// registry does not contain.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrFatalAgent indicates an agent backend failed in a way the session
	// cannot recover from.
	ErrFatalAgent = errors.New("fatal agent error")

	// ErrSessionComplete is returned when a completed session is driven.
	ErrSessionComplete = errors.New("session is complete")

	// ErrSessionAborted is returned when an aborted session is driven.
	ErrSessionAborted = errors.New("session is aborted")

	// ErrSessionNotStarted is returned when a session is stepped before any
	// user input was submitted.
	ErrSessionNotStarted = errors.New("session not started")

	// ErrNoAgents is returned when a session is created without agents.
	ErrNoAgents = errors.New("no agents")

	// ErrDuplicateAgent is returned when two agents share an id.
	ErrDuplicateAgent = errors.New("duplicate agent id")

	// ErrUnknownAgent is returned when a selector names an agent that is not
	// a session participant.
	ErrUnknownAgent = errors.New("unknown agent")
)

// CapabilityViolationError describes a tool request rejected because the
// tool is not in the requesting agent's capability set.
type CapabilityViolationError struct {
	Agent         string
	Tool          string
	CapabilitySet string
}

func (e *CapabilityViolationError) Error() string {
	return fmt.Sprintf("capability violation: agent %q may not invoke tool %q (capability set %q)", e.Agent, e.Tool, e.CapabilitySet)
}

// Is lets errors.Is match ErrCapabilityViolation.
func (e *CapabilityViolationError) Is(target error) bool { return target == ErrCapabilityViolation }

// UnknownToolError lists every requested tool name absent from a registry.
type UnknownToolError struct {
	Names []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", strings.Join(e.Names, ", "))
}

// Is lets errors.Is match ErrUnknownTool.
func (e *UnknownToolError) Is(target error) bool { return target == ErrUnknownTool }

// FatalAgentError wraps an unrecoverable backend failure of one agent.
type FatalAgentError struct {
	Agent string
	Err   error
}

func (e *FatalAgentError) Error() string {
	return fmt.Sprintf("agent %s failed: %v", e.Agent, e.Err)
}

// Unwrap exposes the backend error.
func (e *FatalAgentError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrFatalAgent.
func (e *FatalAgentError) Is(target error) bool { return target == ErrFatalAgent }
