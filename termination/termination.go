// Package termination decides when a group chat session is finished.
//
// A Strategy is consulted after every completed turn with the full history
// and the turn count. The baseline Approval strategy combines a content
// predicate, applied only to messages authored by allowed terminators, with
// a hard iteration ceiling.
package termination

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentgroup/core"
)

// DefaultMaxIterations bounds sessions whose strategy sets no ceiling.
const DefaultMaxIterations = 10

// Strategy evaluates whether a session is complete.
type Strategy interface {
	Evaluate(ctx context.Context, history []core.Message, turnCount int) (bool, error)
}

// StrategyFunc adapts a function to a Strategy.
type StrategyFunc func(ctx context.Context, history []core.Message, turnCount int) (bool, error)

// Evaluate calls f.
func (f StrategyFunc) Evaluate(ctx context.Context, history []core.Message, turnCount int) (bool, error) {
	return f(ctx, history, turnCount)
}

// ApprovalOptions configures an Approval strategy.
type ApprovalOptions struct {
	// Agents lists the ids allowed to end the session by content. Empty
	// means any agent.
	Agents []string
	// MaxIterations is the hard ceiling; values <= 0 use DefaultMaxIterations.
	MaxIterations int
	// Predicate inspects the latest message of an allowed agent.
	Predicate Predicate
}

// Approval completes the session when an allowed agent's latest message
// satisfies the predicate, or when the turn count reaches the ceiling.
type Approval struct {
	agents        map[string]struct{}
	order         []string
	maxIterations int
	predicate     Predicate
}

// NewApproval creates an approval strategy. The default predicate is
// ContainsToken("approve").
func NewApproval(optFns ...func(o *ApprovalOptions)) *Approval {
	opts := ApprovalOptions{
		MaxIterations: DefaultMaxIterations,
		Predicate:     ContainsToken("approve"),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	a := &Approval{
		agents:        make(map[string]struct{}, len(opts.Agents)),
		maxIterations: opts.MaxIterations,
		predicate:     opts.Predicate,
	}
	for _, id := range opts.Agents {
		if _, dup := a.agents[id]; dup {
			continue
		}
		a.agents[id] = struct{}{}
		a.order = append(a.order, id)
	}
	return a
}

// AllowedTerminators returns the agents whose content may end the session.
func (a *Approval) AllowedTerminators() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// MaxIterations returns the iteration ceiling.
func (a *Approval) MaxIterations() int { return a.maxIterations }

// Allows reports whether id may end the session by content.
func (a *Approval) Allows(id string) bool {
	if len(a.agents) == 0 {
		return true
	}
	_, ok := a.agents[id]
	return ok
}

// Evaluate consults the iteration ceiling and the content predicate.
func (a *Approval) Evaluate(ctx context.Context, history []core.Message, turnCount int) (bool, error) {
	if turnCount >= a.maxIterations {
		return true, nil
	}
	if a.predicate == nil {
		return false, nil
	}

	msg, ok := core.LastFrom(history, a.Allows)
	if !ok {
		return false, nil
	}

	done, err := a.predicate.Match(ctx, msg)
	if err != nil {
		return false, fmt.Errorf("termination predicate: %w", err)
	}
	return done, nil
}

// MaxIterations completes the session once turnCount reaches n.
func MaxIterations(n int) Strategy {
	return StrategyFunc(func(_ context.Context, _ []core.Message, turnCount int) (bool, error) {
		return turnCount >= n, nil
	})
}

// AnyOf completes the session when any strategy does. Strategies are
// consulted in order and evaluation stops at the first true or error.
func AnyOf(strategies ...Strategy) Strategy {
	return StrategyFunc(func(ctx context.Context, history []core.Message, turnCount int) (bool, error) {
		for _, s := range strategies {
			done, err := s.Evaluate(ctx, history, turnCount)
			if err != nil || done {
				return done, err
			}
		}
		return false, nil
	})
}
