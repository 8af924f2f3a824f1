// Package agentgroup provides a high-level façade over the orchestrator for
// running multi-agent group chats. Most applications interact with this
// package by:
//  1. Creating an AgentGroup via New() (optionally setting a history store,
//     logger and metrics)
//  2. Starting a session over a fixed list of agents
//  3. Submitting user input and running the session until it completes,
//     either synchronously (RunUntilComplete, Chat) or as a stream (Stream)
//
// Agents are built in package agent, tools in package tool, and whole groups
// can be loaded from YAML with package config.
package agentgroup

import (
	"context"

	"github.com/hupe1980/agentgroup/agent"
	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/logging"
	"github.com/hupe1980/agentgroup/metrics"
	"github.com/hupe1980/agentgroup/orchestrator"
	"github.com/hupe1980/agentgroup/session"
)

// Options configures the AgentGroup instance.
type Options struct {
	// Config is applied to sessions whose own Config leaves fields unset.
	Config orchestrator.Config

	// Store mirrors session histories. Nil disables persistence.
	Store session.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Metrics is optional.
	Metrics *metrics.Collectors
}

// AgentGroup is the high-level façade over the orchestrator.
type AgentGroup struct {
	orch *orchestrator.Orchestrator
}

// New creates an AgentGroup. Unset services default to no persistence and a
// no-op logger.
func New(optFns ...func(o *Options)) *AgentGroup {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	o := orchestrator.New(func(oo *orchestrator.Options) {
		oo.Config = opts.Config
		oo.Store = opts.Store
		oo.Logger = opts.Logger
		oo.Metrics = opts.Metrics
	})

	return &AgentGroup{orch: o}
}

// Orchestrator exposes the underlying scheduler.
func (g *AgentGroup) Orchestrator() *orchestrator.Orchestrator { return g.orch }

// StartSession creates an Idle session over agents, in turn order.
func (g *AgentGroup) StartSession(agents []agent.Agent, cfg orchestrator.Config) (*orchestrator.Session, error) {
	return g.orch.StartSession(agents, cfg)
}

// SubmitUserMessage appends caller input; the first call starts the session.
func (g *AgentGroup) SubmitUserMessage(ctx context.Context, s *orchestrator.Session, text string) error {
	return s.SubmitUserMessage(ctx, text)
}

// RunUntilComplete drives s until Completed or Aborted.
func (g *AgentGroup) RunUntilComplete(ctx context.Context, s *orchestrator.Session) ([]core.Message, error) {
	return s.RunUntilComplete(ctx)
}

// Stream drives s in the background, emitting messages as turns finish.
func (g *AgentGroup) Stream(ctx context.Context, s *orchestrator.Session) (<-chan core.Message, <-chan error) {
	return s.Run(ctx)
}

// Chat submits text and drains the message stream until the session ends,
// returning the messages produced.
func (g *AgentGroup) Chat(ctx context.Context, s *orchestrator.Session, text string) ([]core.Message, error) {
	if err := s.SubmitUserMessage(ctx, text); err != nil {
		return nil, err
	}

	msgCh, errCh := s.Run(ctx)

	var msgs []core.Message
	for {
		select {
		case <-ctx.Done():
			return msgs, ctx.Err()

		case msg, ok := <-msgCh:
			if !ok {
				return msgs, <-errCh
			}
			msgs = append(msgs, msg)
		}
	}
}
