// Package core holds the shared domain contracts of agentgroup: conversation
// messages, the append-only History a session's agents share, the error
// taxonomy and the session lifecycle status. Higher level packages (tool,
// agent, termination, orchestrator) depend on core; core depends on nothing
// inside the module.
package core
