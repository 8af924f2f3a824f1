// Package agent provides the agent abstraction of a group chat and its
// implementations.
//
// An Agent has a unique id, static instructions and a fixed capability set.
// On its turn it receives the shared conversation history and returns a
// Turn: the messages to append plus a record of every tool invocation it
// made. Each agent owns an ExecutionContext built at setup; every tool call
// passes the capability check and the interceptor chain of that context, so
// one agent's tool exposure never leaks to another.
//
// Implementations:
//   - ModelAgent drives a model.Model in a generate -> tools loop
//   - FuncAgent wraps a Go function (deterministic agents, tests)
//
// AsTool exposes any agent as a tool so one agent can delegate to another.
package agent
