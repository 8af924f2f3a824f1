// Package model defines the provider-agnostic abstractions for the
// language-model backends that drive agents.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool call representation (ToolDefinition, core.ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate deterministic tests (ScriptedModel)
//
// Providers (OpenAI / Azure OpenAI, Anthropic) implement Model in
// sub-packages so agents stay decoupled from vendor SDKs.
package model
