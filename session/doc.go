// Package session persists group chat histories outside the orchestrator.
//
// The orchestrator keeps the authoritative History in memory and mirrors
// every appended batch to a Store. InMemoryStore suits tests and demos; the
// redis sub-package stores each session as a Redis list of JSON messages.
// Add further backends in sub-packages; only the wiring layer chooses one.
package session
