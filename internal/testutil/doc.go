// Package testutil contains builders shared by package tests: conversation
// histories, a GitHub-shaped tool registry and scripted agents. Not intended
// for production use.
package testutil
