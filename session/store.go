package session

import (
	"context"
	"errors"

	"github.com/hupe1980/agentgroup/core"
)

// ErrNotFound is returned by Load for an unknown session id.
var ErrNotFound = errors.New("session not found")

// Store persists the message log of group chat sessions.
//
// Append must store the whole batch or none of it. Load returns messages in
// append order.
type Store interface {
	Append(ctx context.Context, sessionID string, msgs ...core.Message) error
	Load(ctx context.Context, sessionID string) ([]core.Message, error)
	Delete(ctx context.Context, sessionID string) error
}
