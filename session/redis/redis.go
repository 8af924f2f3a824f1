// Package redis stores group chat histories in Redis. Each session is a list
// of JSON encoded messages under "<prefix><session id>".
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/session"
)

// Options configures a Store.
type Options struct {
	// KeyPrefix is prepended to every session id. Defaults to "agentgroup:session:".
	KeyPrefix string
	// TTL expires idle sessions; zero keeps them forever.
	TTL time.Duration
}

// Store implements session.Store on a Redis list per session.
type Store struct {
	client *redis.Client
	opts   Options
}

var _ session.Store = (*Store)(nil)

// NewStore wraps an existing client.
func NewStore(client *redis.Client, optFns ...func(o *Options)) *Store {
	opts := Options{KeyPrefix: "agentgroup:session:"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{client: client, opts: opts}
}

// Append pushes msgs in one MULTI/EXEC transaction.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...core.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]any, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal message %s: %w", m.ID, err)
		}
		values = append(values, data)
	}

	key := s.key(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if s.opts.TTL > 0 {
			pipe.Expire(ctx, key, s.opts.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append to session %s: %w", sessionID, err)
	}
	return nil
}

// Load reads the whole session list.
func (s *Store) Load(ctx context.Context, sessionID string) ([]core.Message, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if len(raw) == 0 {
		return nil, session.ErrNotFound
	}

	msgs := make([]core.Message, 0, len(raw))
	for i, r := range raw {
		var m core.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message %d of session %s: %w", i, sessionID, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Delete removes the session key.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

func (s *Store) key(sessionID string) string { return s.opts.KeyPrefix + sessionID }
