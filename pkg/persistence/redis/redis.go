// Package redis provides Redis-backed session persistence with an optional
// idle TTL, so abandoned dashboard sessions age out on their own.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/windscape/windscape/pkg/models"
	"github.com/windscape/windscape/pkg/persistence"
)

const keyPrefix = "windscape:session:"

// Persistence implements persistence.Persistence on Redis. Each session is
// one JSON value; SaveSession refreshes the TTL, so the TTL acts as an
// idle timeout.
type Persistence struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewPersistence connects to Redis using the given URL
// (redis://host:port/db). A zero TTL stores sessions without expiry.
func NewPersistence(ctx context.Context, redisURL string, ttl time.Duration) (*Persistence, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := goredis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Persistence{client: client, ttl: ttl}, nil
}

// NewPersistenceWithClient wraps an existing client, mainly for tests.
func NewPersistenceWithClient(client goredis.UniversalClient, ttl time.Duration) *Persistence {
	return &Persistence{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return keyPrefix + id
}

// Sessions loads every stored session snapshot.
func (p *Persistence) Sessions(ctx context.Context) ([]*models.WorkflowState, error) {
	var (
		sessions []*models.WorkflowState
		cursor   uint64
	)

	for {
		keys, next, err := p.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan sessions: %w", err)
		}

		for _, key := range keys {
			state, err := p.sessionByKey(ctx, key)
			if err != nil {
				// The key can expire between SCAN and GET.
				if persistence.IsSessionNotFound(err) {
					continue
				}

				return nil, err
			}

			sessions = append(sessions, state)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return sessions, nil
}

// SaveSession writes the snapshot and refreshes its TTL.
func (p *Persistence) SaveSession(ctx context.Context, state *models.WorkflowState) error {
	if state == nil || state.Session.SessionID == "" {
		return persistence.ErrSessionIDRequired
	}

	data, err := json.Marshal(state)
	if err != nil {
		return persistence.NewSessionError("SaveSession", state.Session.SessionID, err)
	}

	err = p.client.Set(ctx, sessionKey(state.Session.SessionID), data, p.ttl).Err()
	if err != nil {
		return persistence.NewSessionError("SaveSession", state.Session.SessionID, err)
	}

	return nil
}

// SessionByID loads one session snapshot.
func (p *Persistence) SessionByID(ctx context.Context, id string) (*models.WorkflowState, error) {
	return p.sessionByKey(ctx, sessionKey(id))
}

func (p *Persistence) sessionByKey(ctx context.Context, key string) (*models.WorkflowState, error) {
	data, err := p.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrSessionNotFound, key)
		}

		return nil, persistence.NewSessionError("SessionByID", key, err)
	}

	var state models.WorkflowState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, persistence.NewSessionError("SessionByID", key, err)
	}

	return &state, nil
}

// DeleteSession removes a stored session.
func (p *Persistence) DeleteSession(ctx context.Context, id string) error {
	removed, err := p.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return persistence.NewSessionError("DeleteSession", id, err)
	}

	if removed == 0 {
		return fmt.Errorf("%w: %s", persistence.ErrSessionNotFound, id)
	}

	return nil
}

// HealthCheck pings the Redis server.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}
