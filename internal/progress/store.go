// Package progress implements the Redis-backed progress store. The
// orchestrator writes snapshots fire-and-forget; external observers (the UI,
// the WebSocket stream) read them back.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

const (
	keyPrefix   = "generation:progress:"
	snapshotTTL = 24 * time.Hour
)

// Store is a Redis-backed progress store
type Store struct {
	client *redis.Client
}

// NewStore connects to Redis and returns a progress store
func NewStore(addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("Connected to Redis at %s", addr)
	return &Store{client: client}, nil
}

// NewStoreFromClient wraps an existing Redis client
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the underlying Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks Redis connectivity, used by the readiness probe
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Key returns the Redis key for a session's progress snapshot
func Key(sessionID string) string {
	return keyPrefix + sessionID
}

// Post writes one progress snapshot. Entries are keyed per session, so
// sequential phases within a run never race and independent runs never
// contend.
func (s *Store) Post(ctx context.Context, sessionID string, update models.ProgressUpdate) error {
	data := map[string]interface{}{
		"phase":    update.Phase,
		"progress": update.Progress,
		"status":   update.Status,
	}
	if update.Result != nil {
		resultJSON, err := json.Marshal(update.Result)
		if err != nil {
			return fmt.Errorf("failed to marshal result payload: %w", err)
		}
		data["result"] = string(resultJSON)
	}

	key := Key(sessionID)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, snapshotTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write progress snapshot: %w", err)
	}

	return nil
}

// Get returns the latest snapshot for a session, or nil when none exists
func (s *Store) Get(ctx context.Context, sessionID string) (*models.ProgressUpdate, error) {
	fields, err := s.client.HGetAll(ctx, Key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read progress snapshot: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	update := &models.ProgressUpdate{
		Phase:  fields["phase"],
		Status: fields["status"],
	}
	if p, err := strconv.Atoi(fields["progress"]); err == nil {
		update.Progress = p
	}
	if raw, ok := fields["result"]; ok && raw != "" {
		var result models.GenerationResult
		if err := json.Unmarshal([]byte(raw), &result); err == nil {
			update.Result = &result
		}
	}

	return update, nil
}
