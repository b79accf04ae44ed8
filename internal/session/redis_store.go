// Package session provides the Redis-backed engagement session store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"leadpulse/api/internal/engagement"
)

// Writers for the same session are uncoordinated (browser tab vs unload
// beacon), so a concurrent upsert can invalidate the WATCHed key. The merge
// is commutative, retrying just re-reads and re-merges.
const upsertRetries = 5

var ErrNotFound = errors.New("session not found")

// RedisStore persists engagement session snapshots keyed by session id,
// with per-lead and per-franchise index sets for the read paths.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed engagement store.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "engagement:"}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "engagement:"}
}

func (s *RedisStore) sessionKey(sessionID string) string {
	return s.prefix + "session:" + sessionID
}

func (s *RedisStore) leadKey(buyerID, franchiseID string) string {
	return s.prefix + "lead:" + buyerID + ":" + franchiseID
}

func (s *RedisStore) franchiseKey(franchiseID string) string {
	return s.prefix + "franchise:" + franchiseID
}

// Upsert stores a snapshot, merging it with any existing record for the
// same session id using the commutative max/union rule. Returns the stored
// (merged) snapshot.
func (s *RedisStore) Upsert(ctx context.Context, snap engagement.Snapshot) (engagement.Snapshot, error) {
	if snap.SessionID == "" {
		return engagement.Snapshot{}, fmt.Errorf("upsert session: missing session id")
	}
	key := s.sessionKey(snap.SessionID)

	var merged engagement.Snapshot
	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		switch {
		case err == redis.Nil:
			merged = snap
			if merged.CreatedAt.IsZero() {
				merged.CreatedAt = time.Now().UTC()
			}
		case err != nil:
			return fmt.Errorf("read session: %w", err)
		default:
			var existing engagement.Snapshot
			if unmarshalErr := json.Unmarshal([]byte(raw), &existing); unmarshalErr != nil {
				return fmt.Errorf("unmarshal session: %w", unmarshalErr)
			}
			merged = engagement.Merge(existing, snap)
		}

		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if merged.BuyerID != "" && merged.FranchiseID != "" {
				pipe.SAdd(ctx, s.leadKey(merged.BuyerID, merged.FranchiseID), merged.SessionID)
			}
			if merged.FranchiseID != "" {
				pipe.SAdd(ctx, s.franchiseKey(merged.FranchiseID), merged.SessionID)
			}
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < upsertRetries; attempt++ {
		err = s.client.Watch(ctx, txn, key)
		if err == nil {
			return merged, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	return engagement.Snapshot{}, fmt.Errorf("upsert session %s: %w", snap.SessionID, err)
}

// Get returns a single session snapshot.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (engagement.Snapshot, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return engagement.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return engagement.Snapshot{}, fmt.Errorf("get session: %w", err)
	}
	var snap engagement.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return engagement.Snapshot{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return snap, nil
}

// ListByLead returns all sessions recorded for a buyer+franchise pair.
func (s *RedisStore) ListByLead(ctx context.Context, buyerID, franchiseID string) ([]engagement.Snapshot, error) {
	ids, err := s.client.SMembers(ctx, s.leadKey(buyerID, franchiseID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list lead sessions: %w", err)
	}
	return s.fetchSessions(ctx, ids)
}

// ListByFranchise returns all sessions recorded for a franchise, across
// every lead. Used by the question-search fallback.
func (s *RedisStore) ListByFranchise(ctx context.Context, franchiseID string) ([]engagement.Snapshot, error) {
	ids, err := s.client.SMembers(ctx, s.franchiseKey(franchiseID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list franchise sessions: %w", err)
	}
	return s.fetchSessions(ctx, ids)
}

func (s *RedisStore) fetchSessions(ctx context.Context, ids []string) ([]engagement.Snapshot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.sessionKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch sessions: %w", err)
	}

	snapshots := make([]engagement.Snapshot, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Index member without a backing record; skip rather than fail the read.
			continue
		}
		var snap engagement.Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			return nil, fmt.Errorf("unmarshal session: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
