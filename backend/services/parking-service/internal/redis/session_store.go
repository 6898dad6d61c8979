package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vehicleparking/backend/services/parking-service/internal/models"
)

// ErrSessionNotFound indicates a missing or expired session.
var ErrSessionNotFound = errors.New("session not found")

// Store keeps login sessions in redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store. A zero ttl keeps sessions until deleted.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl < 0 {
		ttl = 0
	}
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(sessionID string) string {
	return fmt.Sprintf("parking:session:%s", sessionID)
}

// Save stores session.
func (s *Store) Save(ctx context.Context, session models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.ID), data, s.ttl).Err()
}

// Get returns stored session.
func (s *Store) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	result, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var session models.Session
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes session. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}
