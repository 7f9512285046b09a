package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StoredResponse is a response kept for replay under an Idempotency-Key.
type StoredResponse struct {
	Status  int               `json:"status"`
	Body    []byte            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// IdempotencyStore keeps replayable responses and in-flight locks in Redis.
type IdempotencyStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewIdempotencyStore(client redis.UniversalClient, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

func dataKey(key string) string { return "idempotency:data:" + key }

func lockKey(key string) string { return "idempotency:lock:" + key }

// Lookup returns the stored response for key, or nil on a miss.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (*StoredResponse, error) {
	payload, err := s.client.Get(ctx, dataKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var resp StoredResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode stored response: %w", err)
	}
	return &resp, nil
}

// Reserve takes the in-flight lock for key. False means another request holds it.
func (s *IdempotencyStore) Reserve(ctx context.Context, key, requestID string) (bool, error) {
	return s.client.SetNX(ctx, lockKey(key), requestID, s.ttl).Result()
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, lockKey(key)).Err()
}

func (s *IdempotencyStore) Save(ctx context.Context, key string, resp StoredResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, dataKey(key), payload, s.ttl).Err()
}
