package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/servicehand/internal/models"
)

// Principal is the authenticated identity attached to a session.
type Principal struct {
	AccountID uuid.UUID   `json:"account_id"`
	Role      models.Role `json:"role"`
}

// SessionStore tracks live session ids so that logout ends a session
// before its token expires.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, p Principal, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore keeps sessions in Redis under session:<id>.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisClient creates a Redis client and checks the connection.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	options := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}

	if password != "" {
		options.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	client := redis.NewClient(options)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisSessionStore constructs a RedisSessionStore.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, p Principal, ttl time.Duration) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sessionID), payload, ttl).Err()
}

func (s *RedisSessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	err := s.client.Get(ctx, sessionKey(sessionID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}

// StatelessSessionStore accepts every signed token until it expires. Logout
// can only clear the client cookie. Used when Redis is not configured.
type StatelessSessionStore struct{}

func (StatelessSessionStore) Save(context.Context, string, Principal, time.Duration) error {
	return nil
}

func (StatelessSessionStore) Exists(context.Context, string) (bool, error) {
	return true, nil
}

func (StatelessSessionStore) Delete(context.Context, string) error {
	return nil
}
