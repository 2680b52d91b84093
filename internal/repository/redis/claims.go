package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "crm:webhook:"

// ClaimStore реализует repository.ClaimStore на Redis через SET NX с TTL
type ClaimStore struct {
	client *goredis.Client
}

// NewClaimStore создает новый экземпляр ClaimStore
func NewClaimStore(client *goredis.Client) *ClaimStore {
	return &ClaimStore{client: client}
}

// NewClient создает клиент Redis с настройками пула
func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

func claimKey(provider, deliveryID string) string {
	return keyPrefix + provider + ":" + deliveryID
}

// Claim занимает доставку, возвращает false если ключ уже существует
func (s *ClaimStore) Claim(ctx context.Context, provider, deliveryID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, claimKey(provider, deliveryID), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim failed: %w", err)
	}
	return ok, nil
}

// Release освобождает claim
func (s *ClaimStore) Release(ctx context.Context, provider, deliveryID string) error {
	if err := s.client.Del(ctx, claimKey(provider, deliveryID)).Err(); err != nil {
		return fmt.Errorf("redis release failed: %w", err)
	}
	return nil
}

// Ping проверяет подключение к Redis
func (s *ClaimStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
