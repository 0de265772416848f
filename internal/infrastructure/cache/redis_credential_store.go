package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/kitsbundles/backend/internal/domain/credential"
	"github.com/kitsbundles/backend/internal/domain/shared"
)

// moveFieldScript moves one hash field from KEYS[1] to KEYS[2]. It returns 1 when the
// field existed.
var moveFieldScript = redis.NewScript(`
local v = redis.call('HGET', KEYS[1], ARGV[1])
if not v then
  return 0
end
redis.call('HSET', KEYS[2], ARGV[1], v)
redis.call('HDEL', KEYS[1], ARGV[1])
return 1
`)

// RedisCredentialStore keeps app credentials in two Redis hashes keyed by API URL: one
// for active tenants and one for uninstalled ones.
type RedisCredentialStore struct {
	client      redis.UniversalClient
	activeKey   string
	inactiveKey string
}

var _ credential.Store = (*RedisCredentialStore)(nil)

// NewRedisCredentialStore creates a store for appName under keyPrefix.
func NewRedisCredentialStore(client redis.UniversalClient, keyPrefix, appName string) *RedisCredentialStore {
	if appName == "" {
		appName = credential.DefaultAppName
	}
	active := keyPrefix + "apl:" + appName
	return &RedisCredentialStore{
		client:      client,
		activeKey:   active,
		inactiveKey: active + ":inactive",
	}
}

func (s *RedisCredentialStore) Get(ctx context.Context, saleorAPIURL string) (*credential.AuthData, error) {
	raw, err := s.client.HGet(ctx, s.activeKey, saleorAPIURL).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: no active credentials for %s", shared.ErrNotFound, saleorAPIURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	return decodeAuthData(saleorAPIURL, raw)
}

func (s *RedisCredentialStore) Set(ctx context.Context, data *credential.AuthData) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.activeKey, data.SaleorAPIURL, string(raw))
		pipe.HDel(ctx, s.inactiveKey, data.SaleorAPIURL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}

// Delete moves the tenant to the inactive hash. Deleting an unknown tenant is a no-op.
func (s *RedisCredentialStore) Delete(ctx context.Context, saleorAPIURL string) error {
	if _, err := s.move(ctx, s.activeKey, s.inactiveKey, saleorAPIURL); err != nil {
		return fmt.Errorf("failed to deactivate credentials: %w", err)
	}
	return nil
}

func (s *RedisCredentialStore) Activate(ctx context.Context, saleorAPIURL string) error {
	moved, err := s.move(ctx, s.inactiveKey, s.activeKey, saleorAPIURL)
	if err != nil {
		return fmt.Errorf("failed to activate credentials: %w", err)
	}
	if moved {
		return nil
	}
	// already active counts as activated
	exists, err := s.client.HExists(ctx, s.activeKey, saleorAPIURL).Result()
	if err != nil {
		return fmt.Errorf("failed to activate credentials: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: no credentials stored for %s", shared.ErrNotFound, saleorAPIURL)
	}
	return nil
}

func (s *RedisCredentialStore) move(ctx context.Context, from, to, field string) (bool, error) {
	n, err := moveFieldScript.Run(ctx, s.client, []string{from, to}, field).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetAll lists the active tenants ordered by API URL.
func (s *RedisCredentialStore) GetAll(ctx context.Context) ([]credential.AuthData, error) {
	entries, err := s.client.HGetAll(ctx, s.activeKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	urls := make([]string, 0, len(entries))
	for url := range entries {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	out := make([]credential.AuthData, 0, len(urls))
	for _, url := range urls {
		data, err := decodeAuthData(url, entries[url])
		if err != nil {
			return nil, err
		}
		out = append(out, *data)
	}
	return out, nil
}

func (s *RedisCredentialStore) IsReady(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func decodeAuthData(saleorAPIURL, raw string) (*credential.AuthData, error) {
	var data credential.AuthData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("invalid credentials for %s: %w", saleorAPIURL, err)
	}
	return &data, nil
}
