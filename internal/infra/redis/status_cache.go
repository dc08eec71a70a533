package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/seqgate/internal/core/domain"
)

// StatusCache stores terminal transaction statuses in Redis, one key per
// network and hash.
type StatusCache struct {
	rdb     *redis.Client
	network string
}

// NewStatusCache creates a cache scoped to one network.
func NewStatusCache(client *Client, network string) *StatusCache {
	return &StatusCache{
		rdb:     client.rdb,
		network: network,
	}
}

func statusKey(network string, hash domain.TxHash) string {
	return fmt.Sprintf("tx_status:%s:%s", network, hash)
}

// Get returns the cached status of hash.
func (c *StatusCache) Get(ctx context.Context, hash domain.TxHash) (*domain.StatusResponse, bool, error) {
	val, err := c.rdb.Get(ctx, statusKey(c.network, hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get failed: %w", err)
	}

	resp, err := decodeStatus(val)
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

// Set stores resp. A zero ttl keeps the key until evicted.
func (c *StatusCache) Set(ctx context.Context, hash domain.TxHash, resp *domain.StatusResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	if err := c.rdb.Set(ctx, statusKey(c.network, hash), data, ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// Delete drops the cached status of hash.
func (c *StatusCache) Delete(ctx context.Context, hash domain.TxHash) error {
	return c.rdb.Del(ctx, statusKey(c.network, hash)).Err()
}

func decodeStatus(data []byte) (*domain.StatusResponse, error) {
	var resp domain.StatusResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	if _, err := domain.ParseTxStatus(string(resp.Status)); err != nil {
		return nil, fmt.Errorf("cached status: %w", err)
	}
	return &resp, nil
}
