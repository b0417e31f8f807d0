package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const statusCacheTTL = 24 * time.Hour

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func orderKey(orderNo string) string {
	return fmt.Sprintf("order:%s", orderNo)
}

// SetOrderStatus writes the order status and owning client through to the
// cache. Transitions call this after the conditional update applies so the
// poll endpoint serves fresh state without a storage round trip.
func (c *Client) SetOrderStatus(ctx context.Context, orderNo, status, clientID string) error {
	key := orderKey(orderNo)

	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, "status", status)
	pipe.HSet(ctx, key, "client_id", clientID)
	pipe.Expire(ctx, key, statusCacheTTL)

	_, err := pipe.Exec(ctx)
	return err
}

// GetOrderStatus retrieves cached status and client id. A cache miss returns
// empty strings and no error; callers fall back to the store.
func (c *Client) GetOrderStatus(ctx context.Context, orderNo string) (status, clientID string, err error) {
	result, err := c.rdb.HGetAll(ctx, orderKey(orderNo)).Result()
	if err != nil {
		return "", "", err
	}
	if len(result) == 0 {
		return "", "", nil
	}
	return result["status"], result["client_id"], nil
}
