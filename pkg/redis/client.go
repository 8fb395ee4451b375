package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-reservation/config"
)

// Nil is returned by reads of a missing key.
const Nil = redis.Nil

type Client struct {
	cli *redis.Client
}

func NewClient(cfg config.RedisConfig) (*Client, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	return &Client{cli: cli}, nil
}

// Wrap adapts an existing go-redis client, mostly for tests.
func Wrap(cli *redis.Client) *Client {
	return &Client{cli: cli}
}

func (c *Client) GetClient() *redis.Client {
	return c.cli
}

func (c *Client) Ping(ctx context.Context) error {
	return c.cli.Ping(ctx).Err()
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	return c.cli.Get(ctx, key).Bytes()
}

func (c *Client) MGet(ctx context.Context, keys ...string) ([]any, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	return c.cli.MGet(ctx, keys...).Result()
}

func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	return c.cli.SMembers(ctx, key).Result()
}

func (c *Client) Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	return c.cli.Watch(ctx, fn, keys...)
}

func (c *Client) Close() error {
	return c.cli.Close()
}
