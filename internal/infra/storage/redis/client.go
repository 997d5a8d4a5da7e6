// Package redis backs the mint idempotency guard with a Redis instance, so a
// transfer log re-delivered by the node is only reacted to once.
package redis

import (
	"context"

	redis "github.com/redis/go-redis/v9"
)

type client struct {
	conn *redis.Client
}

func (c *client) Close() error {
	return c.conn.Close()
}

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, addr, username, password string, db int) (*client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &client{
		conn: conn,
	}, nil
}
