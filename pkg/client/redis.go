package client

import (
	"context"
	"time"

	"limito/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// SetRedis connects the optional shared counter store used to promote
// rate-limit buckets across process instances. The application runs without
// it; callers must tolerate c.Redis being nil.
func (c *Client) SetRedis(log *logger.Logger, addr, password string, db int) {
	c.log = log

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		log.Fatal("Failed to ping Redis", "error", err, "addr", addr)
	}

	log.Info("Successfully connected to Redis", "addr", addr)
	c.Redis = rdb
}
