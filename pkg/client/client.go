package client

import (
	"database/sql"

	"limito/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Client holds the external store connections shared across the application.
type Client struct {
	Postgres *sql.DB
	Redis    *redis.Client

	log *logger.Logger
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) GracefulShutdown() {
	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil {
			c.log.Warn("Error closing Postgres connection", "error", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.log.Warn("Error closing Redis client", "error", err)
		}
	}
}
