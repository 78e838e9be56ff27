package client

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"limito/pkg/logger"

	_ "github.com/lib/pq"
)

// SetPostgres connects the durable relational store. It is the sole source
// of truth for the reservation ledger; everything else is best-effort.
func (c *Client) SetPostgres(log *logger.Logger, dsn string) {
	c.log = log

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("Failed to open Postgres connection", "error", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping Postgres", "error", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Info("Successfully connected to Postgres")
	c.Postgres = db
}

// RunMigrations applies every .sql file in the migrations directory in
// lexical order. Files are written to be re-runnable (IF NOT EXISTS /
// ON CONFLICT DO NOTHING).
func (c *Client) RunMigrations(migrationsDir string) error {
	if migrationsDir == "" {
		return fmt.Errorf("migrations directory not specified")
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		c.log.Warn("No migration files found", "dir", migrationsDir)
		return nil
	}

	for _, name := range files {
		content, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := c.Postgres.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		c.log.Info("Applied migration", "file", name)
	}

	return nil
}
