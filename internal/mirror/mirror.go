// Package mirror feeds reservation mutations to the legacy spreadsheet
// replica. The relational store is the sole source of truth; the mirror is
// an asynchronous, best-effort copy and never participates in the reserve
// transaction.
package mirror

import (
	"context"
	"time"
)

const (
	EventReserved = "reservation.reserved"
	EventReleased = "reservation.released"
	EventCleared  = "reservations.cleared"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	ProductID  string    `json:"productId,omitempty"`
	Color      string    `json:"color,omitempty"`
	SessionID  string    `json:"sessionId,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
}

// Feed delivers mutation events to whatever keeps the mirror current.
type Feed interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Sheet is the spreadsheet surface the replica worker writes to. Its
// implementation lives with the worker, outside this service.
type Sheet interface {
	ReadRange(ctx context.Context, rng string) ([][]string, error)
	AppendRow(ctx context.Context, rng string, row []string) error
	UpdateRange(ctx context.Context, rng string, rows [][]string) error
}

// NopFeed drops events; used when no brokers are configured.
type NopFeed struct{}

func (NopFeed) Publish(context.Context, Event) error { return nil }
func (NopFeed) Close() error                         { return nil }
