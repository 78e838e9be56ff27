package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	reserrors "limito/internal/reservations/errors"
	"limito/pkg/config"
	"limito/pkg/model"
)

// ReservationRepository is the durable hold ledger. Reserve must be atomic:
// the stock invariant is enforced by the store's transaction, never by
// application-level locking, because concurrent reserves for the same color
// can land on different process instances.
type ReservationRepository interface {
	// Reserve upserts the (product, color, session) hold if enough stock is
	// free after counting every other session's live holds. On success it
	// returns the availability left after this hold; on ErrInsufficientStock
	// it returns the current availability so the caller can report it.
	Reserve(ctx context.Context, res *model.Reservation) (int, error)
	Release(ctx context.Context, productID, color, sessionID string) error
	LiveItemsBySession(ctx context.Context, sessionID string) ([]model.CartItem, error)
	ClearAll(ctx context.Context) error
}

type postgresReservationRepository struct {
	cfg *config.Config
	db  *sql.DB
}

func NewPostgresReservationRepository(cfg *config.Config) ReservationRepository {
	return &postgresReservationRepository{
		cfg: cfg,
		db:  cfg.Client.Postgres,
	}
}

func (r *postgresReservationRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *postgresReservationRepository) Reserve(ctx context.Context, res *model.Reservation) (int, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin reserve transaction: %w", err)
	}
	defer tx.Rollback()

	// Locking the color row serializes every concurrent reserve for this
	// color inside Postgres, regardless of which instance handles it.
	var totalStock int
	err = tx.QueryRowContext(ctx,
		`SELECT total_stock FROM color_variants WHERE product_id = $1 AND name = $2 FOR UPDATE`,
		res.ProductID, res.Color,
	).Scan(&totalStock)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, reserrors.ErrUnknownProduct
		}
		return 0, fmt.Errorf("failed to lock color variant: %w", err)
	}

	// Lazy expiry reclamation: expired rows for this color are physically
	// removed on the write that touches it, never by a scheduler.
	_, err = tx.ExecContext(ctx,
		`DELETE FROM reservations WHERE product_id = $1 AND color = $2 AND expires_at <= now()`,
		res.ProductID, res.Color,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim expired reservations: %w", err)
	}

	// Replace-and-extend semantics: the caller's own hold does not count
	// against it, so re-sending the cart's quantity always succeeds while
	// stock lasts.
	var othersHeld int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0)
         FROM reservations
         WHERE product_id = $1 AND color = $2 AND session_id <> $3 AND expires_at > now()`,
		res.ProductID, res.Color, res.SessionID,
	).Scan(&othersHeld)
	if err != nil {
		return 0, fmt.Errorf("failed to sum live reservations: %w", err)
	}

	available := totalStock - othersHeld
	if available < 0 {
		available = 0
	}
	if res.Quantity > available {
		return available, reserrors.ErrInsufficientStock
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reservations (product_id, color, session_id, quantity, created_at, expires_at)
         VALUES ($1, $2, $3, $4, now(), $5)
         ON CONFLICT (product_id, color, session_id)
         DO UPDATE SET quantity = EXCLUDED.quantity, expires_at = EXCLUDED.expires_at`,
		res.ProductID, res.Color, res.SessionID, res.Quantity, res.ExpiresAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reserve transaction: %w", err)
	}

	return available - res.Quantity, nil
}

func (r *postgresReservationRepository) Release(ctx context.Context, productID, color, sessionID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	// Idempotent: deleting an absent or already-expired hold is a no-op.
	// Expired siblings on the same color are reclaimed opportunistically.
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM reservations
         WHERE product_id = $1 AND color = $2 AND (session_id = $3 OR expires_at <= now())`,
		productID, color, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}
	return nil
}

func (r *postgresReservationRepository) LiveItemsBySession(ctx context.Context, sessionID string) ([]model.CartItem, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, color FROM reservations WHERE session_id = $1 AND expires_at > now()`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query session reservations: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var item model.CartItem
		if err := rows.Scan(&item.ProductID, &item.Color); err != nil {
			return nil, fmt.Errorf("failed to scan session reservation: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session reservations: %w", err)
	}

	return items, nil
}

func (r *postgresReservationRepository) ClearAll(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM reservations`); err != nil {
		return fmt.Errorf("failed to clear reservations: %w", err)
	}
	return nil
}
