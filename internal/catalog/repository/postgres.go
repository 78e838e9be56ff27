package repository

import (
	"context"
	"database/sql"
	"fmt"

	catalogerrors "limito/internal/catalog/errors"
	"limito/pkg/config"
	"limito/pkg/model"
)

// CatalogRepository reads products and their derived availability. The
// ledger is derived, never stored: available stock is total stock minus the
// sum of live holds, with liveness decided by the expiry predicate at read
// time.
type CatalogRepository interface {
	FindAllProducts(ctx context.Context) ([]*model.Product, error)
	AvailableStock(ctx context.Context, productID string) ([]model.ColorStock, error)
	FindPromo(ctx context.Context, code string) (*model.PromoCode, error)
}

type postgresCatalogRepository struct {
	cfg *config.Config
	db  *sql.DB
}

func NewPostgresCatalogRepository(cfg *config.Config) CatalogRepository {
	return &postgresCatalogRepository{
		cfg: cfg,
		db:  cfg.Client.Postgres,
	}
}

func (r *postgresCatalogRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.ReadTimeout)
}

func (r *postgresCatalogRepository) FindAllProducts(ctx context.Context) ([]*model.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
        SELECT p.id, p.name, p.is_available, cv.name, cv.total_stock,
               GREATEST(0, cv.total_stock - COALESCE(SUM(res.quantity) FILTER (WHERE res.expires_at > now()), 0))
        FROM products p
        JOIN color_variants cv ON cv.product_id = p.id
        LEFT JOIN reservations res ON res.product_id = cv.product_id AND res.color = cv.name
        GROUP BY p.id, p.name, p.is_available, cv.name, cv.total_stock
        ORDER BY p.id, cv.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	byID := make(map[string]*model.Product)

	for rows.Next() {
		var (
			id, name  string
			available bool
			variant   model.ColorVariant
		)
		if err := rows.Scan(&id, &name, &available, &variant.Name, &variant.TotalStock, &variant.AvailableStock); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}

		product, exists := byID[id]
		if !exists {
			product = &model.Product{ID: id, Name: name, IsAvailable: available}
			byID[id] = product
			products = append(products, product)
		}
		product.Colors = append(product.Colors, variant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product rows: %w", err)
	}

	return products, nil
}

func (r *postgresCatalogRepository) AvailableStock(ctx context.Context, productID string) ([]model.ColorStock, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	// GREATEST(0, ...) is a display safeguard only; a correctly serialized
	// reserve path never drives the ledger negative.
	rows, err := r.db.QueryContext(ctx, `
        SELECT cv.name,
               GREATEST(0, cv.total_stock - COALESCE(SUM(res.quantity) FILTER (WHERE res.expires_at > now()), 0))
        FROM color_variants cv
        LEFT JOIN reservations res ON res.product_id = cv.product_id AND res.color = cv.name
        WHERE cv.product_id = $1
        GROUP BY cv.name, cv.total_stock
        ORDER BY cv.name`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query available stock: %w", err)
	}
	defer rows.Close()

	var stock []model.ColorStock
	for rows.Next() {
		var cs model.ColorStock
		if err := rows.Scan(&cs.Name, &cs.AvailableStock); err != nil {
			return nil, fmt.Errorf("failed to scan stock row: %w", err)
		}
		stock = append(stock, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stock rows: %w", err)
	}

	if len(stock) == 0 {
		var exists bool
		err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check product existence: %w", err)
		}
		if !exists {
			return nil, catalogerrors.ErrProductNotFound
		}
	}

	return stock, nil
}

func (r *postgresCatalogRepository) FindPromo(ctx context.Context, code string) (*model.PromoCode, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	promo := &model.PromoCode{}
	var expiresAt sql.NullTime
	var usageCap sql.NullInt64

	err := r.db.QueryRowContext(ctx, `
        SELECT code, kind, active, expires_at, usage_cap, used_count
        FROM promo_codes
        WHERE code = $1`, code).
		Scan(&promo.Code, &promo.Kind, &promo.Active, &expiresAt, &usageCap, &promo.UsedCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalogerrors.ErrPromoNotFound
		}
		return nil, fmt.Errorf("failed to query promo code: %w", err)
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		promo.ExpiresAt = &t
	}
	if usageCap.Valid {
		limit := int(usageCap.Int64)
		promo.UsageCap = &limit
	}

	return promo, nil
}
