package service

import (
	"context"
	"errors"
	"time"

	catalogerrors "limito/internal/catalog/errors"
	"limito/internal/catalog/repository"
	"limito/pkg/cache"
	"limito/pkg/config"
	apperrors "limito/pkg/errors"
	"limito/pkg/model"
)

const productListKey = "all"

type CatalogService interface {
	ListProducts(ctx context.Context) ([]*model.Product, error)
	AvailableStock(ctx context.Context, productID string) ([]model.ColorStock, error)
	ValidatePromo(ctx context.Context, code string) (*model.PromoCode, error)
}

type catalogService struct {
	repo  repository.CatalogRepository
	cache *cache.Store
	cfg   *config.Config
}

func NewCatalogService(repo repository.CatalogRepository, cacheStore *cache.Store, cfg *config.Config) CatalogService {
	return &catalogService{
		repo:  repo,
		cache: cacheStore,
		cfg:   cfg,
	}
}

// ListProducts serves the listing with computed per-color availability from
// the products cache domain. Reservation mutations invalidate it; the TTL
// covers mutations made by other process instances.
func (s *catalogService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	if cached, ok := s.cache.Get(cache.DomainProducts, productListKey); ok {
		if products, ok := cached.([]*model.Product); ok {
			return products, nil
		}
	}

	products, err := s.repo.FindAllProducts(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list products", "error", err)
		return nil, apperrors.Internal("Failed to retrieve products", err)
	}

	s.cache.Set(cache.DomainProducts, productListKey, products)
	return products, nil
}

func (s *catalogService) AvailableStock(ctx context.Context, productID string) ([]model.ColorStock, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("productId is required")
	}

	if cached, ok := s.cache.Get(cache.DomainReservations, productID); ok {
		if stock, ok := cached.([]model.ColorStock); ok {
			return stock, nil
		}
	}

	stock, err := s.repo.AvailableStock(ctx, productID)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrProductNotFound) {
			return nil, apperrors.NotFoundWithID("Product", productID)
		}
		s.cfg.Log.Error("Failed to derive available stock", "product_id", productID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve available stock", err)
	}

	s.cache.Set(cache.DomainReservations, productID, stock)
	return stock, nil
}

// ValidatePromo checks a code without redeeming it; redemption bookkeeping
// belongs to the payment flow. Unknown and exhausted codes answer the same
// way so the endpoint cannot be used to enumerate codes.
func (s *catalogService) ValidatePromo(ctx context.Context, code string) (*model.PromoCode, error) {
	if code == "" {
		return nil, apperrors.InvalidInput("code is required")
	}

	promo, err := s.repo.FindPromo(ctx, code)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrPromoNotFound) {
			return nil, apperrors.Validation("Promo code is invalid or expired", nil)
		}
		s.cfg.Log.Error("Failed to look up promo code", "error", err)
		return nil, apperrors.Internal("Failed to validate promo code", err)
	}

	if !promo.Usable(time.Now()) {
		return nil, apperrors.Validation("Promo code is invalid or expired", nil)
	}

	return promo, nil
}
