package service

import (
	"context"
	"errors"
	"time"

	"limito/internal/mirror"
	reserrors "limito/internal/reservations/errors"
	"limito/internal/reservations/repository"
	"limito/internal/reservations/validator"
	"limito/pkg/cache"
	"limito/pkg/config"
	apperrors "limito/pkg/errors"
	"limito/pkg/model"
)

type ReservationService interface {
	// Reserve places or replaces the session's hold and returns the units
	// still available for the color afterwards.
	Reserve(ctx context.Context, req *model.ReserveRequest) (int, error)
	Release(ctx context.Context, req *model.ReleaseRequest) error
	// ValidateCart returns the subset of items the session holds live
	// reservations for. It never fails: on any error the cart is pruned to
	// empty rather than trusting client-held state.
	ValidateCart(ctx context.Context, sessionID string, items []model.CartItem) []model.CartItem
	ClearAll(ctx context.Context) error
}

type reservationService struct {
	repo      repository.ReservationRepository
	validator *validator.ReservationValidator
	cache     *cache.Store
	notifier  *mirror.Notifier
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	validator *validator.ReservationValidator,
	cacheStore *cache.Store,
	notifier *mirror.Notifier,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		validator: validator,
		cache:     cacheStore,
		notifier:  notifier,
		cfg:       cfg,
	}
}

func (s *reservationService) Reserve(ctx context.Context, req *model.ReserveRequest) (int, error) {
	quantity, err := s.validator.ValidateReserve(req)
	if err != nil {
		return 0, apperrors.Validation("Invalid reservation request", map[string]any{
			"error": err.Error(),
		})
	}

	now := time.Now().UTC()
	res := &model.Reservation{
		ProductID: req.ProductID,
		Color:     req.Color,
		SessionID: req.SessionID,
		Quantity:  quantity,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.ReservationTTL),
	}

	available, err := s.repo.Reserve(ctx, res)
	if err != nil {
		if errors.Is(err, reserrors.ErrUnknownProduct) {
			return 0, apperrors.NotFoundWithID("Product", req.ProductID)
		}
		if errors.Is(err, reserrors.ErrInsufficientStock) {
			s.cfg.Log.Info("Reservation refused, not enough stock",
				"product_id", req.ProductID,
				"color", req.Color,
				"requested", quantity,
				"available", available,
			)
			return available, apperrors.OutOfStock(available)
		}
		s.cfg.Log.Error("Failed to reserve stock",
			"product_id", req.ProductID,
			"color", req.Color,
			"error", err,
		)
		return 0, apperrors.Internal("Failed to reserve stock", err)
	}

	s.invalidateDerivedViews()
	s.notifier.ReservationChanged(mirror.EventReserved, req.ProductID, req.Color, req.SessionID, quantity)

	s.cfg.Log.Info("Reservation placed",
		"product_id", req.ProductID,
		"color", req.Color,
		"session_id", req.SessionID,
		"quantity", quantity,
		"available", available,
		"expires_at", res.ExpiresAt,
	)
	return available, nil
}

func (s *reservationService) Release(ctx context.Context, req *model.ReleaseRequest) error {
	if err := s.validator.ValidateRelease(req); err != nil {
		return apperrors.Validation("Invalid release request", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Release(ctx, req.ProductID, req.Color, req.SessionID); err != nil {
		s.cfg.Log.Error("Failed to release reservation",
			"product_id", req.ProductID,
			"color", req.Color,
			"error", err,
		)
		return apperrors.Internal("Failed to release reservation", err)
	}

	s.invalidateDerivedViews()
	s.notifier.ReservationChanged(mirror.EventReleased, req.ProductID, req.Color, req.SessionID, 0)

	s.cfg.Log.Info("Reservation released",
		"product_id", req.ProductID,
		"color", req.Color,
		"session_id", req.SessionID,
	)
	return nil
}

func (s *reservationService) ValidateCart(ctx context.Context, sessionID string, items []model.CartItem) []model.CartItem {
	if sessionID == "" || len(items) == 0 {
		return []model.CartItem{}
	}

	held, err := s.repo.LiveItemsBySession(ctx, sessionID)
	if err != nil {
		s.cfg.Log.Error("Failed to load session reservations, pruning cart",
			"session_id", sessionID,
			"error", err,
		)
		return []model.CartItem{}
	}

	heldSet := make(map[model.CartItem]struct{}, len(held))
	for _, item := range held {
		heldSet[item] = struct{}{}
	}

	valid := make([]model.CartItem, 0, len(items))
	for _, item := range items {
		if _, ok := heldSet[item]; ok {
			valid = append(valid, item)
		}
	}
	return valid
}

func (s *reservationService) ClearAll(ctx context.Context) error {
	if err := s.repo.ClearAll(ctx); err != nil {
		s.cfg.Log.Error("Failed to clear reservations", "error", err)
		return apperrors.Internal("Failed to clear reservations", err)
	}

	s.invalidateDerivedViews()
	s.notifier.ReservationChanged(mirror.EventCleared, "", "", "", 0)

	s.cfg.Log.Info("All reservations cleared")
	return nil
}

func (s *reservationService) invalidateDerivedViews() {
	s.cache.Invalidate(cache.DomainProducts, cache.DomainReservations)
}
