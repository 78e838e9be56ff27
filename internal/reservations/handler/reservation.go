package handler

import (
	"encoding/json"
	"net/http"

	"limito/internal/reservations/service"
	"limito/pkg/config"
	apperrors "limito/pkg/errors"
	httputil "limito/pkg/http"
	"limito/pkg/logger"
	"limito/pkg/middleware"
	"limito/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service service.ReservationService
	limiter *middleware.RateLimiter
	cfg     *config.Config
	log     *logger.Logger
}

func NewReservationHandler(svc service.ReservationService, limiter *middleware.RateLimiter, cfg *config.Config) *ReservationHandler {
	return &ReservationHandler{
		service: svc,
		limiter: limiter,
		cfg:     cfg,
		log:     cfg.Log,
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	writeLimit := middleware.LimitRoute(h.limiter, "cart-write", h.cfg.WriteRate.Limit, h.cfg.WriteRate.Window)
	readLimit := middleware.LimitRoute(h.limiter, "cart-read", h.cfg.ReadRate.Limit, h.cfg.ReadRate.Window)

	router.POST("/cart/reserve", writeLimit(h.Reserve))
	router.POST("/cart/release", writeLimit(h.Release))
	router.POST("/cart/validate", readLimit(h.ValidateCart))
	router.POST("/cart/clear-reservations", h.ClearAll)
}

func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteCartError(w, http.StatusBadRequest, "Invalid request body", nil); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Reserve", "error", writeErr)
		}
		return
	}

	available, err := h.service.Reserve(r.Context(), &req)
	if err != nil {
		h.writeCartFailure(w, "Reserve", err)
		return
	}

	if err := httputil.WriteCartSuccess(w, &available); err != nil {
		h.log.Error("failed to write success response", "handler", "Reserve", "error", err)
	}
}

func (h *ReservationHandler) Release(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteCartError(w, http.StatusBadRequest, "Invalid request body", nil); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Release", "error", writeErr)
		}
		return
	}

	if err := h.service.Release(r.Context(), &req); err != nil {
		h.writeCartFailure(w, "Release", err)
		return
	}

	if err := httputil.WriteCartSuccess(w, nil); err != nil {
		h.log.Error("failed to write success response", "handler", "Release", "error", err)
	}
}

// ValidateCart always answers 200: a cart that cannot be verified is pruned
// to empty, never trusted.
func (h *ReservationHandler) ValidateCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ValidateRequest
	valid := []model.CartItem{}

	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		valid = h.service.ValidateCart(r.Context(), req.SessionID, req.Items)
	}

	items := make([]httputil.CartItemRef, 0, len(valid))
	for _, item := range valid {
		items = append(items, httputil.CartItemRef{ProductID: item.ProductID, Color: item.Color})
	}

	if err := httputil.WriteJSON(w, http.StatusOK, httputil.ValidateResponse{ValidItems: items}); err != nil {
		h.log.Error("failed to write response", "handler", "ValidateCart", "error", err)
	}
}

func (h *ReservationHandler) ClearAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.service.ClearAll(r.Context()); err != nil {
		h.writeCartFailure(w, "ClearAll", err)
		return
	}

	if err := httputil.WriteCartSuccess(w, nil); err != nil {
		h.log.Error("failed to write success response", "handler", "ClearAll", "error", err)
	}
}

func (h *ReservationHandler) writeCartFailure(w http.ResponseWriter, handler string, err error) {
	appErr := apperrors.AsAppError(err)

	var available *int
	if n, ok := apperrors.AvailableFromDetails(appErr); ok {
		available = &n
	}

	message := appErr.Message
	if appErr.Code == apperrors.CodeInternal {
		// Detail stays in the server logs.
		message = "Internal server error"
	}

	if writeErr := httputil.WriteCartError(w, appErr.StatusCode(), message, available); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "error", writeErr)
	}
}
