package handler

import (
	"encoding/json"
	"net/http"

	"limito/internal/catalog/service"
	"limito/pkg/config"
	httputil "limito/pkg/http"
	"limito/pkg/logger"
	"limito/pkg/middleware"
	"limito/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CatalogHandler struct {
	service service.CatalogService
	limiter *middleware.RateLimiter
	cfg     *config.Config
	log     *logger.Logger
}

func NewCatalogHandler(svc service.CatalogService, limiter *middleware.RateLimiter, cfg *config.Config) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		limiter: limiter,
		cfg:     cfg,
		log:     cfg.Log,
	}
}

func (h *CatalogHandler) RegisterRoutes(router *httprouter.Router) {
	readLimit := middleware.LimitRoute(h.limiter, "catalog-read", h.cfg.ReadRate.Limit, h.cfg.ReadRate.Window)
	promoLimit := middleware.LimitRoute(h.limiter, "promo-validate", h.cfg.PromoRate.Limit, h.cfg.PromoRate.Window)

	router.GET("/products", readLimit(h.ListProducts))
	router.GET("/products/available-stock", readLimit(h.AvailableStock))
	router.POST("/promo/validate", promoLimit(h.ValidatePromo))
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListProducts", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, products); err != nil {
		h.log.Error("failed to write success response", "handler", "ListProducts", "error", err)
	}
}

type availableStockResponse struct {
	AvailableStock []model.ColorStock `json:"availableStock"`
}

func (h *CatalogHandler) AvailableStock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	productID := r.URL.Query().Get("productId")

	stock, err := h.service.AvailableStock(r.Context(), productID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "AvailableStock", "error", writeErr)
		}
		return
	}

	if stock == nil {
		stock = []model.ColorStock{}
	}

	if err := httputil.WriteJSON(w, http.StatusOK, availableStockResponse{AvailableStock: stock}); err != nil {
		h.log.Error("failed to write response", "handler", "AvailableStock", "error", err)
	}
}

type promoValidateResponse struct {
	Valid bool   `json:"valid"`
	Kind  string `json:"kind,omitempty"`
}

func (h *CatalogHandler) ValidatePromo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PromoValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ValidatePromo", "error", writeErr)
		}
		return
	}

	promo, err := h.service.ValidatePromo(r.Context(), req.Code)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ValidatePromo", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, promoValidateResponse{Valid: true, Kind: promo.Kind}); err != nil {
		h.log.Error("failed to write response", "handler", "ValidatePromo", "error", err)
	}
}
