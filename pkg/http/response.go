package http

import (
	"encoding/json"
	"net/http"

	apperrors "limito/pkg/errors"
)

type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data any `json:"data,omitempty"`
}

// CartResponse is the envelope for the cart mutation endpoints. Available is
// a pointer so it is omitted on the paths that have nothing to report.
type CartResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Available *int   `json:"available,omitempty"`
}

type ValidateResponse struct {
	ValidItems []CartItemRef `json:"validItems"`
}

type CartItemRef struct {
	ProductID string `json:"productId"`
	Color     string `json:"color"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; the caller can only log this.
		return err
	}
	return nil
}

func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)
	return WriteJSON(w, appErr.StatusCode(), ErrorResponse{
		Error:   appErr.Message,
		Details: appErr.Details,
	})
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCartSuccess(w http.ResponseWriter, available *int) error {
	return WriteJSON(w, http.StatusOK, CartResponse{
		Success:   true,
		Available: available,
	})
}

func WriteCartError(w http.ResponseWriter, statusCode int, message string, available *int) error {
	return WriteJSON(w, statusCode, CartResponse{
		Success:   false,
		Error:     message,
		Available: available,
	})
}
