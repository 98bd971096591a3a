// Package http provides HTTP utilities including chi-compatible error handling
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/KeKeBossa/academia-chain-sub001/internal/metrics"
	apperrors "github.com/KeKeBossa/academia-chain-sub001/pkg/app/errors"
)

// HandlerFunc defines a function that returns an error for clean error handling
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// HandleError wraps an error-returning HandlerFunc into a standard http.HandlerFunc
// This allows using clean error-returning handlers with any router (chi, http.ServeMux, etc.)
//
// Usage with chi:
//
//	r.Post("/auth/challenge", http.HandleError(handler.issueChallenge))
func HandleError(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			DefaultErrorHandler(w, err)
		}
	}
}

// DefaultErrorHandler handles errors returned from HTTP handlers.
// Auth and credential failures are surfaced verbatim: callers need to
// distinguish expired from replayed from bad-signature outcomes.
func DefaultErrorHandler(w http.ResponseWriter, err error) {
	var svcErr *apperrors.ServiceError

	type errorResponse struct {
		ErrMsg      string `json:"error"`
		ErrCategory string `json:"category"`
		ErrMsgCode  int    `json:"code"`
	}

	if errors.As(err, &svcErr) {
		metrics.ErrorsTotal.WithLabelValues("http", svcErr.Category.String()).Inc()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(svcErr.StatusCode())
		_ = json.NewEncoder(w).Encode(&errorResponse{
			ErrMsg:      svcErr.Message,
			ErrCategory: svcErr.Category.String(),
			ErrMsgCode:  svcErr.StatusCode(),
		})
		return
	}

	metrics.ErrorsTotal.WithLabelValues("http", apperrors.CategoryGeneralError.String()).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(&errorResponse{
		ErrMsg:      "Unexpected Service Error",
		ErrCategory: apperrors.CategoryGeneralError.String(),
		ErrMsgCode:  http.StatusInternalServerError,
	})
}

// WriteJSON writes data as a JSON response with the given status
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
