package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/foxcode/shorter/internal/middleware"
	"github.com/foxcode/shorter/internal/models"
	"github.com/foxcode/shorter/internal/services"
	"github.com/foxcode/shorter/internal/store"
)

const maxBodyBytes = 1_048_576

// decodeJSON reads exactly one JSON object into dst. It writes the error
// response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}

// queryLimit reads the optional limit query parameter, falling back to def
// and clamping to max when max is positive. It writes 400 for a malformed
// value and reports false.
func queryLimit(w http.ResponseWriter, r *http.Request, def, max int) (int, bool) {
	limit := def
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			services.SendErrorResponse(w, "limit must be a positive integer", http.StatusBadRequest, nil)
			return 0, false
		}
		limit = n
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit, true
}

// principalFor returns the caller if it may act for identity. Otherwise it
// writes 401 or 403 and returns false.
func principalFor(w http.ResponseWriter, r *http.Request, identity string) (middleware.Principal, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return p, false
	}
	if !p.CanActFor(identity) {
		services.SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return p, false
	}
	return p, true
}

// sendServiceError maps an error kind onto a status code. Internal details of
// unexpected failures are logged, not returned.
func sendServiceError(w http.ResponseWriter, tag string, err error) {
	var rbErr *store.RollbackError
	switch {
	case errors.As(err, &rbErr):
		log.Printf("[%s] CRITICAL: %v", tag, err)
		services.SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
	case errors.Is(err, models.ErrInvalidInput):
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, models.ErrNotFound):
		services.SendErrorResponse(w, "Not found", http.StatusNotFound, nil)
	case errors.Is(err, models.ErrInsufficientFunds):
		services.SendErrorResponse(w, "Insufficient balance", http.StatusPaymentRequired, nil)
	case errors.Is(err, models.ErrAccountInactive):
		services.SendErrorResponse(w, "Account is not active", http.StatusForbidden, nil)
	case errors.Is(err, models.ErrAlreadyProcessed):
		services.SendErrorResponse(w, "Payment already processed", http.StatusConflict, nil)
	case errors.Is(err, models.ErrRateLimited):
		services.SendErrorResponse(w, err.Error(), http.StatusTooManyRequests, nil)
	case models.IsTransient(err):
		log.Printf("[%s] transient storage failure: %v", tag, err)
		w.Header().Set("Retry-After", "1")
		services.SendErrorResponse(w, "Service temporarily unavailable", http.StatusServiceUnavailable, nil)
	default:
		log.Printf("[%s] internal error: %v", tag, err)
		services.SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
	}
}
