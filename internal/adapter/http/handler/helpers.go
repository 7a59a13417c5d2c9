package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/adapter/http/middleware"
	"github.com/iho/gowallet/internal/domain"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Message: message})
}

// writeFieldError writes a 422 whose single field carries message.
func writeFieldError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
		Message: message,
		Errors:  map[string][]string{field: {message}},
	})
}

// writeDomainError maps domain errors to HTTP responses. Business rule
// failures become 422 with the offending field; unknown errors become 500
// without leaking their text.
func writeDomainError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Message: validation.Error(),
			Errors:  validation.Fields,
		})
	case errors.Is(err, domain.ErrInvalidTransfer):
		writeFieldError(w, "receiver_id", err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		writeFieldError(w, "amount", err.Error())
	case errors.Is(err, domain.ErrInvalidAmount):
		writeFieldError(w, "amount", domain.FieldMessage(err))
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeFieldError(w, "email", "These credentials do not match our records.")
	case errors.Is(err, domain.ErrTransactionNotFound), errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "Not Found")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthenticated.")
	default:
		writeError(w, http.StatusInternalServerError, "Server Error")
	}
}

// statusFor reports the status writeDomainError would use.
func statusFor(err error) int {
	var validation *domain.ValidationError

	switch {
	case errors.As(err, &validation),
		errors.Is(err, domain.ErrInvalidTransfer),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTransactionNotFound), errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "The request body must be valid JSON.")
		return false
	}
	return true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseIDParam reads a positive integer path parameter.
func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// currentAccountID answers 401 when the request carries no account.
func currentAccountID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated.")
		return 0, false
	}
	return id, true
}
