package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shoplane/shoplane/internal/domain"
)

// Error codes returned in API error responses.
const (
	CodeBadRequest           = "bad_request"
	CodeValidationFailed     = "validation_failed"
	CodeUnauthorized         = "unauthorized"
	CodeNotFound             = "not_found"
	CodeRetrievalUnavailable = "retrieval_unavailable"
	CodeInternalError        = "internal_error"
)

// ErrorResponse is the JSON body for every API error.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// safeDomainMessage strips internal detail from errors before they reach
// clients. Only sentinel messages pass through.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrInvalidItem,
		domain.ErrProductNotFound,
		domain.ErrJobNotFound,
		domain.ErrRetrievalUnavailable,
		domain.ErrSnapshotCorrupt,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
