package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// ErrorBody represents a consistent error payload returned by the API.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data wraps v in the {"data": ...} envelope used by every success response.
func Data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, map[string]any{"data": v})
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteError maps err onto the canonical error body. AppErrors keep their
// code and status; anything else is logged and reported as a 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = "BAD_REQUEST"
		}
		if status >= http.StatusInternalServerError && r != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Str("code", code).Msg("request failed")
		}
		JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	if IsNoRows(err) {
		JSONError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		return
	}
	if r != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("unhandled error")
	}
	JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}
