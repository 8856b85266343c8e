package httputil

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/redmonkez12/taskapi/internal/apperror"
	"github.com/redmonkez12/taskapi/internal/logging"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error  string                `json:"error"`
	Code   string                `json:"code,omitempty"`
	Errors []apperror.FieldError `json:"errors,omitempty"`
}

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondErrorWithCode sends a JSON error response with a machine-readable error code.
func RespondErrorWithCode(w http.ResponseWriter, message string, code string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message, Code: code}, statusCode)
}

// RespondAppError writes err as an error response. Application errors keep
// their status, code and message; internal and unknown errors are logged with
// full detail and answered with a generic message.
func RespondAppError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.GetLoggerFromContext(r.Context())

	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind == apperror.KindInternal {
		logger.Error("request failed: internal error", "error", err.Error())
		RespondErrorWithCode(w, "server error", apperror.CodeInternalError, http.StatusInternalServerError)
		return
	}

	RespondJSON(w, ErrorResponse{
		Error:  appErr.Message,
		Code:   appErr.Code,
		Errors: appErr.Fields,
	}, appErr.StatusCode())
}
