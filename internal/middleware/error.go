package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	logpkg "github.com/SebastianMoseres/Praxable/internal/logger"
	"github.com/SebastianMoseres/Praxable/internal/request"
	"go.uber.org/zap"
)

// ErrorResponse is the body written when middleware rejects a request.
// It carries the same success/error/message keys as handler errors.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler turns a panicking handler into a 500. http.ErrAbortHandler
// is re-raised so the server aborts the response as the handler asked.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic_recovered",
					zap.String("panic", logpkg.SanitizeString(fmt.Sprint(rec), logpkg.MaxErrorMessageLength)),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("request_id", request.RequestID(r.Context())),
					zap.Stack("stack"),
				)
				writeError(w, r, http.StatusInternalServerError, "An unexpected error occurred", logger)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an ErrorResponse whose error field is the status text
func writeError(w http.ResponseWriter, r *http.Request, status int, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
		RequestID: request.RequestID(r.Context()),
	}
	if err := json.NewEncoder(w).Encode(body); err != nil && logger != nil {
		logger.Warn("failed_to_encode_error_response",
			zap.Int("status_code", status),
			zap.Error(err),
		)
	}
}
