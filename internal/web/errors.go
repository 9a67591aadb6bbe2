package web

// errors.go turns pipeline errors into HTTP responses.
//
// The technical error is logged with the request ID; the client gets the
// coded message from importer.MapError so support can find the log line.

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/JonMunkholm/catalog-import/internal/importer"
	"github.com/JonMunkholm/catalog-import/internal/logging"
)

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for an import error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, importer.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), isNetTimeout(err):
		return http.StatusGatewayTimeout
	case errors.Is(err, importer.ErrReferenceFetch):
		return http.StatusBadGateway
	case errors.Is(err, importer.ErrFileTooLarge),
		errors.Is(err, importer.ErrNoFile),
		errors.Is(err, importer.ErrUnsupportedFile),
		errors.Is(err, importer.ErrUnreadableFile),
		errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, importer.ErrHeaderConflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// respondError logs err and writes the mapped user message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := importer.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	// Coded failures (busy, timeout, backend down) are expected; only
	// errors that fall through to ERR000 are logged as errors.
	if !importer.IsUserFacing(err) {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
