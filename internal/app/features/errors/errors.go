// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"github.com/dalemusser/admitportal/internal/app/system/authz"
	"github.com/dalemusser/admitportal/internal/app/system/requestid"
	"github.com/dalemusser/admitportal/internal/app/workflow"
	"go.uber.org/zap"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Status maps an error from the workflow or the store onto an HTTP status
// and a machine-readable code.
func Status(err error) (int, string) {
	switch {
	case stderrors.Is(err, workflow.ErrNotFound), stderrors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case stderrors.Is(err, workflow.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case stderrors.Is(err, workflow.ErrDuplicateApplication):
		return http.StatusUnprocessableEntity, "duplicate_application"
	case stderrors.Is(err, workflow.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_failed"
	case stderrors.Is(err, docstore.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// ErrorLogger writes error responses and logs the ones that are not the
// caller's fault.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

// Respond writes err as JSON. Internal errors are logged with the request id
// and reported to the client without detail.
func (l *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, err error) {
	status, code := Status(err)
	body := Body{
		Error:     code,
		Message:   err.Error(),
		RequestID: requestid.FromContext(r.Context()),
	}
	var ve *workflow.ValidationError
	if stderrors.As(err, &ve) {
		body.Field = ve.Field
	}

	if status >= http.StatusInternalServerError {
		_, _, userID, _ := authz.UserCtx(r)
		requestid.Logger(r.Context(), l.Log).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("user_id", userID.Hex()),
			zap.Bool("storage_fault", docstore.IsStorageFault(err)),
			zap.Error(err))
		body.Message = http.StatusText(status)
	}
	Write(w, status, body)
}

// Write sends v as JSON with status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Handler serves the pages the session middleware redirects browsers to.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden answers GET /forbidden.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusForbidden, Body{
		Error:     "forbidden",
		Message:   "You don't have permission to view this page.",
		RequestID: requestid.FromContext(r.Context()),
	})
}

// Unauthorized answers GET /unauthorized.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusUnauthorized, Body{
		Error:     "unauthorized",
		Message:   "Please sign in to continue.",
		RequestID: requestid.FromContext(r.Context()),
	})
}
