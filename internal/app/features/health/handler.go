// internal/app/features/health/handler.go
package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/admitportal/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Pinger is the storage check the health endpoint runs. *docstore.Store
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Store   Pinger
	Version string
	Log     *zap.Logger
}

// NewHandler constructs a health Handler over the document store.
func NewHandler(store Pinger, version string, logger *zap.Logger) *Handler {
	return &Handler{
		Store:   store,
		Version: version,
		Log:     logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Version string `json:"version,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "storage":"available", "version":"..." }
//
// When the store is closed or its directory is unreadable: 503 and
//
//	{ "status":"error", "storage":"unavailable", "message":"Storage unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:  "ok",
		Storage: "available",
		Version: h.Version,
	}

	if err := h.Store.Ping(ctx); err != nil {
		h.Log.Error("health-check: store ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Storage = "unavailable"
		resp.Message = "Storage unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	_ = json.NewEncoder(w).Encode(resp)
}
