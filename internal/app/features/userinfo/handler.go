// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	uierrors "github.com/dalemusser/admitportal/internal/app/features/errors"
	"github.com/dalemusser/admitportal/internal/app/system/auth"
)

// Handler answers session probes.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Me is the body of GET /me.
type Me struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
}

// ServeMe reports who the session belongs to. Anonymous callers get 200 with
// isAuthenticated=false, not 401.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	var me Me
	if u, ok := auth.CurrentUser(r); ok {
		me = Me{IsAuthenticated: true, ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
	}
	uierrors.Write(w, http.StatusOK, me)
}
