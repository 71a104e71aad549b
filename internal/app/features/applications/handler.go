// internal/app/features/applications/handler.go
package applications

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	uierrors "github.com/dalemusser/admitportal/internal/app/features/errors"
	"github.com/dalemusser/admitportal/internal/app/system/authz"
	"github.com/dalemusser/admitportal/internal/app/system/idgen"
	"github.com/dalemusser/admitportal/internal/app/system/limits"
	"github.com/dalemusser/admitportal/internal/app/system/ratelimit"
	"github.com/dalemusser/admitportal/internal/app/workflow"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the applications JSON API.
type Handler struct {
	Svc    *workflow.Service
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	// Writes throttles mutating requests per user. Nil disables it.
	Writes *ratelimit.Limiter
}

// NewHandler constructs an applications Handler over the workflow service.
func NewHandler(svc *workflow.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:    svc,
		Log:    logger,
		ErrLog: errLog,
	}
}

// actor returns the signed-in actor or writes 401.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (workflow.Actor, bool) {
	a, ok := authz.Actor(r)
	if !ok {
		uierrors.Write(w, http.StatusUnauthorized, uierrors.Body{Error: "unauthorized", Message: "sign in required"})
		return workflow.Actor{}, false
	}
	return a, true
}

// pathID parses the {id} URL parameter. Malformed ids read as not found.
func pathID(r *http.Request) (primitive.ObjectID, error) {
	id, ok := idgen.ParseHex(chi.URLParam(r, "id"))
	if !ok {
		return primitive.NilObjectID, workflow.ErrNotFound
	}
	return id, nil
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &workflow.ValidationError{Field: "body", Reason: "request body is empty"}
		}
		return &workflow.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

// optionalID parses an id given in a body or query. "" and "all" mean unset.
func optionalID(field, raw string) (*primitive.ObjectID, error) {
	if raw == "" {
		return nil, nil
	}
	id, ok := idgen.ParseHex(raw)
	if !ok {
		return nil, &workflow.ValidationError{Field: field, Reason: "not a valid id"}
	}
	return &id, nil
}

func requiredID(field, raw string) (primitive.ObjectID, error) {
	id, err := optionalID(field, raw)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if id == nil {
		return primitive.NilObjectID, &workflow.ValidationError{Field: field, Reason: "is required"}
	}
	return *id, nil
}
