// Package requestid tags every request with an X-Request-ID so log lines and
// error responses can be correlated.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Header is the request and response header carrying the id.
const Header = "X-Request-ID"

// maxLen bounds ids accepted from clients; longer ones are replaced.
const maxLen = 64

type ctxKey struct{}

// Middleware reuses a client-supplied id or generates a UUID, stores it on
// the context and echoes it in the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" || len(id) > maxLen {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// FromContext returns the request id, or "" outside a request.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Logger returns log annotated with the request id of ctx.
func Logger(ctx context.Context, log *zap.Logger) *zap.Logger {
	if id := FromContext(ctx); id != "" {
		return log.With(zap.String("request_id", id))
	}
	return log
}
