package requestid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/admitportal/internal/app/system/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func serve(t *testing.T, incoming string) (seen, echoed string) {
	t.Helper()
	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	}))
	req := httptest.NewRequest("GET", "/applications", nil)
	if incoming != "" {
		req.Header.Set(requestid.Header, incoming)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return seen, rec.Header().Get(requestid.Header)
}

func TestMiddleware_Generates(t *testing.T) {
	seen, echoed := serve(t, "")
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("generated id %q is not a uuid: %v", seen, err)
	}
	if echoed != seen {
		t.Errorf("response header %q, context %q", echoed, seen)
	}
}

func TestMiddleware_ReusesClientID(t *testing.T) {
	seen, echoed := serve(t, "client-trace-17")
	if seen != "client-trace-17" || echoed != "client-trace-17" {
		t.Errorf("got context %q header %q, want client id", seen, echoed)
	}
}

func TestMiddleware_ReplacesOversizedID(t *testing.T) {
	long := strings.Repeat("x", 200)
	seen, _ := serve(t, long)
	if seen == long {
		t.Error("oversized id was accepted")
	}
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestid.Logger(r.Context(), log).Info("handled")
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestid.Header, "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if logs.Len() != 1 || logs.All()[0].ContextMap()["request_id"] != "abc" {
		t.Errorf("log entries = %+v", logs.All())
	}

	requestid.Logger(httptest.NewRequest("GET", "/", nil).Context(), log).Info("bare")
	if _, ok := logs.All()[1].ContextMap()["request_id"]; ok {
		t.Error("request_id added outside a request")
	}
}
