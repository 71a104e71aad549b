package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"github.com/dalemusser/admitportal/internal/app/system/metrics"
	"github.com/dalemusser/admitportal/internal/app/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	_ docstore.Observer = (*metrics.Metrics)(nil)
	_ workflow.Recorder = (*metrics.Metrics)(nil)
)

func TestObserver_CountsStoreOperations(t *testing.T) {
	m := metrics.New(false)
	ds, err := docstore.Open("", docstore.WithMemoryBackend(), docstore.WithObserver(m))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ds.Close()

	if _, err := ds.Create(t.Context(), "widgets", bson.M{"n": 1}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := ds.Find(t.Context(), "widgets", nil); err != nil {
		t.Fatalf("Find: %v", err)
	}

	expected := `
# HELP admitportal_docstore_records Records in each collection as of its last write.
# TYPE admitportal_docstore_records gauge
admitportal_docstore_records{collection="widgets"} 1
`
	if err := testutil.CollectAndCompare(m.Registry, strings.NewReader(expected), "admitportal_docstore_records"); err != nil {
		t.Error(err)
	}
	// Create reads then writes; Find reads.
	ops := `
# HELP admitportal_docstore_operations_total Collection file reads and writes.
# TYPE admitportal_docstore_operations_total counter
admitportal_docstore_operations_total{collection="widgets",op="read",result="ok"} 2
admitportal_docstore_operations_total{collection="widgets",op="write",result="ok"} 1
`
	if err := testutil.CollectAndCompare(m.Registry, strings.NewReader(ops), "admitportal_docstore_operations_total"); err != nil {
		t.Error(err)
	}
}

func TestObserver_Errors(t *testing.T) {
	m := metrics.New(false)
	m.ObserveWrite("applications", time.Millisecond, 3, errors.New("disk full"))

	if n := testutil.CollectAndCount(m.Registry, "admitportal_docstore_records"); n != 0 {
		t.Errorf("records gauge set after failed write (%d series)", n)
	}
	expected := `
# HELP admitportal_docstore_operations_total Collection file reads and writes.
# TYPE admitportal_docstore_operations_total counter
admitportal_docstore_operations_total{collection="applications",op="write",result="error"} 1
`
	if err := testutil.CollectAndCompare(m.Registry, strings.NewReader(expected), "admitportal_docstore_operations_total"); err != nil {
		t.Error(err)
	}
}

func TestRecorder(t *testing.T) {
	m := metrics.New(false)
	m.ApplicationCreated()
	m.TransitionApplied("draft", "submitted")
	m.TransitionApplied("draft", "submitted")
	m.TransitionRejected("forbidden")

	expected := `
# HELP admitportal_workflow_transitions_total Applied status transitions.
# TYPE admitportal_workflow_transitions_total counter
admitportal_workflow_transitions_total{from="draft",to="submitted"} 2
`
	if err := testutil.CollectAndCompare(m.Registry, strings.NewReader(expected), "admitportal_workflow_transitions_total"); err != nil {
		t.Error(err)
	}
	if n := testutil.CollectAndCount(m.Registry, "admitportal_workflow_applications_created_total", "admitportal_workflow_transitions_rejected_total"); n != 2 {
		t.Errorf("series = %d, want 2", n)
	}
}

func TestInstrument_UsesRoutePattern(t *testing.T) {
	m := metrics.New(false)
	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/applications/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/applications/"+id, nil))
	}

	expected := `
# HELP admitportal_http_requests_total Total number of HTTP requests handled.
# TYPE admitportal_http_requests_total counter
admitportal_http_requests_total{method="GET",route="/applications/{id}",status="404"} 3
`
	if err := testutil.CollectAndCompare(m.Registry, strings.NewReader(expected), "admitportal_http_requests_total"); err != nil {
		t.Error(err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "admitportal_http_requests_total") {
		t.Errorf("/metrics = %d %q", rec.Code, rec.Body.String())
	}
}
