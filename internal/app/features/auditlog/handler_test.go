package auditlog_test

import (
	"encoding/json"
	"math"
	"strconv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/admitportal/internal/app/features/auditlog"
	uierrors "github.com/dalemusser/admitportal/internal/app/features/errors"
	"github.com/dalemusser/admitportal/internal/app/store/audit"
	userstore "github.com/dalemusser/admitportal/internal/app/store/users"
	"github.com/dalemusser/admitportal/internal/app/system/auth"
	"github.com/dalemusser/admitportal/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type feed struct {
	Data []struct {
		EventType     string `json:"event_type"`
		ActorName     string `json:"actor_name"`
		ApplicationID string `json:"application_id"`
		Success       bool   `json:"success"`
	} `json:"data"`
	Pagination struct {
		Page    int  `json:"page"`
		Total   int  `json:"total"`
		HasNext bool `json:"hasNext"`
		HasPrev bool `json:"hasPrev"`
	} `json:"pagination"`
}

func setup(t *testing.T) (http.Handler, testutil.TestUser, testutil.TestUser, primitive.ObjectID) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ds := testutil.SetupTestStore(t)
	fx := testutil.NewFixtures(t, ds)
	admin := fx.CreateAdmin(ctx, "Dan Admin", "dan@example.com")
	student := fx.CreateStudent(ctx, "Ada Student", "ada@example.com")

	events := audit.New(ds)
	appID := primitive.NewObjectID()
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	log := []audit.Event{
		{Timestamp: day, Category: audit.CategoryWorkflow, EventType: audit.EventApplicationCreated, ActorID: &student.ID, ApplicationID: &appID, Success: true},
		{Timestamp: day.Add(time.Hour), Category: audit.CategoryWorkflow, EventType: audit.EventApplicationTransitioned, ActorID: &student.ID, ApplicationID: &appID, Success: true},
		{Timestamp: day.Add(48 * time.Hour), Category: audit.CategoryWorkflow, EventType: audit.EventTransitionDenied, ActorID: &student.ID, ApplicationID: &appID, FailureReason: "forbidden"},
		{Timestamp: day.Add(72 * time.Hour), Category: audit.CategoryAdmin, EventType: audit.EventCatalogSeeded, ActorID: &admin.ID, Success: true},
	}
	for _, e := range log {
		require.NoError(t, events.Log(ctx, e))
	}

	sm, err := auth.NewSessionManager(strings.Repeat("k", 32), "", "", time.Hour, false, zap.NewNop())
	require.NoError(t, err)
	h := auditlog.NewHandler(events, userstore.New(ds), uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())

	r := chi.NewRouter()
	r.Mount("/audit", auditlog.Routes(h, sm))
	return r, testutil.AsTestUser(admin), testutil.AsTestUser(student), appID
}

func get(t *testing.T, router http.Handler, user *testutil.TestUser, target string) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(http.MethodGet, target, "")
	if user != nil {
		req = testutil.WithUser(req, *user)
	}
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestServeList_AdminOnly(t *testing.T) {
	router, _, student, _ := setup(t)

	get(t, router, nil, "/audit").AssertStatus(t, http.StatusUnauthorized)
	get(t, router, &student, "/audit").AssertStatus(t, http.StatusForbidden)
}

func TestServeList_NewestFirstWithNames(t *testing.T) {
	router, admin, _, appID := setup(t)

	rec := get(t, router, &admin, "/audit")
	rec.AssertStatus(t, http.StatusOK)

	var got feed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Data, 4)
	require.Equal(t, 4, got.Pagination.Total)
	require.False(t, got.Pagination.HasNext)

	require.Equal(t, audit.EventCatalogSeeded, got.Data[0].EventType)
	require.Equal(t, "Dan Admin", got.Data[0].ActorName)
	require.Empty(t, got.Data[0].ApplicationID)

	require.Equal(t, audit.EventTransitionDenied, got.Data[1].EventType)
	require.False(t, got.Data[1].Success)
	require.Equal(t, "Ada Student", got.Data[1].ActorName)
	require.Equal(t, appID.Hex(), got.Data[1].ApplicationID)
}

func TestServeList_Filters(t *testing.T) {
	router, admin, _, appID := setup(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"category", "?category=admin", []string{audit.EventCatalogSeeded}},
		{"event type", "?category=workflow&event_type=application_created", []string{audit.EventApplicationCreated}},
		{"application", "?application_id=" + appID.Hex(), []string{audit.EventTransitionDenied, audit.EventApplicationTransitioned, audit.EventApplicationCreated}},
		{"single day", "?start_date=2026-03-10&end_date=2026-03-10", []string{audit.EventApplicationTransitioned, audit.EventApplicationCreated}},
		{"from date", "?start_date=2026-03-12", []string{audit.EventCatalogSeeded, audit.EventTransitionDenied}},
		{"past last page", "?page=2", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, &admin, "/audit"+tt.query)
			rec.AssertStatus(t, http.StatusOK)

			var got feed
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			var types []string
			for _, e := range got.Data {
				types = append(types, e.EventType)
			}
			require.Equal(t, tt.want, types)
		})
	}
}

func TestServeList_HugePage(t *testing.T) {
	router, admin, _, _ := setup(t)

	for _, page := range []int{math.MaxInt, math.MaxInt/50 + 2} {
		rec := get(t, router, &admin, "/audit?page="+strconv.Itoa(page))
		rec.AssertStatus(t, http.StatusOK)

		var got feed
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Empty(t, got.Data, "page=%d", page)
		require.Equal(t, math.MaxInt/50, got.Pagination.Page)
		require.Equal(t, 4, got.Pagination.Total)
		require.False(t, got.Pagination.HasNext)
		require.True(t, got.Pagination.HasPrev)
	}
}

func TestServeList_BadFilters(t *testing.T) {
	router, admin, _, _ := setup(t)

	for _, q := range []string{
		"?category=billing",
		"?category=admin&event_type=application_created",
		"?event_type=nope",
		"?application_id=xyz",
		"?actor_id=123",
		"?start_date=03/10/2026",
		"?end_date=yesterday",
	} {
		rec := get(t, router, &admin, "/audit"+q)
		rec.AssertStatus(t, http.StatusUnprocessableEntity)
		rec.AssertContains(t, "validation_failed")
	}
}
