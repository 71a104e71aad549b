package userinfo_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/admitportal/internal/app/features/userinfo"
	"github.com/dalemusser/admitportal/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func serveMe(t *testing.T, user *testutil.TestUser) (*httptest.ResponseRecorder, userinfo.Me) {
	t.Helper()
	r := chi.NewRouter()
	userinfo.MountRoutes(r, userinfo.NewHandler())

	req := testutil.NewRequest(http.MethodGet, "/me")
	if user != nil {
		req = testutil.WithUser(req, *user)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var me userinfo.Me
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	return rec, me
}

func TestServeMe_Anonymous(t *testing.T) {
	rec, me := serveMe(t, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Equal(t, userinfo.Me{}, me)
}

func TestServeMe_SignedIn(t *testing.T) {
	for _, user := range []testutil.TestUser{
		testutil.StudentUser(),
		testutil.CounselorUser(),
		testutil.AdminUser(),
	} {
		t.Run(user.Role, func(t *testing.T) {
			rec, me := serveMe(t, &user)

			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, userinfo.Me{
				IsAuthenticated: true,
				ID:              user.ID,
				Name:            user.Name,
				Email:           user.Email,
				Role:            user.Role,
			}, me)
		})
	}
}
