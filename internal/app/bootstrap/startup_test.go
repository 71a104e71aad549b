package bootstrap

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	userstore "github.com/dalemusser/admitportal/internal/app/store/users"
	"github.com/dalemusser/admitportal/internal/app/system/auditlog"
	"github.com/dalemusser/admitportal/internal/app/system/auth"
	"github.com/dalemusser/admitportal/internal/app/workflow"
	"github.com/dalemusser/admitportal/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func testAppConfig(t *testing.T) AppConfig {
	t.Helper()
	return AppConfig{
		DataDir:             t.TempDir(),
		PageLimits:          docstore.DefaultLimits,
		SessionKey:          strings.Repeat("s", 40),
		SessionName:         "test-session",
		SessionMaxAge:       3600,
		WorkflowTransitions: workflow.ModeStrict,
		AuditLogWorkflow:    auditlog.ModeDB,
		AuditLogAdmin:       auditlog.ModeDB,
		WriteRateLimit:      30,
		Version:             "test",
	}
}

const testCatalog = `
universities:
  - name: Northgate University
    code: NGU
    courses:
      - {name: Computer Science, code: CS100}
users:
  - {name: Ada Student, email: ada@example.com, role: student}
  - {name: Dan Admin, email: dan@example.com, role: admin}
`

func TestValidateConfig(t *testing.T) {
	dev := &config.CoreConfig{Env: "dev"}
	prod := &config.CoreConfig{Env: "prod"}

	tests := []struct {
		name    string
		core    *config.CoreConfig
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", dev, func(*AppConfig) {}, ""},
		{"permissive", dev, func(c *AppConfig) { c.WorkflowTransitions = workflow.ModePermissive }, ""},
		{"no data dir", dev, func(c *AppConfig) { c.DataDir = "" }, "data_dir"},
		{"short session key", dev, func(c *AppConfig) { c.SessionKey = "short" }, "session_key"},
		{"dev key in prod", prod, func(c *AppConfig) { c.SessionKey = devSessionKey }, "development default"},
		{"dev key in dev", dev, func(c *AppConfig) { c.SessionKey = devSessionKey }, ""},
		{"unknown transitions", dev, func(c *AppConfig) { c.WorkflowTransitions = "loose" }, "workflow_transitions"},
		{"unknown audit mode", dev, func(c *AppConfig) { c.AuditLogWorkflow = "sometimes" }, "audit_log_workflow"},
		{"max below default", dev, func(c *AppConfig) { c.PageLimits = docstore.Limits{Default: 50, Max: 10} }, "page limits"},
		{"negative rate limit", dev, func(c *AppConfig) { c.WriteRateLimit = -1 }, "write_rate_limit"},
		{"zero default", dev, func(c *AppConfig) { c.PageLimits = docstore.Limits{Max: 10} }, "page limits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAppConfig(t)
			tt.mutate(&cfg)
			err := ValidateConfig(tt.core, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateConfig: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("ValidateConfig error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLifecycle_SeedServeShutdown(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cfg := testAppConfig(t)
	cfg.SeedFile = filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(cfg.SeedFile, []byte(testCatalog), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	core := &config.CoreConfig{Env: "dev"}

	deps, err := ConnectDB(ctx, core, cfg, testLogger())
	if err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}
	if err := EnsureSchema(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	// A second start must not duplicate the catalog.
	if err := EnsureSchema(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema again: %v", err)
	}
	if err := Startup(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	handler, err := BuildHandler(core, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	users, err := userstore.New(deps.Store).Find(ctx, nil)
	if err != nil {
		t.Fatalf("Find users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("seeded users = %d, want 2", len(users))
	}
	student, err := userstore.New(deps.Store).GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}

	get := func(target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if deps.Writes == nil {
		t.Error("write limiter not configured")
	}
	if rec := get("/health"); rec.Code != http.StatusOK {
		t.Errorf("/health = %d", rec.Code)
	}
	rec := get("/applications")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous /applications = %d, want 401", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID on response")
	}

	// Sign in the way the external login layer would.
	sm, err := auth.NewSessionManager(cfg.SessionKey, cfg.SessionName, "", 0, false, testLogger())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	login := httptest.NewRecorder()
	if err := sm.SignIn(login, httptest.NewRequest(http.MethodPost, "/login", nil), &auth.SessionUser{
		ID:    student.ID.Hex(),
		Name:  student.FullName,
		Email: student.Email,
		Role:  student.Role,
	}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := login.Result().Cookies()

	rec = get("/me", cookies...)
	var me map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode /me: %v", err)
	}
	if me["isAuthenticated"] != true || me["role"] != "student" {
		t.Errorf("/me = %v", me)
	}

	rec = get("/applications", cookies...)
	if rec.Code != http.StatusOK {
		t.Fatalf("signed-in /applications = %d (%s)", rec.Code, rec.Body.String())
	}
	if rec := get("/audit", cookies...); rec.Code != http.StatusForbidden {
		t.Errorf("student /audit = %d, want 403", rec.Code)
	}

	// Deactivation takes effect on the next request.
	if err := userstore.New(deps.Store).SetActive(ctx, student.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if rec := get("/applications", cookies...); rec.Code != http.StatusUnauthorized {
		t.Errorf("deactivated /applications = %d, want 401", rec.Code)
	}

	rec = get("/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `route="/applications/*"`) &&
		!strings.Contains(rec.Body.String(), `route="/applications/"`) {
		t.Errorf("/metrics missing application route samples:\n%s", rec.Body.String())
	}

	if err := Shutdown(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if rec := get("/health"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/health after shutdown = %d, want 503", rec.Code)
	}
}

func TestEnsureSchema_MissingSeedFile(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cfg := testAppConfig(t)
	cfg.SeedFile = filepath.Join(t.TempDir(), "absent.yaml")
	deps := DBDeps{Store: testutil.SetupTestStore(t)}
	if err := EnsureSchema(ctx, nil, cfg, deps, testLogger()); err == nil {
		t.Fatal("expected an error for a missing seed file")
	}
}
