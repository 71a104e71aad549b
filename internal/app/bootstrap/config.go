// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"github.com/dalemusser/admitportal/internal/app/system/auditlog"
	"github.com/dalemusser/admitportal/internal/app/system/auth"
	"github.com/dalemusser/admitportal/internal/app/workflow"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// devSessionKey is the default key. It is rejected in prod.
const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for the admissions portal.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: data_dir, session_name, etc.
//   - Environment variables: ADMITPORTAL_DATA_DIR, ADMITPORTAL_SESSION_NAME, etc.
//   - Command-line flags: --data_dir, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "data_dir", Default: "./data", Desc: "Directory for collection files"},
	{Name: "default_page_limit", Default: docstore.DefaultLimit, Desc: "Default list page size"},
	{Name: "max_page_limit", Default: docstore.MaxLimit, Desc: "Largest list page size a client may request"},

	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: auth.DefaultSessionName, Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: 86400, Desc: "Session cookie lifetime in seconds"},

	{Name: "workflow_transitions", Default: workflow.ModeStrict, Desc: "Status transition graph: 'strict' or 'permissive'"},

	// Audit logging settings
	{Name: "audit_log_workflow", Default: auditlog.ModeAll, Desc: "Workflow event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: auditlog.ModeAll, Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "write_rate_limit", Default: 60, Desc: "Application changes allowed per user per minute (0 disables)"},

	{Name: "seed_file", Default: "", Desc: "YAML catalog of universities, courses and users applied at startup"},
	{Name: "metrics_runtime", Default: true, Desc: "Export Go runtime and process metrics"},
	{Name: "version", Default: "dev", Desc: "Version string reported by /health"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, ADMITPORTAL_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ADMITPORTAL", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		DataDir: appValues.String("data_dir"),
		PageLimits: docstore.Limits{
			Default: appValues.Int("default_page_limit"),
			Max:     appValues.Int("max_page_limit"),
		},

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Int("session_max_age"),

		WorkflowTransitions: appValues.String("workflow_transitions"),

		AuditLogWorkflow: appValues.String("audit_log_workflow"),
		AuditLogAdmin:    appValues.String("audit_log_admin"),

		WriteRateLimit: appValues.Int("write_rate_limit"),

		SeedFile:       appValues.String("seed_file"),
		MetricsRuntime: appValues.Bool("metrics_runtime"),
		Version:        appValues.String("version"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Everything that would otherwise fail later, in ConnectDB or BuildHandler,
// is checked here so a bad deployment fails before binding a port.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if len(appCfg.SessionKey) < 32 {
		return fmt.Errorf("session_key must be at least 32 characters (got %d)", len(appCfg.SessionKey))
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.SessionKey == devSessionKey {
		return fmt.Errorf("session_key must be changed from the development default in prod")
	}
	if _, err := workflow.NewGraph(appCfg.WorkflowTransitions); err != nil {
		return fmt.Errorf("workflow_transitions: %w", err)
	}
	for name, mode := range map[string]string{
		"audit_log_workflow": appCfg.AuditLogWorkflow,
		"audit_log_admin":    appCfg.AuditLogAdmin,
	} {
		if !auditlog.ValidMode(mode) {
			return fmt.Errorf("%s: unknown mode %q", name, mode)
		}
	}
	if appCfg.PageLimits.Default < 1 || appCfg.PageLimits.Max < appCfg.PageLimits.Default {
		return fmt.Errorf("page limits: need 1 <= default_page_limit (%d) <= max_page_limit (%d)",
			appCfg.PageLimits.Default, appCfg.PageLimits.Max)
	}
	if appCfg.SessionMaxAge < 0 {
		return fmt.Errorf("session_max_age must not be negative")
	}
	if appCfg.WriteRateLimit < 0 {
		return fmt.Errorf("write_rate_limit must not be negative")
	}

	if appCfg.WorkflowTransitions == workflow.ModePermissive {
		logger.Warn("workflow transitions are permissive; any status may follow any other")
	}
	return nil
}
