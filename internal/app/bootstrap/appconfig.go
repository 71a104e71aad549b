// internal/app/bootstrap/appconfig.go
package bootstrap

import "github.com/dalemusser/admitportal/internal/app/store/docstore"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like ports, TLS,
// logging level and CORS. AppConfig is where the admissions portal keeps
// everything else.
type AppConfig struct {
	// Document store
	DataDir    string          // Directory holding one file per collection
	PageLimits docstore.Limits // Default and maximum list page sizes

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: admitportal-session)
	SessionDomain string // Cookie domain (blank means current host)
	SessionMaxAge int    // Cookie lifetime in seconds

	// Workflow
	WorkflowTransitions string // "strict" or "permissive"

	// Audit logging: "all" (db+log), "db", "log" or "off"
	AuditLogWorkflow string
	AuditLogAdmin    string

	// Application changes allowed per user per minute; 0 disables the limit
	WriteRateLimit int

	// Optional YAML catalog applied at startup
	SeedFile string

	// Expose Go runtime and process collectors on /metrics
	MetricsRuntime bool

	// Reported by /health
	Version string
}
