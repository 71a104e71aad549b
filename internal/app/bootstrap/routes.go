// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	applicationsfeature "github.com/dalemusser/admitportal/internal/app/features/applications"
	auditlogfeature "github.com/dalemusser/admitportal/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/admitportal/internal/app/features/errors"
	healthfeature "github.com/dalemusser/admitportal/internal/app/features/health"
	userinfofeature "github.com/dalemusser/admitportal/internal/app/features/userinfo"
	"github.com/dalemusser/admitportal/internal/app/store/audit"
	userstore "github.com/dalemusser/admitportal/internal/app/store/users"
	"github.com/dalemusser/admitportal/internal/app/system/auth"
	"github.com/dalemusser/admitportal/internal/app/system/requestid"
	"github.com/dalemusser/admitportal/internal/app/workflow"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, the store, seeding and Startup have
// completed. The router carries, in order: request ids, Prometheus
// instrumentation and the session user. Feature routers are mounted below.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg != nil && coreCfg.Env == "prod"
	maxAge := time.Duration(appCfg.SessionMaxAge) * time.Second
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, maxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Refresh the session user on each request so role changes and
	// deactivations take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(userstore.New(deps.Store)))

	svc, err := workflow.New(deps.Store,
		workflow.Config{Transitions: appCfg.WorkflowTransitions, Limits: appCfg.PageLimits},
		workflow.WithAuditLogger(newAuditLogger(appCfg, deps, logger)),
		workflow.WithRecorder(deps.Metrics),
		workflow.WithLogger(logger),
	)
	if err != nil {
		logger.Error("workflow init failed", zap.Error(err))
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(deps.Metrics.Instrument)
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Store, appCfg.Version, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", deps.Metrics.Handler())

	// Session probe
	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Applications workflow
	appsHandler := applicationsfeature.NewHandler(svc, errLog, logger)
	appsHandler.Writes = deps.Writes
	r.Mount("/applications", applicationsfeature.Routes(appsHandler, sessionMgr))

	// Admin audit feed
	auditHandler := auditlogfeature.NewHandler(audit.New(deps.Store), userstore.New(deps.Store), errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}
