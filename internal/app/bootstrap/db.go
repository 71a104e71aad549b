// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/admitportal/internal/app/seed"
	"github.com/dalemusser/admitportal/internal/app/store/audit"
	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"github.com/dalemusser/admitportal/internal/app/system/auditlog"
	"github.com/dalemusser/admitportal/internal/app/system/metrics"
	"github.com/dalemusser/admitportal/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB opens the document store in the configured data directory.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	m := metrics.New(appCfg.MetricsRuntime)
	ds, err := docstore.Open(appCfg.DataDir,
		docstore.WithLogger(logger),
		docstore.WithObserver(m),
		docstore.WithPageLimits(appCfg.PageLimits),
	)
	if err != nil {
		logger.Error("docstore open failed", zap.String("data_dir", appCfg.DataDir), zap.Error(err))
		return DBDeps{}, fmt.Errorf("open data dir %s: %w", appCfg.DataDir, err)
	}
	if err := ds.Ping(ctx); err != nil {
		_ = ds.Close()
		return DBDeps{}, fmt.Errorf("data dir %s not writable: %w", appCfg.DataDir, err)
	}
	deps := DBDeps{Store: ds, Metrics: m}
	if appCfg.WriteRateLimit > 0 {
		deps.Writes = ratelimit.New(appCfg.WriteRateLimit, time.Minute)
	}
	return deps, nil
}

// EnsureSchema applies the seed catalog, if one is configured. Collections
// need no other setup: each is created on first write.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SeedFile == "" {
		return nil
	}
	cat, err := seed.LoadFile(appCfg.SeedFile)
	if err != nil {
		return err
	}
	s := seed.New(deps.Store, newAuditLogger(appCfg, deps, logger), logger)
	if _, err := s.Apply(ctx, cat, appCfg.SeedFile); err != nil {
		return fmt.Errorf("seed %s: %w", appCfg.SeedFile, err)
	}
	return nil
}

func newAuditLogger(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(deps.Store), logger, auditlog.Config{
		Workflow: appCfg.AuditLogWorkflow,
		Admin:    appCfg.AuditLogAdmin,
	})
}
