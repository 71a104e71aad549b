// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the write limiter, waits for in-flight writes and closes
// the document store.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Writes != nil {
		deps.Writes.Close()
	}
	if deps.Store != nil {
		logger.Info("closing document store", zap.String("data_dir", appCfg.DataDir))
		if err := deps.Store.Close(); err != nil {
			logger.Error("docstore close failed", zap.Error(err))
			return err
		}
	}
	return nil
}
