// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"github.com/dalemusser/admitportal/internal/app/system/metrics"
	"github.com/dalemusser/admitportal/internal/app/system/ratelimit"
)

// DBDeps holds the storage backend and what observes and guards it. The
// store is the single owner of the data directory; everything else borrows it.
type DBDeps struct {
	Store   *docstore.Store
	Metrics *metrics.Metrics

	// Writes throttles application changes per user; nil when disabled.
	Writes *ratelimit.Limiter
}
