package providers

import (
	"context"
	"os"

	"github.com/samber/do/v2"

	"github.com/cinelogapp/cinelog-server/internal/catalog"
	"github.com/cinelogapp/cinelog-server/internal/config"
	"github.com/cinelogapp/cinelog-server/internal/importer"
	"github.com/cinelogapp/cinelog-server/internal/logger"
	"github.com/cinelogapp/cinelog-server/internal/ratelimit"
)

// RateLimiterHandle carries the per-client limiter through the container.
// The embedded limiter stays nil when throttling is disabled.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown stops the limiter's idle-eviction loop.
func (h *RateLimiterHandle) Shutdown() error {
	if h.KeyedRateLimiter != nil {
		h.Stop()
	}
	return nil
}

// ProvideRateLimiter builds the keyed token-bucket limiter from config.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.RateLimit.Enabled {
		log.Info("Rate limiting disabled by configuration")
		return &RateLimiterHandle{}, nil
	}

	limiter := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	log.Info("Rate limiter started",
		"rps", cfg.RateLimit.RPS,
		"burst", cfg.RateLimit.Burst,
	)

	return &RateLimiterHandle{KeyedRateLimiter: limiter}, nil
}

// DropWatcherHandle ties the drop-directory watcher to its cancel func so
// container teardown stops both the watch loop and the settle timers. The
// embedded watcher stays nil when the importer is disabled.
type DropWatcherHandle struct {
	*importer.DropWatcher
	cancel context.CancelFunc
}

// Shutdown cancels the watch loop and closes the fsnotify watcher.
func (h *DropWatcherHandle) Shutdown() error {
	if h.DropWatcher == nil {
		return nil
	}
	h.cancel()
	return h.Stop()
}

// ProvideDropWatcher starts watching the import drop directory when the
// importer is enabled.
func ProvideDropWatcher(i do.Injector) (*DropWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Import.Enabled {
		log.Info("Batch import disabled by configuration")
		return &DropWatcherHandle{}, nil
	}

	movies := do.MustInvoke[*catalog.MovieService](i)
	series := do.MustInvoke[*catalog.SeriesService](i)

	if err := os.MkdirAll(cfg.Import.Path, 0o755); err != nil {
		return nil, err
	}

	imp := importer.New(movies, series, log.Logger)
	watcher, err := importer.NewDropWatcher(cfg.Import.Path, imp, cfg.Import.Settle, log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := watcher.Start(ctx); err != nil {
			log.Error("Import watcher error", "error", err)
		}
	}()

	log.Info("Import watcher started", "dir", cfg.Import.Path, "settle", cfg.Import.Settle)

	return &DropWatcherHandle{
		DropWatcher: watcher,
		cancel:      cancel,
	}, nil
}
