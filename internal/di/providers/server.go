package providers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/samber/do/v2"

	"github.com/cinelogapp/cinelog-server/internal/api"
	"github.com/cinelogapp/cinelog-server/internal/catalog"
	"github.com/cinelogapp/cinelog-server/internal/config"
	"github.com/cinelogapp/cinelog-server/internal/logger"
	"github.com/cinelogapp/cinelog-server/internal/mdns"
)

// HTTPServerHandle owns the http.Server so the container can shut it
// down in dependency order.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown drains in-flight requests, bounded by shutdownTimeout.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer assembles the API router and starts serving on the
// configured port.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	handler := api.NewServer(
		do.MustInvoke[*catalog.MovieService](i),
		do.MustInvoke[*catalog.SeriesService](i),
		do.MustInvoke[*catalog.ReviewService](i),
		do.MustInvoke[*catalog.Auditor](i),
		do.MustInvoke[*SearchIndexHandle](i).SearchIndex,
		do.MustInvoke[*RateLimiterHandle](i).KeyedRateLimiter,
		log.Logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Serve in the background; shutdown arrives through the handle.
	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}

// MDNSServiceHandle wraps the advertisement so Shutdown only stops a
// server that actually started.
type MDNSServiceHandle struct {
	*mdns.Service
	started bool
}

// Shutdown withdraws the advertisement if one went out.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.started {
		h.Stop()
	}
	return nil
}

// ProvideMDNSService starts LAN discovery when enabled. Advertisement
// failure never fails startup; servers behind Docker or cloud NAT just
// run without discovery.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Server.AdvertiseMDNS {
		log.Info("mDNS advertisement disabled by configuration")
		return &MDNSServiceHandle{}, nil
	}

	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		log.Warn("Cannot parse server port for mDNS, advertising 8080", "port", cfg.Server.Port)
		port = 8080
	}

	svc := mdns.NewService(log.Logger)
	instance := mdns.Instance{
		ID:   uuid.NewString(),
		Name: cfg.Server.Name,
	}

	if err := svc.Start(instance, port); err != nil {
		log.Warn("mDNS advertisement unavailable", "error", err)
		return &MDNSServiceHandle{Service: svc}, nil
	}

	return &MDNSServiceHandle{Service: svc, started: true}, nil
}
