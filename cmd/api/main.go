// Command api runs the CineLog catalog server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/cinelogapp/cinelog-server/internal/di"
	"github.com/cinelogapp/cinelog-server/internal/di/providers"
	"github.com/cinelogapp/cinelog-server/internal/logger"
)

func main() {
	injector := di.NewContainer()
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "cinelog-server: %v\n", err)
		os.Exit(1)
	}
	log := do.MustInvoke[*logger.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutdown signal received")
	if err := injector.Shutdown(); err != nil {
		log.Error("Container shutdown failed", "error", err)
	}

	// The store and the search index hold the persistent state. Their
	// handles are closed here, after every service that might still
	// write has stopped.
	if h, err := do.Invoke[*providers.StoreHandle](injector); err == nil {
		closeComponent(log, "document store", h.Shutdown)
	}
	if h, err := do.Invoke[*providers.SearchIndexHandle](injector); err == nil {
		closeComponent(log, "search index", h.Shutdown)
	}

	log.Info("That's a wrap...")
}

func closeComponent(log *logger.Logger, name string, close func() error) {
	log.Info("Closing " + name + "...")
	if err := close(); err != nil {
		log.Error("Failed to close "+name, "error", err)
		return
	}
	log.Info("Closed " + name)
}
