package providers

import "time"

const (
	// shutdownTimeout bounds HTTP drain and store disconnects on exit.
	shutdownTimeout = 15 * time.Second
)
