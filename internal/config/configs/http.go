package configs

import "time"

// HTTP configures the inbound API server.
type HTTP struct {
	// Port is the TCP port the server listens on.
	Port uint16 `env:"PORT" envDefault:"8080"`
	// ShutdownTimeout bounds how long a graceful shutdown waits for
	// in-flight requests before the server is torn down.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}
