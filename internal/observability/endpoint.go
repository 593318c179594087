package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/fieldrec/fieldrec-go/internal/logging"
)

// Endpoint serves the Prometheus metrics over HTTP.
type Endpoint struct {
	server  *http.Server
	metrics *Metrics
}

// NewEndpoint creates a metrics endpoint listening on the given address.
func NewEndpoint(listenAddress string, metrics *Metrics) *Endpoint {
	mux := http.NewServeMux()
	metrics.RegisterHandlers(mux)
	return &Endpoint{
		server: &http.Server{
			Addr:              listenAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		metrics: metrics,
	}
}

// Start runs the HTTP server until the context is cancelled.
func (e *Endpoint) Start(ctx context.Context) {
	go func() {
		logging.Info("Telemetry endpoint starting", "address", e.server.Addr)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Telemetry HTTP server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		logging.Info("Stopping telemetry server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.server.Shutdown(shutdownCtx); err != nil {
			logging.Error("Telemetry server shutdown error", "error", err)
		}
	}()
}
