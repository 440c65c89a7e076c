// Package monitor constructs and runs the HTTP server hosting the
// dashboard, the stats API, and the WebSocket bridge.
package monitor

import (
	"context"
	"log"
	"net/http"
	"time"
)

// NewServer creates the HTTP server for the monitoring surface. Request
// timeouts are deliberately left off the whole server because /ws carries
// long-lived connections; the header read timeout still bounds slow
// clients during the handshake.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Start begins listening and blocks until the server exits. It returns
// nil after a graceful Shutdown and the listen error otherwise.
func Start(server *http.Server) error {
	log.Printf("Monitoring server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, waiting for in-flight
// requests up to the timeout.
func Shutdown(server *http.Server, timeout time.Duration) error {
	log.Println("Shutting down monitoring server...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Monitoring server shutdown error: %v", err)
		return err
	}

	log.Println("Monitoring server shutdown completed")
	return nil
}
