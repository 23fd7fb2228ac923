// Package httpserver builds the operational HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with conservative timeouts. Only the health and
// metrics surface runs on it, so short limits are safe.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}
