package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"booknook-go/internal/config"
)

// New builds the API server. Request contexts derive from a base context
// that Shutdown cancels, so open notification streams end instead of
// holding the drain until its deadline.
func New(cfg config.Config, handler http.Handler) *http.Server {
	base, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return base
		},
	}
	srv.RegisterOnShutdown(cancel)
	return srv
}
