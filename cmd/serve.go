package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/desertthunder/irx/auth"
	"github.com/desertthunder/irx/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the local CORS proxy for browser clients.
//
// Browsers cannot call the token endpoint or the chunk file host directly
// because neither sends CORS headers. The proxy relays those requests and
// answers preflights itself.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host := cmd.String("host")
	if host == "" {
		host = r.config.Server.Host
	}
	port := cmd.Int("port")
	if port == 0 {
		port = r.config.Server.Port
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	authBase := r.config.Credentials.AuthURL
	if authBase == "" {
		authBase = auth.DefaultAuthURL
	}
	tokenURL := strings.TrimRight(authBase, "/") + "/token"

	proxy := server.NewProxyHandler(tokenURL, r.config.API.BaseURL, r.httpClient, r.logger)

	router := server.NewBasicRouter()
	router.Use(server.RequestID(), server.Logging(r.logger), server.CORS())
	router.Handler(proxy)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting proxy server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	r.writePlain("Proxy listening on http://%s\n", addr)
	r.writePlain("  POST /token        → %s\n", tokenURL)
	r.writePlain("  *    /data/*       → %s\n", r.config.API.BaseURL)
	r.writePlain("  GET  /passthrough  → ?url=<target>\n")
	r.writePlain("Press Ctrl+C to stop.\n")

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down proxy server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}
