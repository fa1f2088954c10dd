package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-docs-server/internal/auth"
	"github.com/sha1n/mcp-docs-server/internal/config"
)

// Endpoint paths
const (
	SSEPath        = "/sse"
	StreamablePath = "/mcp"
)

// StartHTTPServer starts the SSE or streamable HTTP server with authentication
func StartHTTPServer(s *mcp.Server, settings *config.Settings) error {
	srv, err := NewHTTPServer(s, settings)
	if err != nil {
		return err
	}

	slog.Info("Server listening (HTTP)", "addr", srv.Addr, "transport", settings.Transport, "auth_type", settings.Auth.Type)
	return srv.ListenAndServe()
}

// NewHTTPServer creates a new HTTP server with authentication middleware.
// The sse transport is served on /sse, the http transport on /mcp.
func NewHTTPServer(s *mcp.Server, settings *config.Settings) (*http.Server, error) {
	// Factory function returns the server instance for each request
	getServer := func(r *http.Request) *mcp.Server {
		return s
	}

	mux := http.NewServeMux()
	mux.HandleFunc(auth.HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	switch settings.Transport {
	case config.TransportHTTP:
		mux.Handle(StreamablePath, mcp.NewStreamableHTTPHandler(getServer, nil))
	default:
		mux.Handle(SSEPath, mcp.NewSSEHandler(getServer, nil))
	}

	authMiddleware, err := auth.NewMiddleware(settings.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth middleware: %w", err)
	}

	handler := authMiddleware(mux)
	addr := fmt.Sprintf("%s:%d", settings.Host, settings.Port)

	return &http.Server{
		Addr:    addr,
		Handler: handler,
	}, nil
}
