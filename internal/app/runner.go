package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-docs-server/internal/config"
	"github.com/sha1n/mcp-docs-server/internal/content"
	mcputil "github.com/sha1n/mcp-docs-server/internal/mcp"
	"github.com/sha1n/mcp-docs-server/internal/search"
	"github.com/sha1n/mcp-docs-server/internal/xref"
	"github.com/spf13/pflag"
)

// ServerName is the MCP implementation name
const ServerName = "docs-mcp"

// RunParams contains dependencies for the run function
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartHTTPServer   func(*mcp.Server, *config.Settings) error
	CreateServer      func(context.Context, *config.Settings, string) (*mcp.Server, func(), error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:    config.LoadSettingsWithFlags,
		ValidSettings:   config.ValidateSettings,
		StartHTTPServer: StartHTTPServer,
		CreateServer:    CreateMCPServer,
	}
}

// RunWithDeps executes the server with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	// Load settings
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Validate settings for conflicting configurations
	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Configure logging - always use stderr, stdout carries the stdio transport
	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))

	slog.Info("Starting docs MCP server", "version", version)
	config.Log(settings)

	mcpServer, cleanup, err := params.CreateServer(ctx, settings, version)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if settings.Transport == config.TransportStdio {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return mcpServer.Run(ctx, transport)
	}

	slog.Info("Starting HTTP server", "transport", settings.Transport, "host", settings.Host, "port", settings.Port)
	return params.StartHTTPServer(mcpServer, settings)
}

// NewRetriever creates the content retriever described by settings
func NewRetriever(settings *config.Settings) *content.Retriever {
	return content.NewRetriever(content.Config{
		Source:            content.Source(settings.Docs.Source),
		BasePath:          settings.Docs.BasePath,
		RemoteBaseURL:     settings.Docs.RemoteBaseURL,
		Timeout:           settings.Docs.RemoteTimeout,
		RequestsPerSecond: settings.Docs.RemoteRPS,
	}, content.WithLogger(slog.Default()))
}

// loadXRef loads the cross-reference indices. Unset paths yield empty indices.
func loadXRef(settings *config.Settings) (*xref.CodeDocsIndex, *xref.CodeTestsIndex) {
	codeDocs := xref.NewCodeDocsIndex(nil)
	if settings.XRef.CodeDocsPath != "" {
		codeDocs = xref.LoadCodeDocs(settings.XRef.CodeDocsPath, slog.Default())
	}

	codeTests := xref.NewCodeTestsIndex(xref.CodeTestsMapData{})
	if settings.XRef.CodeTestsPath != "" {
		codeTests = xref.LoadCodeTests(settings.XRef.CodeTestsPath, slog.Default())
	}

	return codeDocs, codeTests
}

// CreateMCPServer creates the MCP server with registered resources and tools
func CreateMCPServer(ctx context.Context, settings *config.Settings, version string) (*mcp.Server, func(), error) {
	retriever := NewRetriever(settings)
	codeDocs, codeTests := loadXRef(settings)

	var searchSvc *search.Service
	var cleanup func()

	if settings.Search.Enabled {
		searchSvc = search.NewService(retriever, settings.Search.MaxResults, slog.Default())

		// Index in the background; the search tool reports when it is not ready yet
		buildCtx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := searchSvc.Initialize(buildCtx); err != nil {
				slog.Error("Search index build failed", "error", err)
			}
		}()

		cleanup = func() {
			cancel()
			<-done
			if err := searchSvc.Close(); err != nil {
				slog.Error("Failed to close search service", "error", err)
			}
		}
	}

	server := mcputil.CreateServer(ctx, mcputil.ServerConfig{
		Name:      ServerName,
		Version:   version,
		Retriever: retriever,
		CodeDocs:  codeDocs,
		CodeTests: codeTests,
		Search:    searchSvc,
		Logger:    slog.Default(),
	})

	return server, cleanup, nil
}
