package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-docs-server/internal/content"
	"github.com/sha1n/mcp-docs-server/internal/search"
	"github.com/sha1n/mcp-docs-server/internal/xref"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name    string
	Version string

	// Retriever serves the documentation corpus. Nil disables document
	// resources and document tools.
	Retriever *content.Retriever

	// CodeDocs and CodeTests default to empty indices when nil.
	CodeDocs  *xref.CodeDocsIndex
	CodeTests *xref.CodeTestsIndex

	// Search is optional.
	Search *search.Service

	Logger *slog.Logger
}

// CreateServer creates and configures the MCP server
func CreateServer(ctx context.Context, cfg ServerConfig) *mcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	codeDocs := cfg.CodeDocs
	if codeDocs == nil {
		codeDocs = xref.NewCodeDocsIndex(nil)
	}
	codeTests := cfg.CodeTests
	if codeTests == nil {
		codeTests = xref.NewCodeTestsIndex(xref.CodeTestsMapData{})
	}

	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.Retriever != nil {
		count := RegisterResources(ctx, s, cfg.Retriever, logger)
		logger.Info("Registered document resources", "count", count)

		RegisterGetDocumentTool(s, cfg.Retriever)
		RegisterListDocumentsTool(s, cfg.Retriever)
		RegisterValidateDocLinksTool(s, cfg.Retriever, codeDocs)
	}

	RegisterCodeDocsTools(s, codeDocs)
	RegisterCodeTestsTools(s, codeTests, codeDocs)

	if cfg.Search != nil {
		RegisterSearchTool(s, cfg.Search)
	}

	return s
}
