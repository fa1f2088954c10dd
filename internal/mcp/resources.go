package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-docs-server/internal/content"
	"github.com/sha1n/mcp-docs-server/internal/frontmatter"
	"github.com/sha1n/mcp-docs-server/internal/uri"
)

// MIME types served for resources.
const (
	MIMETypeMarkdown = "text/markdown"
	MIMETypeCSharp   = "text/x-csharp"
)

// resourceTemplates are the URI templates accepted by resources/read.
var resourceTemplates = []*mcp.ResourceTemplate{
	{
		Name:        "document",
		Title:       "Documentation page",
		Description: "A documentation page addressed by its category and path",
		URITemplate: string(uri.SchemeDocument) + "://{+path}",
		MIMEType:    MIMETypeMarkdown,
	},
	{
		Name:        "roadmap-item",
		Title:       "Roadmap item",
		Description: "A planned or in-development feature description",
		URITemplate: string(uri.SchemeRoadmapItem) + "://{+path}",
		MIMEType:    MIMETypeMarkdown,
	},
	{
		Name:        "code-sample",
		Title:       "Code sample",
		Description: "A source file shipped with the documentation",
		URITemplate: string(uri.SchemeCodeSample) + "://{+path}",
		MIMEType:    MIMETypeCSharp,
	},
}

// mimeTypeFor returns the MIME type of the addressed resource.
func mimeTypeFor(id uri.Identifier) string {
	if id.Scheme == uri.SchemeCodeSample {
		return MIMETypeCSharp
	}
	return MIMETypeMarkdown
}

// ResourceHandler serves resources/read for every supported scheme.
type ResourceHandler struct {
	retriever *content.Retriever
	logger    *slog.Logger
}

// NewResourceHandler creates a new resource handler.
func NewResourceHandler(retriever *content.Retriever, logger *slog.Logger) *ResourceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourceHandler{
		retriever: retriever,
		logger:    logger,
	}
}

// Handle resolves the requested identifier and returns the document text.
func (h *ResourceHandler) Handle(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	target := req.Params.URI

	id, err := uri.Parse(target)
	if err != nil {
		return nil, err
	}

	_, text, err := h.retriever.ReadURI(ctx, target)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(target)
		}
		h.logger.Warn("Failed to read resource", "uri", target, "error", err)
		return nil, fmt.Errorf("failed to read %s: %w", target, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      target,
				MIMEType: mimeTypeFor(id),
				Text:     text,
			},
		},
	}, nil
}

// resourceFor describes a listed document as a static resource.
func resourceFor(rec content.DocumentRecord) *mcp.Resource {
	return &mcp.Resource{
		URI:      rec.URI(),
		Name:     rec.RelativePath,
		Title:    frontmatter.Title(frontmatter.FrontMatter{}, rec.RelativePath),
		MIMEType: mimeTypeFor(rec.Identifier),
	}
}

// RegisterResources registers the resource templates and one static resource
// per listed document. Returns the number of static resources.
func RegisterResources(ctx context.Context, server *mcp.Server, retriever *content.Retriever, logger *slog.Logger) int {
	handler := NewResourceHandler(retriever, logger)

	for _, tmpl := range resourceTemplates {
		t := *tmpl
		server.AddResourceTemplate(&t, handler.Handle)
	}

	count := 0
	for _, rec := range retriever.List(ctx) {
		if u, err := url.Parse(rec.URI()); err != nil || u.Scheme == "" {
			handler.logger.Warn("Skipping document with unaddressable path", "path", rec.RelativePath, "error", err)
			continue
		}
		server.AddResource(resourceFor(rec), handler.Handle)
		count++
	}
	return count
}
