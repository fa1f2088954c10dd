package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-docs-server/internal/content"
	"github.com/sha1n/mcp-docs-server/internal/frontmatter"
	"github.com/sha1n/mcp-docs-server/internal/uri"
	"github.com/sha1n/mcp-docs-server/internal/xref"
)

// GetDocumentArgument defines get_document parameters.
type GetDocumentArgument struct {
	URI string `json:"uri" jsonschema:"Resource identifier such as document://core-concepts/aggregates or roadmap-item://sharding"`
}

// DocumentView is the get_document payload.
type DocumentView struct {
	URI         string               `json:"uri"`
	Path        string               `json:"path"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Roadmap     bool                 `json:"roadmap"`
	Metadata    frontmatter.Metadata `json:"metadata"`
	Content     string               `json:"content"`
}

// GetDocumentHandler handles the get_document MCP tool.
type GetDocumentHandler struct {
	retriever *content.Retriever
}

// NewGetDocumentHandler creates a new get_document handler.
func NewGetDocumentHandler(retriever *content.Retriever) *GetDocumentHandler {
	return &GetDocumentHandler{retriever: retriever}
}

// Handle reads a document and returns its parsed view.
func (h *GetDocumentHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args GetDocumentArgument) (*mcp.CallToolResult, any, error) {
	target := strings.TrimSpace(args.URI)
	if target == "" {
		return errorResult("URI cannot be empty"), nil, nil
	}

	relPath, text, err := h.retriever.ReadURI(ctx, target)
	switch {
	case errors.Is(err, uri.ErrInvalidFormat), errors.Is(err, uri.ErrUnsupportedScheme):
		return errorResult("Invalid identifier: %s", err), nil, nil
	case errors.Is(err, content.ErrNotFound):
		return errorResult("Document not found: %s", target), nil, nil
	case err != nil:
		return errorResult("Failed to read %s: %s", target, err), nil, nil
	}

	doc, err := frontmatter.Parse(text)
	if err != nil {
		return errorResult("Failed to parse %s: %s", target, err), nil, nil
	}

	return jsonResult(DocumentView{
		URI:         target,
		Path:        relPath,
		Title:       frontmatter.Title(doc.FrontMatter, relPath),
		Description: frontmatter.Description(doc.FrontMatter, doc.Excerpt),
		Roadmap:     frontmatter.IsRoadmapDoc(doc.FrontMatter),
		Metadata:    frontmatter.BuildMetadata(doc.FrontMatter),
		Content:     doc.Content,
	}), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *GetDocumentHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_document",
		Description: "Read a documentation page, roadmap item or code sample by its resource identifier, with parsed front-matter",
	}
}

// RegisterGetDocumentTool registers the get_document tool with an MCP server.
func RegisterGetDocumentTool(server *mcp.Server, retriever *content.Retriever) {
	handler := NewGetDocumentHandler(retriever)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// ListDocumentsArgument defines list_documents parameters.
type ListDocumentsArgument struct {
	Category    string `json:"category,omitempty" jsonschema:"Only list documents in this category (case-insensitive)"`
	RoadmapOnly bool   `json:"roadmap_only,omitempty" jsonschema:"Only list roadmap items"`
}

// ListDocumentsHandler handles the list_documents MCP tool.
type ListDocumentsHandler struct {
	retriever *content.Retriever
}

// NewListDocumentsHandler creates a new list_documents handler.
func NewListDocumentsHandler(retriever *content.Retriever) *ListDocumentsHandler {
	return &ListDocumentsHandler{retriever: retriever}
}

// Handle lists the corpus, optionally filtered.
func (h *ListDocumentsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ListDocumentsArgument) (*mcp.CallToolResult, any, error) {
	category := strings.TrimSpace(args.Category)

	records := make([]content.DocumentRecord, 0)
	for _, rec := range h.retriever.List(ctx) {
		if args.RoadmapOnly && rec.Identifier.Scheme != uri.SchemeRoadmapItem {
			continue
		}
		if category != "" && !strings.EqualFold(rec.Category, category) {
			continue
		}
		records = append(records, rec)
	}

	return jsonResult(records), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ListDocumentsHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_documents",
		Description: "List the documentation corpus with resource identifiers, optionally filtered by category or to roadmap items",
	}
}

// RegisterListDocumentsTool registers the list_documents tool with an MCP server.
func RegisterListDocumentsTool(server *mcp.Server, retriever *content.Retriever) {
	handler := NewListDocumentsHandler(retriever)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// ValidateDocLinksHandler handles the validate_doc_links MCP tool.
type ValidateDocLinksHandler struct {
	retriever *content.Retriever
	codeDocs  *xref.CodeDocsIndex
}

// NewValidateDocLinksHandler creates a new validate_doc_links handler.
func NewValidateDocLinksHandler(retriever *content.Retriever, codeDocs *xref.CodeDocsIndex) *ValidateDocLinksHandler {
	return &ValidateDocLinksHandler{retriever: retriever, codeDocs: codeDocs}
}

// Handle checks every code to docs link against the listed documents.
func (h *ValidateDocLinksHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	return jsonResult(h.codeDocs.ValidateLinks(ListedDocPaths(h.retriever.List(ctx)))), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ValidateDocLinksHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "validate_doc_links",
		Description: "Check that every code to documentation link points at a listed documentation page",
	}
}

// RegisterValidateDocLinksTool registers the validate_doc_links tool with an MCP server.
func RegisterValidateDocLinksTool(server *mcp.Server, retriever *content.Retriever, codeDocs *xref.CodeDocsIndex) {
	handler := NewValidateDocLinksHandler(retriever, codeDocs)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// ListedDocPaths returns the identifier paths of the listed documentation
// pages, the form code to docs links use.
func ListedDocPaths(records []content.DocumentRecord) []string {
	paths := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Identifier.Scheme == uri.SchemeDocument {
			paths = append(paths, rec.Identifier.Path)
		}
	}
	return paths
}
