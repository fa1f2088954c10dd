package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-docs-server/internal/search"
)

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query    string `json:"query" jsonschema:"Search query (supports wildcards and phrases)"`
	Category string `json:"category,omitempty" jsonschema:"Filter by documentation category such as core-concepts"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of results"`
}

// SearchHandler handles the search_docs MCP tool.
type SearchHandler struct {
	service *search.Service
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service *search.Service) *SearchHandler {
	return &SearchHandler{
		service: service,
	}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	results, err := h.service.Search(ctx, search.Query{
		Text:     args.Query,
		Category: args.Category,
		Limit:    args.Limit,
	})
	switch {
	case errors.Is(err, search.ErrNotReady):
		return errorResult("Search is not available. The documentation is still being indexed. Please try again later."), nil, nil
	case errors.Is(err, search.ErrEmptyQuery):
		return errorResult("Query cannot be empty"), nil, nil
	case err != nil:
		return errorResult("Search failed: %s", err), nil, nil
	}

	return h.formatResults(results, args.Query), nil, nil
}

// formatResults formats search results for MCP response.
func (h *SearchHandler) formatResults(results *search.Results, queryStr string) *mcp.CallToolResult {
	if results.Total == 0 {
		return textResult(fmt.Sprintf("No results found for query: %s", queryStr))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d results for '%s':\n\n", results.Total, queryStr))

	for i, hit := range results.Hits {
		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, hit.Title))
		sb.WriteString(fmt.Sprintf("**URI**: %s\n", hit.URI))
		sb.WriteString(fmt.Sprintf("**Path**: %s\n", hit.Path))
		sb.WriteString(fmt.Sprintf("**Score**: %.4f\n\n", hit.Score))

		if len(hit.Fragments) > 0 {
			for _, fragment := range hit.Fragments {
				sb.WriteString("> ")
				sb.WriteString(strings.ReplaceAll(fragment, "\n", " "))
				sb.WriteString("\n")
			}
		}

		sb.WriteString("\n")
	}

	if results.Total > uint64(len(results.Hits)) {
		sb.WriteString(fmt.Sprintf("... and %d more results\n", results.Total-uint64(len(results.Hits))))
	}

	return textResult(sb.String())
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_docs",
		Description: "Search the documentation using full-text search over titles, tags and content",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, service *search.Service) {
	handler := NewSearchHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
