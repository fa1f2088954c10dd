package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-docs-server/internal/search"
)

func newReadySearchService(t *testing.T) *search.Service {
	t.Helper()
	svc := search.NewService(newTestRetriever(t), 10, quietLogger())
	t.Cleanup(func() { _ = svc.Close() })
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Failed to build search index: %v", err)
	}
	return svc
}

func TestSearchHandler_NotReady(t *testing.T) {
	svc := search.NewService(newTestRetriever(t), 10, quietLogger())
	handler := NewSearchHandler(svc)

	result, _, err := handler.Handle(context.Background(), &mcp.CallToolRequest{}, SearchArgument{Query: "aggregate"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("Expected error result when index is not ready")
	}
	if !strings.Contains(extractTextContent(result), "still being indexed") {
		t.Errorf("Expected 'still being indexed' message, got: %s", extractTextContent(result))
	}
}

func TestSearchHandler_EmptyQuery(t *testing.T) {
	handler := NewSearchHandler(newReadySearchService(t))

	result, _, err := handler.Handle(context.Background(), &mcp.CallToolRequest{}, SearchArgument{Query: ""})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.IsError || !strings.Contains(extractTextContent(result), "Query cannot be empty") {
		t.Errorf("Expected empty query error, got: %s", extractTextContent(result))
	}
}

func TestSearchHandler_Results(t *testing.T) {
	handler := NewSearchHandler(newReadySearchService(t))

	result, _, err := handler.Handle(context.Background(), &mcp.CallToolRequest{}, SearchArgument{Query: "aggregate"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected success, got: %s", extractTextContent(result))
	}

	text := extractTextContent(result)
	if !strings.Contains(text, "Found 2 results for 'aggregate'") {
		t.Errorf("Expected result count header, got: %s", text)
	}
	if !strings.Contains(text, "document://core-concepts/aggregates") {
		t.Errorf("Expected aggregates URI in results, got: %s", text)
	}
	if !strings.Contains(text, "**Path**: Guides/snapshots.md") {
		t.Errorf("Expected snapshots path in results, got: %s", text)
	}
}

func TestSearchHandler_CategoryAndLimit(t *testing.T) {
	handler := NewSearchHandler(newReadySearchService(t))
	ctx := context.Background()

	result, _, _ := handler.Handle(ctx, &mcp.CallToolRequest{}, SearchArgument{Query: "aggregate", Category: "guides"})
	text := extractTextContent(result)
	if !strings.Contains(text, "Found 1 results") || strings.Contains(text, "core-concepts/aggregates") {
		t.Errorf("Expected only the guides result, got: %s", text)
	}

	result, _, _ = handler.Handle(ctx, &mcp.CallToolRequest{}, SearchArgument{Query: "aggregate", Limit: 1})
	if !strings.Contains(extractTextContent(result), "... and 1 more results") {
		t.Errorf("Expected truncation notice, got: %s", extractTextContent(result))
	}
}

func TestSearchHandler_NoResults(t *testing.T) {
	handler := NewSearchHandler(newReadySearchService(t))

	result, _, _ := handler.Handle(context.Background(), &mcp.CallToolRequest{}, SearchArgument{Query: "kubernetes"})
	if result.IsError {
		t.Fatalf("Expected success, got: %s", extractTextContent(result))
	}
	if !strings.Contains(extractTextContent(result), "No results found for query: kubernetes") {
		t.Errorf("Unexpected text: %s", extractTextContent(result))
	}
}

func TestSearchHandler_GetToolDefinition(t *testing.T) {
	tool := NewSearchHandler(nil).GetToolDefinition()
	if tool.Name != "search_docs" {
		t.Errorf("Expected tool name 'search_docs', got '%s'", tool.Name)
	}
}
