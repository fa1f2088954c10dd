package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-docs-server/internal/uri"
	"github.com/sha1n/mcp-docs-server/internal/xref"
)

// SymbolArgument identifies a code symbol.
type SymbolArgument struct {
	Symbol string `json:"symbol" jsonschema:"Fully qualified or simple code symbol name"`
}

// DocsArgument identifies a documentation page.
type DocsArgument struct {
	Docs string `json:"docs" jsonschema:"Documentation path or URL such as /v1.2/core-concepts/aggregates.md"`
}

// TestArgument identifies a test method.
type TestArgument struct {
	Test string `json:"test" jsonschema:"Test key in ClassName.MethodName form"`
}

// UntestedArgument defines find_untested_symbols parameters.
type UntestedArgument struct {
	Symbols []string `json:"symbols,omitempty" jsonschema:"Symbols to check; defaults to every symbol with documentation"`
}

// CodeDocsResult is a code to docs lookup payload.
type CodeDocsResult struct {
	xref.CodeDocsMapping
	DocumentURI string `json:"documentUri"`
}

// TestsForCodeResult is the find_tests_for_code payload.
type TestsForCodeResult struct {
	Symbol string          `json:"symbol"`
	Tests  []xref.TestLink `json:"tests"`
}

// CodeForTestResult is the find_code_for_test payload.
type CodeForTestResult struct {
	Test string          `json:"test"`
	Code []xref.CodeLink `json:"code"`
}

// UntestedResult is the find_untested_symbols payload.
type UntestedResult struct {
	Checked  int      `json:"checked"`
	Untested []string `json:"untested"`
}

func newCodeDocsResult(m xref.CodeDocsMapping) CodeDocsResult {
	return CodeDocsResult{
		CodeDocsMapping: m,
		DocumentURI:     uri.New(uri.SchemeDocument, xref.NormalizeDocsRef(m.Docs)).String(),
	}
}

// CodeDocsHandler handles the code to docs MCP tools.
type CodeDocsHandler struct {
	index *xref.CodeDocsIndex
}

// NewCodeDocsHandler creates a new code to docs handler.
func NewCodeDocsHandler(index *xref.CodeDocsIndex) *CodeDocsHandler {
	return &CodeDocsHandler{index: index}
}

// HandleFindCodeByDocs returns the code documented by a page.
func (h *CodeDocsHandler) HandleFindCodeByDocs(ctx context.Context, req *mcp.CallToolRequest, args DocsArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Docs) == "" {
		return errorResult("Docs path cannot be empty"), nil, nil
	}
	m, ok := h.index.FindByDocs(args.Docs)
	if !ok {
		return errorResult("No code is linked to documentation: %s", args.Docs), nil, nil
	}
	return jsonResult(newCodeDocsResult(m)), nil, nil
}

// HandleFindDocsForCode returns the page documenting a symbol.
func (h *CodeDocsHandler) HandleFindDocsForCode(ctx context.Context, req *mcp.CallToolRequest, args SymbolArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Symbol) == "" {
		return errorResult("Symbol cannot be empty"), nil, nil
	}
	m, ok := h.index.FindBySymbol(args.Symbol)
	if !ok {
		return errorResult("No documentation is linked to symbol: %s", args.Symbol), nil, nil
	}
	return jsonResult(newCodeDocsResult(m)), nil, nil
}

// RegisterCodeDocsTools registers the code to docs tools with an MCP server.
func RegisterCodeDocsTools(server *mcp.Server, index *xref.CodeDocsIndex) {
	handler := NewCodeDocsHandler(index)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_code_by_docs",
		Description: "Find the code symbol documented by a documentation page or URL",
	}, handler.HandleFindCodeByDocs)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_docs_for_code",
		Description: "Find the documentation page describing a code symbol",
	}, handler.HandleFindDocsForCode)
}

// CodeTestsHandler handles the code to tests MCP tools.
type CodeTestsHandler struct {
	index    *xref.CodeTestsIndex
	codeDocs *xref.CodeDocsIndex
}

// NewCodeTestsHandler creates a new code to tests handler. codeDocs supplies
// the default symbol set for untested symbol queries.
func NewCodeTestsHandler(index *xref.CodeTestsIndex, codeDocs *xref.CodeDocsIndex) *CodeTestsHandler {
	return &CodeTestsHandler{index: index, codeDocs: codeDocs}
}

// HandleFindTestsForCode returns the tests covering a symbol.
func (h *CodeTestsHandler) HandleFindTestsForCode(ctx context.Context, req *mcp.CallToolRequest, args SymbolArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Symbol) == "" {
		return errorResult("Symbol cannot be empty"), nil, nil
	}
	return jsonResult(TestsForCodeResult{
		Symbol: args.Symbol,
		Tests:  h.index.TestsForSymbol(args.Symbol),
	}), nil, nil
}

// HandleFindCodeForTest returns the code exercised by a test.
func (h *CodeTestsHandler) HandleFindCodeForTest(ctx context.Context, req *mcp.CallToolRequest, args TestArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Test) == "" {
		return errorResult("Test cannot be empty"), nil, nil
	}
	return jsonResult(CodeForTestResult{
		Test: args.Test,
		Code: h.index.CodeForTest(args.Test),
	}), nil, nil
}

// HandleCoverageStats returns coverage statistics.
func (h *CodeTestsHandler) HandleCoverageStats(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	return jsonResult(h.index.CoverageStats()), nil, nil
}

// HandleFindUntested returns the symbols without tests.
func (h *CodeTestsHandler) HandleFindUntested(ctx context.Context, req *mcp.CallToolRequest, args UntestedArgument) (*mcp.CallToolResult, any, error) {
	symbols := args.Symbols
	if len(symbols) == 0 {
		symbols = h.codeDocs.Symbols()
	}
	return jsonResult(UntestedResult{
		Checked:  len(symbols),
		Untested: h.index.UntestedSymbols(symbols),
	}), nil, nil
}

// HandleValidateTestLinks reports on the recorded code to test links.
func (h *CodeTestsHandler) HandleValidateTestLinks(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	return jsonResult(h.index.ValidateTestLinks()), nil, nil
}

// RegisterCodeTestsTools registers the code to tests tools with an MCP server.
func RegisterCodeTestsTools(server *mcp.Server, index *xref.CodeTestsIndex, codeDocs *xref.CodeDocsIndex) {
	handler := NewCodeTestsHandler(index, codeDocs)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_tests_for_code",
		Description: "Find the test methods covering a code symbol",
	}, handler.HandleFindTestsForCode)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_code_for_test",
		Description: "Find the code symbols exercised by a test method",
	}, handler.HandleFindCodeForTest)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "test_coverage_stats",
		Description: "Summarize test coverage: covered symbols, test methods and links per discovery source",
	}, handler.HandleCoverageStats)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_untested_symbols",
		Description: "List symbols that have no linked tests",
	}, handler.HandleFindUntested)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_test_links",
		Description: "Report on every recorded code to test link",
	}, handler.HandleValidateTestLinks)
}
