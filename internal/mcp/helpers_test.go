package mcp

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-docs-server/internal/content"
	"github.com/sha1n/mcp-docs-server/internal/xref"
)

var testCorpus = map[string]string{
	"Core-Concepts/aggregates.md": "---\ntitle: Aggregates\ncategory: core-concepts\norder: 2\ntags: [modeling, ddd]\ndifficulty: intermediate\n---\nAn aggregate is a consistency boundary.\n<!-- more -->\nMore detail.\n",
	"Guides/snapshots.md":         "Snapshots speed up aggregate loading.\n",
	"Roadmap/sharding.md":         "---\ntitle: Sharding\nunreleased: true\nstatus: planned\ntargetVersion: \"3.0\"\n---\nSharding of event streams.\n",
	"samples/OrderSample.cs":      "public class OrderSample {}\n",
}

const testManifest = `["Core-Concepts/aggregates", "Guides/snapshots", "Roadmap/sharding", "Guides/missing"]`

const testCodeDocs = `{
  "OrderAggregate": {"file": "src/Order.cs", "line": 12, "symbol": "OrderAggregate", "docs": "core-concepts/aggregates"},
  "Snapshotter": {"file": "src/Snapshotter.cs", "line": 3, "symbol": "Snapshotter", "docs": "/v2/guides/snapshots.md"},
  "Projector": {"file": "src/Projector.cs", "line": 8, "symbol": "Projector", "docs": "core-concepts/projections"}
}`

var testCodeTests = xref.CodeTestsMapData{
	CodeToTests: map[string][]xref.TestLink{
		"OrderAggregate": {
			{TestFile: "tests/OrderTests.cs", TestMethod: "Creates", TestClass: "OrderTests", LinkSource: xref.LinkSourceXMLTag},
			{TestFile: "tests/OrderTests.cs", TestMethod: "Ships", TestClass: "OrderTests", LinkSource: xref.LinkSourceConvention},
		},
	},
	TestsToCode: map[string][]xref.CodeLink{
		"OrderTests.Creates": {{SourceFile: "src/Order.cs", SourceSymbol: "OrderAggregate", LinkSource: xref.LinkSourceXMLTag}},
	},
}

// newTestRetriever lays out a local corpus with its manifest one level above
// the docs root.
func newTestRetriever(t *testing.T) *content.Retriever {
	t.Helper()

	root := t.TempDir()
	docsDir := filepath.Join(root, "docs")
	for rel, body := range testCorpus {
		path := filepath.Join(docsDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, content.ManifestFilename), []byte(testManifest), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	return content.NewRetriever(content.Config{
		Source:   content.SourceLocal,
		BasePath: docsDir,
	}, content.WithLogger(quietLogger()))
}

func newTestCodeDocs(t *testing.T) *xref.CodeDocsIndex {
	t.Helper()
	idx, err := xref.ParseCodeDocs([]byte(testCodeDocs))
	if err != nil {
		t.Fatalf("Failed to parse code docs: %v", err)
	}
	return idx
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// Helper to extract text content from result
func extractTextContent(result *mcp.CallToolResult) string {
	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

// decodeResult unmarshals a JSON tool result into v.
func decodeResult(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("Expected success, got error result: %s", extractTextContent(result))
	}
	if err := json.Unmarshal([]byte(extractTextContent(result)), v); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
}
