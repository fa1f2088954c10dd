package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-docs-server/internal/xref"
	"github.com/sha1n/mcp-docs-server/tests/integration/testkit"
)

var corpusFiles = map[string]string{
	"Core-Concepts/aggregates.md": "---\ntitle: Aggregates\ncategory: core-concepts\ntags: [modeling]\n---\nAn aggregate is a consistency boundary around events.\n",
	"Guides/snapshots.md":         "Snapshots speed up aggregate loading.\n",
	"Roadmap/sharding.md":         "---\ntitle: Sharding\nunreleased: true\nstatus: planned\n---\nSharding of event streams.\n",
}

const corpusManifest = `["Core-Concepts/aggregates", "Guides/snapshots", "Roadmap/sharding"]`

const corpusCodeDocs = `{
  "OrderAggregate": {"file": "src/Order.cs", "line": 12, "symbol": "OrderAggregate", "docs": "core-concepts/aggregates"},
  "Projector": {"file": "src/Projector.cs", "line": 4, "symbol": "Projector", "docs": "core-concepts/projections"}
}`

const corpusCodeTests = `{
  "codeToTests": {
    "OrderAggregate": [{"testFile": "tests/OrderTests.cs", "testMethod": "Creates", "testClass": "OrderTests", "linkSource": "XmlTag"}]
  },
  "testsToCode": {
    "OrderTests.Creates": [{"sourceFile": "src/Order.cs", "sourceSymbol": "OrderAggregate"}]
  }
}`

// startDocsServer lays out the corpus and runs the server over streamable HTTP
func startDocsServer(t *testing.T, opts testkit.FlagOptions) string {
	t.Helper()

	corpus := &testkit.CorpusService{
		Root:      t.TempDir(),
		Files:     corpusFiles,
		Manifest:  corpusManifest,
		CodeDocs:  corpusCodeDocs,
		CodeTests: corpusCodeTests,
	}
	props, err := corpus.Start()
	if err != nil {
		t.Fatalf("Failed to lay out corpus: %v", err)
	}

	opts.DocsBasePath = props[testkit.PropDocsBasePath].(string)
	opts.CodeDocsMap = props[testkit.PropCodeDocsMap].(string)
	opts.CodeTestsMap = props[testkit.PropCodeTestsMap].(string)

	env := testkit.NewTestEnv(&testkit.ServerService{Flags: testkit.NewTestFlags(t, &opts)})
	envProps, err := env.Start()
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() {
		if err := env.Stop(); err != nil {
			t.Errorf("Failed to stop server: %v", err)
		}
	})

	return envProps[testkit.PropBaseURL].(string)
}

func connect(t *testing.T, ctx context.Context, baseURL string) *mcp.ClientSession {
	t.Helper()

	client := mcp.NewClient(&mcp.Implementation{Name: "integration", Version: "1.0"}, nil)
	cs, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: baseURL + "/mcp"}, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callText(t *testing.T, ctx context.Context, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool %s failed: %v", name, err)
	}
	var sb strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String(), res.IsError
}

func TestDocsServer_ResourcesOverHTTP(t *testing.T) {
	baseURL := startDocsServer(t, testkit.FlagOptions{})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cs := connect(t, ctx, baseURL)

	list, err := cs.ListResources(ctx, nil)
	if err != nil {
		t.Fatalf("ListResources failed: %v", err)
	}
	if len(list.Resources) != 3 {
		t.Errorf("Expected 3 resources, got %d", len(list.Resources))
	}

	read, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: "document://guides/snapshots"})
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	if len(read.Contents) != 1 || read.Contents[0].Text != corpusFiles["Guides/snapshots.md"] {
		t.Errorf("Unexpected resource contents: %+v", read.Contents)
	}

	if _, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: "document://guides/unknown"}); err == nil {
		t.Error("Expected error reading a missing document")
	}
}

func TestDocsServer_CrossReferenceTools(t *testing.T) {
	baseURL := startDocsServer(t, testkit.FlagOptions{})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cs := connect(t, ctx, baseURL)

	text, isErr := callText(t, ctx, cs, "find_code_by_docs", map[string]any{"docs": "/v1.2/core-concepts/aggregates.md"})
	if isErr {
		t.Fatalf("find_code_by_docs returned error: %s", text)
	}
	if !strings.Contains(text, "OrderAggregate") {
		t.Errorf("Expected OrderAggregate in %s", text)
	}

	text, isErr = callText(t, ctx, cs, "test_coverage_stats", map[string]any{})
	if isErr {
		t.Fatalf("test_coverage_stats returned error: %s", text)
	}
	var stats xref.CoverageStats
	if err := json.Unmarshal([]byte(text), &stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.TotalSymbolsCovered != 1 || stats.TotalTestMethods != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	text, isErr = callText(t, ctx, cs, "find_untested_symbols", map[string]any{})
	if isErr {
		t.Fatalf("find_untested_symbols returned error: %s", text)
	}
	if !strings.Contains(text, "Projector") || strings.Contains(text, `"OrderAggregate"`) {
		t.Errorf("Expected only Projector untested, got %s", text)
	}

	text, isErr = callText(t, ctx, cs, "validate_doc_links", map[string]any{})
	if isErr {
		t.Fatalf("validate_doc_links returned error: %s", text)
	}
	var report xref.LinkReport
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if report.TotalLinks != 2 || report.Broken != 1 {
		t.Errorf("Unexpected link report: %+v", report)
	}
}

func TestDocsServer_SearchBecomesReady(t *testing.T) {
	baseURL := startDocsServer(t, testkit.FlagOptions{})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cs := connect(t, ctx, baseURL)

	deadline := time.Now().Add(10 * time.Second)
	for {
		text, isErr := callText(t, ctx, cs, "search_docs", map[string]any{"query": "aggregate"})
		if !isErr {
			if !strings.Contains(text, "Found 2 results") {
				t.Errorf("Expected 2 results, got %s", text)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Search never became ready: %s", text)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestDocsServer_APIKeyAuth(t *testing.T) {
	baseURL := startDocsServer(t, testkit.FlagOptions{
		AuthType: "apikey",
		APIKeys:  []string{"secret-key"},
	})

	resp, err := http.Post(baseURL+"/mcp", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 without API key, got %d", resp.StatusCode)
	}

	resp, err = http.Get(baseURL + "/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from health without API key, got %d", resp.StatusCode)
	}
}

func TestDocsServer_MissingArtifactsStillServe(t *testing.T) {
	root := t.TempDir()
	corpus := &testkit.CorpusService{Root: root, Files: corpusFiles}
	props, err := corpus.Start()
	if err != nil {
		t.Fatalf("Failed to lay out corpus: %v", err)
	}

	flags := testkit.NewTestFlags(t, &testkit.FlagOptions{
		DocsBasePath: props[testkit.PropDocsBasePath].(string),
		CodeDocsMap:  filepath.Join(root, "absent.json"),
	})
	env := testkit.NewTestEnv(&testkit.ServerService{Flags: flags})
	envProps, err := env.Start()
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer func() { _ = env.Stop() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cs := connect(t, ctx, envProps[testkit.PropBaseURL].(string))

	list, err := cs.ListResources(ctx, nil)
	if err != nil {
		t.Fatalf("ListResources failed: %v", err)
	}
	if len(list.Resources) != 0 {
		t.Errorf("Expected no resources without a manifest, got %d", len(list.Resources))
	}

	text, isErr := callText(t, ctx, cs, "find_docs_for_code", map[string]any{"symbol": "OrderAggregate"})
	if !isErr {
		t.Errorf("Expected error for unmapped symbol, got %s", text)
	}
}
