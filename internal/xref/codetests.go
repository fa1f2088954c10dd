package xref

import (
	"encoding/json"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
)

// LinkSource records how a code to test link was discovered.
type LinkSource string

// Known link sources.
const (
	LinkSourceXMLTag           LinkSource = "XmlTag"
	LinkSourceConvention       LinkSource = "Convention"
	LinkSourceSemanticAnalysis LinkSource = "SemanticAnalysis"
)

// LinkSources lists the known link sources in reporting order.
var LinkSources = []LinkSource{LinkSourceXMLTag, LinkSourceConvention, LinkSourceSemanticAnalysis}

// TestLink points from a code symbol to a test method.
type TestLink struct {
	TestFile   string     `json:"testFile"`
	TestMethod string     `json:"testMethod"`
	TestLine   int        `json:"testLine,omitempty"`
	TestClass  string     `json:"testClass,omitempty"`
	LinkSource LinkSource `json:"linkSource"`
}

// Key returns the canonical "ClassName.MethodName" key of the linked test.
// When the class is unknown the test file name without its extension stands
// in for it, following the one-class-per-file convention.
func (l TestLink) Key() string {
	owner := l.TestClass
	if owner == "" {
		base := path.Base(strings.ReplaceAll(l.TestFile, "\\", "/"))
		owner = strings.TrimSuffix(base, path.Ext(base))
	}
	return TestKey(owner, l.TestMethod)
}

// CodeLink points from a test method back to a code symbol.
type CodeLink struct {
	SourceFile   string     `json:"sourceFile"`
	SourceLine   int        `json:"sourceLine,omitempty"`
	SourceSymbol string     `json:"sourceSymbol"`
	SourceType   string     `json:"sourceType,omitempty"`
	LinkSource   LinkSource `json:"linkSource,omitempty"`
}

// CodeTestsMapData is the on-disk shape of the code to tests artifact.
// Summary counts are informational; statistics are always recomputed.
type CodeTestsMapData struct {
	CodeToTests map[string][]TestLink `json:"codeToTests"`
	TestsToCode map[string][]CodeLink `json:"testsToCode"`
	Summary     map[string]any        `json:"summary,omitempty"`
}

// TestKey builds the canonical test key.
func TestKey(className, methodName string) string {
	return className + "." + methodName
}

// CodeTestsIndex is the bidirectional symbol to test index.
type CodeTestsIndex struct {
	data CodeTestsMapData
}

// NewCodeTestsIndex wraps map data, replacing nil maps with empty ones.
func NewCodeTestsIndex(data CodeTestsMapData) *CodeTestsIndex {
	if data.CodeToTests == nil {
		data.CodeToTests = make(map[string][]TestLink)
	}
	if data.TestsToCode == nil {
		data.TestsToCode = make(map[string][]CodeLink)
	}
	return &CodeTestsIndex{data: data}
}

// LoadCodeTests reads the index artifact at path. Failures are logged and
// produce an empty index.
func LoadCodeTests(path string, logger *slog.Logger) *CodeTestsIndex {
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Failed to load code-tests index, using empty index", "path", path, "error", err)
		return NewCodeTestsIndex(CodeTestsMapData{})
	}

	var data CodeTestsMapData
	if err := json.Unmarshal(raw, &data); err != nil {
		logger.Warn("Failed to parse code-tests index, using empty index", "path", path, "error", err)
		return NewCodeTestsIndex(CodeTestsMapData{})
	}

	idx := NewCodeTestsIndex(data)
	logger.Info("Loaded code-tests index", "path", path,
		"symbols", len(idx.data.CodeToTests), "tests", len(idx.data.TestsToCode))
	return idx
}

// TestsForSymbol returns the tests linked to symbol. The result is empty,
// never nil, when the symbol has no tests.
func (idx *CodeTestsIndex) TestsForSymbol(symbol string) []TestLink {
	links := idx.data.CodeToTests[symbol]
	if links == nil {
		return []TestLink{}
	}
	return append([]TestLink(nil), links...)
}

// CodeForTest returns the code linked to a "ClassName.MethodName" test key.
func (idx *CodeTestsIndex) CodeForTest(testKey string) []CodeLink {
	links := idx.data.TestsToCode[testKey]
	if links == nil {
		return []CodeLink{}
	}
	return append([]CodeLink(nil), links...)
}

// Summary returns the informational summary stored with the artifact.
func (idx *CodeTestsIndex) Summary() map[string]any {
	return idx.data.Summary
}

// CoverageStats summarizes test coverage.
type CoverageStats struct {
	TotalSymbolsCovered   int                `json:"totalSymbolsCovered"`
	TotalTestMethods      int                `json:"totalTestMethods"`
	AverageTestsPerSymbol float64            `json:"averageTestsPerSymbol"`
	ByLinkSource          map[LinkSource]int `json:"byLinkSource"`
}

// CoverageStats computes statistics from the mappings on every call.
// Test methods are counted once across both directions of the index.
func (idx *CodeTestsIndex) CoverageStats() CoverageStats {
	stats := CoverageStats{ByLinkSource: make(map[LinkSource]int, len(LinkSources))}
	for _, src := range LinkSources {
		stats.ByLinkSource[src] = 0
	}

	tests := make(map[string]struct{})
	totalLinks := 0
	for _, links := range idx.data.CodeToTests {
		if len(links) == 0 {
			continue
		}
		stats.TotalSymbolsCovered++
		totalLinks += len(links)
		for _, l := range links {
			tests[l.Key()] = struct{}{}
			if l.LinkSource != "" {
				stats.ByLinkSource[l.LinkSource]++
			}
		}
	}
	for key, links := range idx.data.TestsToCode {
		if len(links) > 0 {
			tests[key] = struct{}{}
		}
	}

	stats.TotalTestMethods = len(tests)
	if stats.TotalSymbolsCovered > 0 {
		stats.AverageTestsPerSymbol = float64(totalLinks) / float64(stats.TotalSymbolsCovered)
	}
	return stats
}

// UntestedSymbols returns the symbols from allSymbols that are not keys of
// the symbol to tests mapping, in input order.
func (idx *CodeTestsIndex) UntestedSymbols(allSymbols []string) []string {
	untested := make([]string, 0)
	for _, s := range allSymbols {
		if _, ok := idx.data.CodeToTests[s]; !ok {
			untested = append(untested, s)
		}
	}
	return untested
}

// ValidateTestLinks reports every recorded link as valid. Test files are not
// checked on disk.
func (idx *CodeTestsIndex) ValidateTestLinks() LinkReport {
	symbols := make([]string, 0, len(idx.data.CodeToTests))
	for s := range idx.data.CodeToTests {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	report := LinkReport{Details: []LinkStatus{}}
	for _, s := range symbols {
		for _, l := range idx.data.CodeToTests[s] {
			report.Details = append(report.Details, LinkStatus{
				Symbol: s,
				Target: l.Key(),
				Valid:  true,
			})
		}
	}
	report.TotalLinks = len(report.Details)
	report.Valid = report.TotalLinks
	return report
}
