// Package xref holds the precomputed cross-reference indices between code
// symbols and the documentation and tests that cover them. Indices are
// loaded once and never mutated, so concurrent reads need no locking.
package xref

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// CodeDocsMapping links a code symbol to the documentation that explains it.
type CodeDocsMapping struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Symbol string `json:"symbol"`
	Docs   string `json:"docs"`
}

// CodeDocsIndex is the symbol to documentation index.
type CodeDocsIndex struct {
	bySymbol map[string]CodeDocsMapping
	order    []string
}

// NewCodeDocsIndex builds an index from mappings. Iteration order follows the
// slice; later duplicates of a symbol replace earlier ones in place.
func NewCodeDocsIndex(mappings []CodeDocsMapping) *CodeDocsIndex {
	idx := &CodeDocsIndex{bySymbol: make(map[string]CodeDocsMapping, len(mappings))}
	for _, m := range mappings {
		idx.put(m.Symbol, m)
	}
	return idx
}

func (idx *CodeDocsIndex) put(key string, m CodeDocsMapping) {
	if _, ok := idx.bySymbol[key]; !ok {
		idx.order = append(idx.order, key)
	}
	idx.bySymbol[key] = m
}

// LoadCodeDocs reads the index artifact at path. Failures are logged and
// produce an empty index.
func LoadCodeDocs(path string, logger *slog.Logger) *CodeDocsIndex {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Failed to load code-docs index, using empty index", "path", path, "error", err)
		return NewCodeDocsIndex(nil)
	}

	idx, err := ParseCodeDocs(data)
	if err != nil {
		logger.Warn("Failed to parse code-docs index, using empty index", "path", path, "error", err)
		return NewCodeDocsIndex(nil)
	}

	logger.Info("Loaded code-docs index", "path", path, "symbols", idx.Len())
	return idx
}

// ParseCodeDocs decodes a JSON object of symbol to mapping, keeping the
// document order of its keys.
func ParseCodeDocs(data []byte) (*CodeDocsIndex, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	idx := NewCodeDocsIndex(nil)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected a symbol key, got %v", tok)
		}

		var m CodeDocsMapping
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("symbol %q: %w", key, err)
		}
		idx.put(key, m)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after index object")
	}
	return idx, nil
}

// Len returns the number of symbols in the index.
func (idx *CodeDocsIndex) Len() int {
	return len(idx.order)
}

// Symbols returns all indexed symbols in index order.
func (idx *CodeDocsIndex) Symbols() []string {
	return append([]string(nil), idx.order...)
}

// Mappings returns all mappings in index order.
func (idx *CodeDocsIndex) Mappings() []CodeDocsMapping {
	out := make([]CodeDocsMapping, 0, len(idx.order))
	for _, key := range idx.order {
		out = append(out, idx.bySymbol[key])
	}
	return out
}

// FindBySymbol looks a symbol up directly.
func (idx *CodeDocsIndex) FindBySymbol(symbol string) (CodeDocsMapping, bool) {
	m, ok := idx.bySymbol[symbol]
	return m, ok
}

var versionPrefix = regexp.MustCompile(`^v\d+(\.\d+)*/`)

// NormalizeDocsRef strips a leading slash, a leading version segment such as
// "v1.2/" and a trailing ".md" from a documentation URL or concept name.
func NormalizeDocsRef(ref string) string {
	ref = strings.TrimPrefix(ref, "/")
	ref = versionPrefix.ReplaceAllString(ref, "")
	return strings.TrimSuffix(ref, ".md")
}

// FindByDocs returns the first mapping, in index order, whose docs path
// equals the normalized reference or contains it as a substring.
func (idx *CodeDocsIndex) FindByDocs(ref string) (CodeDocsMapping, bool) {
	needle := NormalizeDocsRef(ref)
	if needle == "" {
		return CodeDocsMapping{}, false
	}
	for _, key := range idx.order {
		m := idx.bySymbol[key]
		if m.Docs == needle || strings.Contains(m.Docs, needle) {
			return m, true
		}
	}
	return CodeDocsMapping{}, false
}

// ValidateLinks classifies every mapping as valid when its docs path is in
// validDocs and broken otherwise.
func (idx *CodeDocsIndex) ValidateLinks(validDocs []string) LinkReport {
	valid := make(map[string]struct{}, len(validDocs))
	for _, d := range validDocs {
		valid[d] = struct{}{}
	}

	report := LinkReport{Details: make([]LinkStatus, 0, len(idx.order))}
	for _, key := range idx.order {
		m := idx.bySymbol[key]
		_, ok := valid[m.Docs]
		if ok {
			report.Valid++
		} else {
			report.Broken++
		}
		report.Details = append(report.Details, LinkStatus{
			Symbol: key,
			Target: m.Docs,
			Valid:  ok,
		})
	}
	report.TotalLinks = len(report.Details)
	return report
}
