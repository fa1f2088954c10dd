package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/sha1n/mcp-docs-server/internal/domain"
)

// DefaultMaxResults is used when a service is created with a non-positive limit
const DefaultMaxResults = 20

var (
	// ErrNotReady is returned when the index has not been built yet.
	ErrNotReady = errors.New("search index not ready")

	// ErrEmptyQuery is returned for blank query text.
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// Query describes a search request.
type Query struct {
	Text     string
	Category string
	Limit    int
}

// Hit is a single search result.
type Hit struct {
	URI       string   `json:"uri"`
	Path      string   `json:"path"`
	Title     string   `json:"title"`
	Category  string   `json:"category,omitempty"`
	Score     float64  `json:"score"`
	Fragments []string `json:"fragments,omitempty"`
}

// Results is a page of hits and the total number of matches.
type Results struct {
	Total uint64 `json:"total"`
	Hits  []Hit  `json:"hits"`
}

// Service owns the in-memory documentation index.
type Service struct {
	source     Source
	maxResults int
	logger     *slog.Logger
	index      bleve.Index
	ready      bool
	mu         sync.RWMutex
}

// NewService creates a new search service over source.
func NewService(source Source, maxResults int, logger *slog.Logger) *Service {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:     source,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Initialize builds the index and swaps it in. The previous index, if any,
// is closed.
func (s *Service) Initialize(ctx context.Context) error {
	index, count, err := BuildIndex(ctx, s.source, s.logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		if err := s.index.Close(); err != nil {
			s.logger.Warn("Failed to close previous index", "error", err)
		}
	}
	s.index = index
	s.ready = true
	s.logger.Info("Search index ready", "documents", count)
	return nil
}

// IsReady returns true if the index is ready for search.
func (s *Service) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// MaxResults returns the default page size.
func (s *Service) MaxResults() int {
	return s.maxResults
}

// DocCount returns the number of indexed documents.
func (s *Service) DocCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready || s.index == nil {
		return 0, ErrNotReady
	}
	return s.index.DocCount()
}

// Search runs q against the index.
func (s *Service) Search(ctx context.Context, q Query) (*Results, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrEmptyQuery
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready || s.index == nil {
		return nil, ErrNotReady
	}

	limit := q.Limit
	if limit <= 0 || limit > s.maxResults {
		limit = s.maxResults
	}

	req := bleve.NewSearchRequest(buildQuery(q))
	req.Size = limit
	req.Fields = []string{domain.DocFieldPath, domain.DocFieldTitle, domain.DocFieldCategory}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField(domain.DocFieldContent)

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := &Results{Total: res.Total, Hits: make([]Hit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		hit := Hit{URI: h.ID, Score: h.Score}
		if val, ok := h.Fields[domain.DocFieldPath].(string); ok {
			hit.Path = val
		}
		if val, ok := h.Fields[domain.DocFieldTitle].(string); ok {
			hit.Title = val
		}
		if val, ok := h.Fields[domain.DocFieldCategory].(string); ok {
			hit.Category = val
		}
		hit.Fragments = h.Fragments[domain.DocFieldContent]
		results.Hits = append(results.Hits, hit)
	}
	return results, nil
}

// buildQuery constructs a Bleve query from a search request.
func buildQuery(q Query) query.Query {
	contentQuery := bleve.NewMatchQuery(q.Text)
	contentQuery.SetField(domain.DocFieldContent)

	// Title and tag matches rank above body matches
	titleQuery := bleve.NewMatchQuery(q.Text)
	titleQuery.SetField(domain.DocFieldTitle)
	titleQuery.SetBoost(3.0)

	tagsQuery := bleve.NewMatchQuery(q.Text)
	tagsQuery.SetField(domain.DocFieldTags)
	tagsQuery.SetBoost(2.0)

	searchQuery := bleve.NewDisjunctionQuery(contentQuery, titleQuery, tagsQuery)

	category := strings.ToLower(strings.TrimSpace(q.Category))
	if category == "" {
		return searchQuery
	}

	categoryQuery := bleve.NewTermQuery(category)
	categoryQuery.SetField(domain.DocFieldCategory)
	return bleve.NewConjunctionQuery(searchQuery, categoryQuery)
}

// Close releases the index.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		if err := s.index.Close(); err != nil {
			return fmt.Errorf("failed to close index: %w", err)
		}
		s.index = nil
	}

	s.ready = false
	return nil
}
