package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/sha1n/mcp-docs-server/internal/content"
	"github.com/sha1n/mcp-docs-server/internal/domain"
	"github.com/sha1n/mcp-docs-server/internal/frontmatter"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxParallelReads is the maximum number of concurrent document reads
	MaxParallelReads = 4

	// MaxBatchSize is the maximum number of documents per batch
	MaxBatchSize = 100
)

// Source provides the corpus to index.
type Source interface {
	List(ctx context.Context) []content.DocumentRecord
	Read(ctx context.Context, relPath string) (string, error)
}

// CreateIndexMapping creates the Bleve index mapping for documentation pages.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Content field - analyzed for full-text search
	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = true
	contentField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(domain.DocFieldContent, contentField)

	// Title - analyzed, stored for display
	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = standard.Name
	titleField.Store = true
	docMapping.AddFieldMappingsAt(domain.DocFieldTitle, titleField)

	tagsField := bleve.NewTextFieldMapping()
	tagsField.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(domain.DocFieldTags, tagsField)

	// Category and path - keyword (not analyzed), stored
	categoryField := bleve.NewTextFieldMapping()
	categoryField.Analyzer = keyword.Name
	categoryField.Store = true
	docMapping.AddFieldMappingsAt(domain.DocFieldCategory, categoryField)

	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = keyword.Name
	pathField.Store = true
	docMapping.AddFieldMappingsAt(domain.DocFieldPath, pathField)

	roadmapField := bleve.NewBooleanFieldMapping()
	roadmapField.Store = true
	docMapping.AddFieldMappingsAt(domain.DocFieldRoadmap, roadmapField)

	// ID - stored but not indexed (we use the document ID)
	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	docMapping.AddFieldMappingsAt(domain.DocFieldID, idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// loadDocuments reads and parses every listed document with bounded
// parallelism. Unreadable or unparsable documents are skipped.
func loadDocuments(ctx context.Context, src Source, logger *slog.Logger) ([]domain.DocDocument, error) {
	records := src.List(ctx)
	docs := make([]*domain.DocDocument, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxParallelReads)

	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			raw, err := src.Read(gctx, rec.RelativePath)
			if err != nil {
				logger.Warn("Skipping unreadable document", "path", rec.RelativePath, "error", err)
				return nil
			}

			parsed, err := frontmatter.Parse(raw)
			if err != nil {
				logger.Warn("Skipping document with invalid front-matter", "path", rec.RelativePath, "error", err)
				return nil
			}

			d := domain.NewDocDocument(rec, parsed)
			docs[i] = &d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]domain.DocDocument, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			result = append(result, *d)
		}
	}
	return result, nil
}

// BuildIndex creates an in-memory index over the corpus.
// Returns the index and the number of documents indexed.
func BuildIndex(ctx context.Context, src Source, logger *slog.Logger) (bleve.Index, int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	docs, err := loadDocuments(ctx, src, logger)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load documents: %w", err)
	}

	index, err := bleve.NewMemOnly(CreateIndexMapping())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create index: %w", err)
	}

	count, err := indexDocuments(index, docs, logger)
	if err != nil {
		_ = index.Close()
		return nil, 0, err
	}

	return index, count, nil
}

// indexDocuments writes docs to index in batches.
func indexDocuments(index bleve.Index, docs []domain.DocDocument, logger *slog.Logger) (int, error) {
	batch := index.NewBatch()
	count := 0

	for _, d := range docs {
		if err := batch.Index(d.ID, d); err != nil {
			logger.Warn("Skipping document that failed to index", "id", d.ID, "error", err)
			continue
		}
		if batch.Size() >= MaxBatchSize {
			if err := index.Batch(batch); err != nil {
				return count, fmt.Errorf("batch index failed: %w", err)
			}
			count += batch.Size()
			batch.Reset()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return count, fmt.Errorf("final batch index failed: %w", err)
		}
		count += batch.Size()
	}

	return count, nil
}
