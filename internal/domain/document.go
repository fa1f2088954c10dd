package domain

import (
	"github.com/sha1n/mcp-docs-server/internal/content"
	"github.com/sha1n/mcp-docs-server/internal/frontmatter"
)

// DocDocument represents an indexed documentation page.
// It is the primary data structure stored in the Bleve search index.
type DocDocument struct {
	// ID is the resource identifier of the page.
	// Format: "document://core-concepts/aggregates"
	ID string `json:"id"`

	// Path is the file path relative to the docs root.
	// Example: "Core-Concepts/aggregates.md"
	Path string `json:"path"`

	// Title is the front-matter title, or one derived from the path.
	Title string `json:"title"`

	// Category is the first path segment, lowercased.
	Category string `json:"category"`

	// Tags are the front-matter tags.
	Tags []string `json:"tags"`

	// Roadmap is true for unreleased or status-tracked pages.
	Roadmap bool `json:"roadmap"`

	// Content is the markdown body without front-matter.
	Content string `json:"content"`
}

// NewDocDocument builds the index document for a listed record and its parsed text.
func NewDocDocument(rec content.DocumentRecord, doc *frontmatter.Document) DocDocument {
	return DocDocument{
		ID:       rec.URI(),
		Path:     rec.RelativePath,
		Title:    frontmatter.Title(doc.FrontMatter, rec.RelativePath),
		Category: rec.Identifier.Category,
		Tags:     doc.FrontMatter.Tags,
		Roadmap:  frontmatter.IsRoadmapDoc(doc.FrontMatter),
		Content:  doc.Content,
	}
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	DocFieldID       = "id"
	DocFieldPath     = "path"
	DocFieldTitle    = "title"
	DocFieldCategory = "category"
	DocFieldTags     = "tags"
	DocFieldRoadmap  = "roadmap"
	DocFieldContent  = "content"
)
