// Package frontmatter splits markdown documents into a YAML front-matter
// block, the body and an optional excerpt, and derives display metadata.
package frontmatter

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	// Delimiter opens and closes the front-matter block.
	Delimiter = "---"

	// ExcerptSeparator marks the end of the excerpt inside the body.
	ExcerptSeparator = "<!-- more -->"

	// MaxDescriptionLength caps descriptions derived from the excerpt.
	MaxDescriptionLength = 200
)

// Status of a roadmap item.
type Status string

// Known roadmap statuses.
const (
	StatusPlanned       Status = "planned"
	StatusInDevelopment Status = "in-development"
	StatusExperimental  Status = "experimental"
)

// Difficulty of a tutorial-style document.
type Difficulty string

// Known difficulties.
const (
	DifficultyBeginner     Difficulty = "BEGINNER"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
)

// FrontMatter holds the recognized header fields. Absent fields keep their
// zero value; unknown fields are ignored.
type FrontMatter struct {
	Title         string     `yaml:"title" json:"title,omitempty"`
	Category      string     `yaml:"category" json:"category,omitempty"`
	Order         *int       `yaml:"order" json:"order,omitempty"`
	Tags          []string   `yaml:"tags" json:"tags,omitempty"`
	Description   string     `yaml:"description" json:"description,omitempty"`
	Unreleased    bool       `yaml:"unreleased" json:"unreleased,omitempty"`
	TargetVersion string     `yaml:"targetVersion" json:"targetVersion,omitempty"`
	Status        Status     `yaml:"status" json:"status,omitempty"`
	LastUpdated   string     `yaml:"lastUpdated" json:"lastUpdated,omitempty"`
	Difficulty    Difficulty `yaml:"difficulty" json:"difficulty,omitempty"`
}

// Document is a parsed markdown document.
type Document struct {
	FrontMatter FrontMatter `json:"frontMatter"`
	Content     string      `json:"content"`
	Excerpt     string      `json:"excerpt,omitempty"`
}

// Parse splits raw into front-matter, body and excerpt. A document without a
// leading delimiter has empty front-matter and raw as its body.
func Parse(raw string) (*Document, error) {
	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	doc := &Document{Content: raw}

	header, body, ok := splitHeader(raw)
	if ok {
		if strings.TrimSpace(header) != "" {
			fm, err := decodeFrontMatter([]byte(header))
			if err != nil {
				return nil, fmt.Errorf("failed to parse front-matter: %w", err)
			}
			doc.FrontMatter = fm
		}
		doc.Content = body
	}

	if before, _, found := strings.Cut(doc.Content, ExcerptSeparator); found {
		doc.Excerpt = strings.TrimSpace(before)
	}

	return doc, nil
}

// decodeFrontMatter decodes the header block. A field whose value has the
// wrong type is left absent; only malformed YAML is an error.
func decodeFrontMatter(header []byte) (FrontMatter, error) {
	var fm FrontMatter
	err := yaml.Unmarshal(header, &fm)

	var typeErr *yaml.TypeError
	if err == nil || !errors.As(err, &typeErr) {
		return fm, err
	}

	var fields map[string]yaml.Node
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return FrontMatter{}, err
	}

	fm = FrontMatter{}
	decodeField(fields, "title", &fm.Title)
	decodeField(fields, "category", &fm.Category)
	decodeField(fields, "order", &fm.Order)
	decodeField(fields, "tags", &fm.Tags)
	decodeField(fields, "description", &fm.Description)
	decodeField(fields, "unreleased", &fm.Unreleased)
	decodeField(fields, "targetVersion", &fm.TargetVersion)
	decodeField(fields, "status", &fm.Status)
	decodeField(fields, "lastUpdated", &fm.LastUpdated)
	decodeField(fields, "difficulty", &fm.Difficulty)
	return fm, nil
}

// decodeField sets dst from fields[key] when the value decodes as T.
func decodeField[T any](fields map[string]yaml.Node, key string, dst *T) {
	node, ok := fields[key]
	if !ok {
		return
	}
	var v T
	if err := node.Decode(&v); err == nil {
		*dst = v
	}
}

// splitHeader separates a leading ---/--- block from the rest of the text.
func splitHeader(raw string) (header, body string, ok bool) {
	first, rest, found := strings.Cut(raw, "\n")
	if !found || strings.TrimRight(first, " \t") != Delimiter {
		return "", raw, false
	}

	var lines []string
	for {
		line, remaining, more := strings.Cut(rest, "\n")
		if strings.TrimRight(line, " \t") == Delimiter {
			return strings.Join(lines, "\n"), strings.TrimPrefix(remaining, "\n"), true
		}
		if !more {
			return "", raw, false
		}
		lines = append(lines, line)
		rest = remaining
	}
}

// IsRoadmapDoc reports whether the front-matter describes a roadmap item.
func IsRoadmapDoc(fm FrontMatter) bool {
	return fm.Unreleased || fm.Status != ""
}

// Title returns fm.Title, or a title derived from the last segment of
// fallbackPath: extension stripped, dashes turned into spaces, each word
// capitalized.
func Title(fm FrontMatter, fallbackPath string) string {
	if fm.Title != "" {
		return fm.Title
	}

	base := path.Base(strings.ReplaceAll(fallbackPath, "\\", "/"))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}

	words := strings.Split(strings.ReplaceAll(base, "-", " "), " ")
	for i, w := range words {
		if r, size := utf8.DecodeRuneInString(w); size > 0 {
			words[i] = string(unicode.ToUpper(r)) + w[size:]
		}
	}
	return strings.Join(words, " ")
}

// Description returns fm.Description, else the first 200 characters of
// excerpt, else an empty string.
func Description(fm FrontMatter, excerpt string) string {
	if fm.Description != "" {
		return fm.Description
	}
	runes := []rune(excerpt)
	if len(runes) > MaxDescriptionLength {
		return string(runes[:MaxDescriptionLength])
	}
	return excerpt
}
