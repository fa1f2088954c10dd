// Package uri implements the resource identifier scheme used to address
// documents, roadmap items and code samples, and the mapping between
// identifiers and paths relative to the documentation root.
package uri

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scheme is the leading token of a resource identifier.
type Scheme string

// Recognized schemes.
const (
	SchemeDocument    Scheme = "document"
	SchemeRoadmapItem Scheme = "roadmap-item"
	SchemeCodeSample  Scheme = "code-sample"
)

const (
	// MarkdownExtension is the extension of every document on disk.
	MarkdownExtension = ".md"

	// SampleExtension is the extension of code sample files.
	SampleExtension = ".cs"

	// SampleLanguage is the language segment prefixed to code sample identifiers.
	SampleLanguage = "csharp"

	// RoadmapDir is the directory holding roadmap items.
	RoadmapDir = "Roadmap"

	separator = "://"
)

var (
	// ErrInvalidFormat is returned when a string is not of the form scheme://path.
	ErrInvalidFormat = errors.New("invalid resource identifier format")

	// ErrUnsupportedScheme is returned when a well-formed identifier uses an unknown scheme.
	ErrUnsupportedScheme = errors.New("unsupported resource identifier scheme")
)

var identifierPattern = regexp.MustCompile(`^([a-z][a-z0-9+.-]*)://(.+)$`)

// Identifier is a parsed resource identifier. It is an immutable value.
type Identifier struct {
	Scheme   Scheme `json:"scheme"`
	Path     string `json:"path"`
	Category string `json:"category,omitempty"`
	Language string `json:"language,omitempty"`
}

// New builds an identifier from its parts, deriving category and language.
func New(scheme Scheme, path string) Identifier {
	id := Identifier{Scheme: scheme, Path: path}
	if first, _, ok := strings.Cut(path, "/"); ok {
		id.Category = first
		if scheme == SchemeCodeSample {
			id.Language = first
		}
	}
	return id
}

// Parse parses s as scheme://path. Only the shape is checked; the scheme is
// not required to be one of the recognized ones.
func Parse(s string) (Identifier, error) {
	m := identifierPattern.FindStringSubmatch(s)
	if m == nil {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return New(Scheme(m[1]), m[2]), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Identifier {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsValid reports whether s parses as an identifier.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// SchemeOf returns the scheme token of s without validating the rest of it.
// It returns an empty scheme when s has no "://" separator.
func SchemeOf(s string) Scheme {
	scheme, _, ok := strings.Cut(s, separator)
	if !ok {
		return ""
	}
	return Scheme(scheme)
}

// String returns the identifier in scheme://path form.
func (id Identifier) String() string {
	return string(id.Scheme) + separator + id.Path
}

// Canonical returns the form used for equality comparisons. Document and
// roadmap identifiers are case-insensitive and canonically lower case.
func (id Identifier) Canonical() Identifier {
	switch id.Scheme {
	case SchemeDocument, SchemeRoadmapItem:
		return New(id.Scheme, strings.ToLower(id.Path))
	default:
		return id
	}
}

// Equivalent reports whether two identifiers address the same resource.
func (id Identifier) Equivalent(other Identifier) bool {
	return id.Canonical() == other.Canonical()
}

// ToRelativePath maps an identifier to a path relative to the documentation root.
//
// Documents map to path.md with the category directory capitalized, roadmap
// items live under Roadmap/, and code samples drop the language segment.
// A code-sample remainder without an extension gets the sample extension
// appended, so FromRelativePath maps the result back to the same identifier.
func ToRelativePath(id Identifier) (string, error) {
	switch id.Scheme {
	case SchemeDocument:
		if id.Category == "" {
			return id.Path + MarkdownExtension, nil
		}
		rest := strings.TrimPrefix(id.Path, id.Category)
		return capitalize(id.Category) + rest + MarkdownExtension, nil
	case SchemeRoadmapItem:
		return RoadmapDir + "/" + id.Path + MarkdownExtension, nil
	case SchemeCodeSample:
		rest := id.Path
		if id.Language != "" {
			rest = strings.TrimPrefix(id.Path, id.Language+"/")
		}
		if !hasExtension(rest) {
			rest += SampleExtension
		}
		return rest, nil
	default:
		return "", fmt.Errorf("%w: %q in %q", ErrUnsupportedScheme, id.Scheme, id.String())
	}
}

// FromRelativePath maps a path relative to the documentation root back to an
// identifier. Document and roadmap identifiers come back lower case, so the
// round trip through ToRelativePath does not preserve casing.
func FromRelativePath(relPath string) Identifier {
	p := strings.TrimPrefix(strings.ReplaceAll(relPath, "\\", "/"), "/")

	if strings.HasSuffix(p, SampleExtension) {
		p = strings.TrimSuffix(p, SampleExtension)
		return New(SchemeCodeSample, SampleLanguage+"/"+p)
	}

	p = strings.TrimSuffix(p, MarkdownExtension)
	if rest, ok := strings.CutPrefix(p, RoadmapDir+"/"); ok {
		return New(SchemeRoadmapItem, strings.ToLower(rest))
	}
	return New(SchemeDocument, strings.ToLower(p))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// hasExtension reports whether the last path segment carries a file extension.
func hasExtension(p string) bool {
	base := p[strings.LastIndex(p, "/")+1:]
	return strings.LastIndex(base, ".") > 0
}
