// Package content retrieves raw documentation text from a local directory or
// a remote HTTP origin, and enumerates the corpus from its manifest.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sha1n/mcp-docs-server/internal/uri"
	"golang.org/x/time/rate"
)

// Source selects where documents are read from.
type Source string

// Supported sources.
const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

const (
	// ManifestFilename is the corpus manifest, stored one level above the docs root.
	ManifestFilename = "docs-list.json"

	// DefaultTimeout bounds a single remote request.
	DefaultTimeout = 10 * time.Second
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrRemoteFetchFailed is returned for non-success responses and transport failures.
	ErrRemoteFetchFailed = errors.New("remote fetch failed")

	// ErrInvalidPath is returned for absolute paths and paths escaping the docs root.
	ErrInvalidPath = errors.New("invalid document path")
)

// Config describes where the corpus lives. It is validated by the caller.
type Config struct {
	Source        Source
	BasePath      string
	RemoteBaseURL string

	// Timeout bounds remote requests. Zero means DefaultTimeout.
	Timeout time.Duration

	// RequestsPerSecond limits remote requests. Zero means unlimited.
	RequestsPerSecond float64
}

// DocumentRecord is one entry of the corpus listing.
type DocumentRecord struct {
	RelativePath string         `json:"relativePath"`
	Identifier   uri.Identifier `json:"identifier"`
	Category     string         `json:"category,omitempty"`
}

// URI returns the record's identifier in string form.
func (r DocumentRecord) URI() string {
	return r.Identifier.String()
}

// backend is the source-specific part of a Retriever.
type backend interface {
	read(ctx context.Context, relPath string) ([]byte, error)
	exists(ctx context.Context, relPath string) bool
	manifest(ctx context.Context) ([]byte, error)
}

// Retriever reads documents and lists the corpus. It holds no mutable state
// and is safe for concurrent use.
type Retriever struct {
	cfg     Config
	backend backend
	logger  *slog.Logger
}

// Option configures a Retriever.
type Option func(*options)

type options struct {
	client *http.Client
	logger *slog.Logger
}

// WithHTTPClient sets the client used in remote mode.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithLogger sets the logger used to report listing failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// NewRetriever creates a Retriever for the given configuration.
func NewRetriever(cfg Config, opts ...Option) *Retriever {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	var b backend
	switch cfg.Source {
	case SourceRemote:
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client := o.client
		if client == nil {
			client = &http.Client{Timeout: timeout}
		}
		var limiter *rate.Limiter
		if cfg.RequestsPerSecond > 0 {
			limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
		}
		b = &remoteBackend{
			baseURL: strings.TrimRight(cfg.RemoteBaseURL, "/"),
			client:  client,
			limiter: limiter,
		}
	default:
		b = &localBackend{basePath: cfg.BasePath}
	}

	return &Retriever{
		cfg:     cfg,
		backend: b,
		logger:  o.logger,
	}
}

// Config returns the retriever configuration.
func (r *Retriever) Config() Config {
	return r.cfg
}

// Read returns the raw text of the document at relPath.
func (r *Retriever) Read(ctx context.Context, relPath string) (string, error) {
	data, err := r.backend.read(ctx, relPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Exists reports whether the document at relPath can be read. Remote
// existence is approximated by fetchability.
func (r *Retriever) Exists(ctx context.Context, relPath string) bool {
	return r.backend.exists(ctx, relPath)
}

// ReadURI resolves an identifier string and reads the document it addresses.
// It returns the relative path alongside the content.
func (r *Retriever) ReadURI(ctx context.Context, s string) (relPath, text string, err error) {
	id, err := uri.Parse(s)
	if err != nil {
		return "", "", err
	}
	relPath, err = uri.ToRelativePath(id)
	if err != nil {
		return "", "", err
	}
	text, err = r.Read(ctx, relPath)
	if err != nil {
		return relPath, "", err
	}
	return relPath, text, nil
}

// List enumerates the corpus from the manifest. It is recomputed on every
// call and is best-effort: any manifest failure yields an empty listing.
func (r *Retriever) List(ctx context.Context) []DocumentRecord {
	data, err := r.backend.manifest(ctx)
	if err != nil {
		r.logger.Warn("Failed to read docs manifest", "error", err)
		return []DocumentRecord{}
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		r.logger.Warn("Failed to parse docs manifest", "error", err)
		return []DocumentRecord{}
	}

	records := make([]DocumentRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, NewDocumentRecord(entry+uri.MarkdownExtension))
	}
	return records
}

// NewDocumentRecord builds the listing record for a relative path.
func NewDocumentRecord(relPath string) DocumentRecord {
	rec := DocumentRecord{
		RelativePath: relPath,
		Identifier:   uri.FromRelativePath(relPath),
	}
	if first, _, ok := strings.Cut(relPath, "/"); ok {
		rec.Category = first
	}
	return rec
}

func notFound(relPath string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, relPath)
}
