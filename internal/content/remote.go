package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// remoteBackend reads documents from {baseURL}/assets/docs/. There is no
// retry and no caching.
type remoteBackend struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func (b *remoteBackend) read(ctx context.Context, relPath string) ([]byte, error) {
	return b.get(ctx, b.baseURL+"/assets/docs/"+strings.TrimPrefix(relPath, "/"), relPath)
}

func (b *remoteBackend) exists(ctx context.Context, relPath string) bool {
	_, err := b.read(ctx, relPath)
	return err == nil
}

func (b *remoteBackend) manifest(ctx context.Context) ([]byte, error) {
	return b.get(ctx, b.baseURL+"/assets/"+ManifestFilename, ManifestFilename)
}

func (b *remoteBackend) get(ctx context.Context, url, name string) ([]byte, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRemoteFetchFailed, name, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRemoteFetchFailed, name, err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRemoteFetchFailed, name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: HTTP %d for %s: %w", ErrRemoteFetchFailed, resp.StatusCode, name, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d for %s", ErrRemoteFetchFailed, resp.StatusCode, name)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRemoteFetchFailed, name, err)
	}
	return body, nil
}
