package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type localBackend struct {
	basePath string
}

func (b *localBackend) read(_ context.Context, relPath string) ([]byte, error) {
	fullPath, err := b.resolve(relPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(relPath)
		}
		return nil, err
	}
	return data, nil
}

func (b *localBackend) exists(_ context.Context, relPath string) bool {
	fullPath, err := b.resolve(relPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}

func (b *localBackend) manifest(_ context.Context) ([]byte, error) {
	path := filepath.Join(b.basePath, "..", ManifestFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return data, nil
}

// resolve joins relPath onto the docs root, rejecting paths that leave it.
func (b *localBackend) resolve(relPath string) (string, error) {
	if err := validatePath(relPath); err != nil {
		return "", fmt.Errorf("%w: %s: %s", ErrInvalidPath, relPath, err)
	}

	root := filepath.Clean(b.basePath)
	fullPath := filepath.Join(root, filepath.FromSlash(relPath))
	if rel, err := filepath.Rel(root, fullPath); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s: path traversal detected", ErrInvalidPath, relPath)
	}
	return fullPath, nil
}

func validatePath(path string) error {
	cleaned := filepath.Clean(filepath.FromSlash(path))

	if filepath.IsAbs(cleaned) || strings.HasPrefix(path, "/") {
		return errors.New("absolute paths are not allowed")
	}

	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return errors.New("path traversal is not allowed")
	}

	return nil
}
