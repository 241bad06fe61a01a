package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore implements ObjectStore on local disk for development and tests.
// Keys map to paths under the base directory; path separators in the key
// become subdirectories.
type LocalStore struct {
	basePath string
	baseURL  string
}

// NewLocalStore creates the base directory if missing. baseURL is prefixed
// onto keys by PresignGet; the local store does not sign anything.
func NewLocalStore(basePath, baseURL string) (*LocalStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes the object under the base directory.
func (l *LocalStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	target, err := l.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create object: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	return nil
}

// PresignGet returns the base URL joined with the escaped key.
func (l *LocalStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, err := l.pathFor(key); err != nil {
		return "", err
	}
	escaped := make([]string, 0, 4)
	for _, part := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return l.baseURL + "/" + strings.Join(escaped, "/"), nil
}

// Delete removes the object; deleting a missing object is a no-op.
func (l *LocalStore) Delete(_ context.Context, key string) error {
	target, err := l.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// pathFor resolves a key to a path and rejects keys escaping the base dir.
func (l *LocalStore) pathFor(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	target := filepath.Join(l.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(l.basePath, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("object key escapes storage dir: %q", key)
	}
	return target, nil
}
