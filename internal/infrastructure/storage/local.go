package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage writes objects below a directory that the HTTP server exposes under baseURL
type LocalStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage creates the root directory if needed
func NewLocalStorage(root, baseURL string) (*LocalStorage, error) {
	if root == "" {
		return nil, errors.New("local storage path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory objects are written to
func (l *LocalStorage) Root() string {
	return l.root
}

func (l *LocalStorage) pathFor(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

// Put implements ObjectStorage
func (l *LocalStorage) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	full, err := l.pathFor(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return l.baseURL + "/" + strings.TrimLeft(key, "/"), nil
}

// Delete implements ObjectStorage. Missing files are not an error.
func (l *LocalStorage) Delete(_ context.Context, key string) error {
	full, err := l.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
