// Package storage persists generated artifacts and returns the reference clients fetch them by.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type ResultStore interface {
	Save(ctx context.Context, owner, id uuid.UUID, contentType string, data []byte) (string, error)
	// Delete removes a saved artifact. A missing artifact is not an error.
	Delete(ctx context.Context, owner, id uuid.UUID, contentType string) error
}

// LocalStore writes under root and serves files below publicPrefix.
type LocalStore struct {
	root         string
	publicPrefix string
}

var _ ResultStore = &LocalStore{}

func NewLocalStore(root, publicPrefix string) *LocalStore {
	return &LocalStore{
		root:         root,
		publicPrefix: "/" + strings.Trim(publicPrefix, "/"),
	}
}

func (s *LocalStore) Save(ctx context.Context, owner, id uuid.UUID, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty artifact for %s", id)
	}

	name := id.String() + extensionFor(contentType)
	dir := filepath.Join(s.root, "generated", owner.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create result dir: %w", err)
	}

	// Write then rename so readers never observe a partial file.
	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write result: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close result: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("finalize result: %w", err)
	}

	return fmt.Sprintf("%s/generated/%s/%s", s.publicPrefix, owner, name), nil
}

func (s *LocalStore) Delete(ctx context.Context, owner, id uuid.UUID, contentType string) error {
	path := filepath.Join(s.root, "generated", owner.String(), id.String()+extensionFor(contentType))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove result: %w", err)
	}
	return nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
