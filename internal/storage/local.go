package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalBlobStore writes attachments under a directory served statically at
// publicPrefix.
type LocalBlobStore struct {
	dir          string
	publicPrefix string
	maxBytes     int64
}

// NewLocalBlobStore ensures dir exists.
func NewLocalBlobStore(dir, publicPrefix string, maxBytes int64) (*LocalBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &LocalBlobStore{
		dir:          dir,
		publicPrefix: "/" + strings.Trim(publicPrefix, "/"),
		maxBytes:     maxBytes,
	}, nil
}

// Dir returns the directory attachments are written to.
func (s *LocalBlobStore) Dir() string {
	return s.dir
}

// PublicPrefix returns the URL prefix attachments are served under.
func (s *LocalBlobStore) PublicPrefix() string {
	return s.publicPrefix
}

func (s *LocalBlobStore) Store(_ context.Context, folder string, upload Upload) (string, error) {
	if err := validateUpload(upload, s.maxBytes); err != nil {
		return "", err
	}
	data, err := readLimited(upload.Body, s.maxBytes)
	if err != nil {
		return "", err
	}

	name := objectName(folder, upload)
	full := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create blob folder: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return path.Join(s.publicPrefix, name), nil
}

func (s *LocalBlobStore) Delete(_ context.Context, blobPath string) error {
	rel := strings.TrimPrefix(blobPath, s.publicPrefix+"/")
	if rel == blobPath || strings.Contains(rel, "..") {
		return fmt.Errorf("blob %q is not managed by this store", blobPath)
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
