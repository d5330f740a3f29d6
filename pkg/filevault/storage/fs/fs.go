package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/wbkost/backend/pkg/filevault"
)

// Backend is a filesystem implementation of the filevault.BlobStore
// interface. Storage keys are already sanitized to a flat, safe charset, so
// each payload is a single file under the base directory.
type Backend struct {
	baseDir string
}

// Config options for the filesystem backend.
type Config struct {
	BaseDir string // Base directory for storing payloads
}

// New creates a new filesystem storage backend, creating the base directory
// if needed.
func New(config Config) (filevault.BlobStore, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if err := os.MkdirAll(config.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Backend{baseDir: config.BaseDir}, nil
}

// Upload streams the reader into a file under the object key. A failed or
// interrupted stream removes the partial file so no orphan is left behind.
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params filevault.UploadParams) error {
	path := filepath.Join(b.baseDir, params.ObjectKey)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// Download opens a streamed read of the payload file.
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(b.baseDir, objectKey))
	if os.IsNotExist(err) {
		return nil, filevault.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes the payload file.
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	path := filepath.Join(b.baseDir, objectKey)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return filevault.ErrObjectNotFound
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// GetObjectMeta retrieves metadata for a payload file. The content type is
// sniffed from the first 512 bytes.
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*filevault.ObjectMeta, error) {
	path := filepath.Join(b.baseDir, objectKey)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, filevault.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	contentType := "application/octet-stream"
	if file, err := os.Open(path); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
	}

	return &filevault.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
	}, nil
}
