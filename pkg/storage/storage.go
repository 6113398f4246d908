// Package storage archives uploaded import files on disk.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

var ErrFileNotFound = errors.New("file not found")

// FileInfo contains metadata about an archived file
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // relative to the user directory
	CreatedAt   time.Time `json:"created_at"`
}

// Storage is an archive of uploaded files, partitioned per user.
type Storage interface {
	// Upload stores a file and returns its metadata
	Upload(ctx context.Context, userID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// List returns a user's files, oldest first
	List(ctx context.Context, userID uuid.UUID) ([]*FileInfo, error)

	Delete(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) error

	// PurgeOlderThan removes every file archived before cutoff and reports how many went
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// StorageType identifies the storage backend
type StorageType string

const StorageTypeLocal StorageType = "local"

// Config holds storage configuration
type Config struct {
	Type      StorageType
	LocalPath string
}

// New creates a Storage for cfg. Only the local backend exists.
func New(cfg *Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	default:
		return nil, errors.New("unsupported storage type: " + string(cfg.Type))
	}
}
