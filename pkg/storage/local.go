package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const metaDirName = ".meta"

// LocalStorage implements Storage using the local filesystem. Files live at
// <base>/<user id>/<short id>_<name> with JSON metadata under <user id>/.meta.
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Upload stores a file and returns its metadata
func (s *LocalStorage) Upload(ctx context.Context, userID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fileID := uuid.New()
	userDir := s.userDir(userID)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create user directory: %w", err)
	}

	storedName := fmt.Sprintf("%s_%s", fileID.String()[:8], sanitizeFilename(filename))
	filePath := filepath.Join(userDir, storedName)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hash), r)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		UserID:      userID,
		Name:        filename,
		Size:        size,
		SHA256:      hex.EncodeToString(hash.Sum(nil)),
		ContentType: contentType,
		Path:        storedName,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.saveMetadata(info); err != nil {
		os.Remove(filePath)
		return nil, err
	}
	return info, nil
}

// List returns a user's files, oldest first
func (s *LocalStorage) List(ctx context.Context, userID uuid.UUID) ([]*FileInfo, error) {
	entries, err := os.ReadDir(filepath.Join(s.userDir(userID), metaDirName))
	if errors.Is(err, fs.ErrNotExist) {
		return []*FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		info, err := s.info(userID, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.Before(files[j].CreatedAt)
	})
	return files, nil
}

// Delete removes a file and its metadata
func (s *LocalStorage) Delete(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) error {
	info, err := s.info(userID, fileID)
	if err != nil {
		return err
	}
	return s.remove(info)
}

// PurgeOlderThan removes every file archived before cutoff, across all users.
func (s *LocalStorage) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	users, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to list storage directory: %w", err)
	}

	purged := 0
	for _, entry := range users {
		if !entry.IsDir() {
			continue
		}
		userID, err := uuid.Parse(entry.Name())
		if err != nil {
			continue
		}

		files, err := s.List(ctx, userID)
		if err != nil {
			return purged, err
		}
		for _, info := range files {
			if err := ctx.Err(); err != nil {
				return purged, err
			}
			if !info.CreatedAt.Before(cutoff) {
				continue
			}
			if err := s.Delete(ctx, userID, info.ID); err != nil {
				return purged, err
			}
			purged++
		}
	}
	return purged, nil
}

func (s *LocalStorage) remove(info *FileInfo) error {
	filePath := filepath.Join(s.userDir(info.UserID), info.Path)
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if err := os.Remove(s.metaPath(info.UserID, info.ID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}

func (s *LocalStorage) info(userID, fileID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(s.metaPath(userID, fileID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	// Metadata written before UserID was recorded.
	if info.UserID == uuid.Nil {
		info.UserID = userID
	}
	return &info, nil
}

func (s *LocalStorage) saveMetadata(info *FileInfo) error {
	metaDir := filepath.Join(s.userDir(info.UserID), metaDirName)
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(info.UserID, info.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

func (s *LocalStorage) userDir(userID uuid.UUID) string {
	return filepath.Join(s.basePath, userID.String())
}

func (s *LocalStorage) metaPath(userID, fileID uuid.UUID) string {
	return filepath.Join(s.userDir(userID), metaDirName, fileID.String()+".json")
}

// sanitizeFilename strips path separators and characters unsafe on common filesystems
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	replacer := strings.NewReplacer(
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = replacer.Replace(name)
	if name == "" || name == "." || name == "/" {
		return "upload"
	}
	return name
}
