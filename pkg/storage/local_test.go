package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*LocalStorage, *time.Time) {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestLocalStorage_Upload(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage(t)
	userID := uuid.New()

	info, err := s.Upload(ctx, userID, "../账单 2024.csv", "text/csv", strings.NewReader("日期,金额\n"))
	require.NoError(t, err)

	assert.Equal(t, userID, info.UserID)
	assert.Equal(t, "../账单 2024.csv", info.Name)
	assert.Equal(t, int64(len("日期,金额\n")), info.Size)
	assert.Len(t, info.SHA256, 64)
	assert.NotContains(t, info.Path, "/")
	assert.True(t, strings.HasSuffix(info.Path, "_账单 2024.csv"))

	data, err := os.ReadFile(filepath.Join(s.basePath, userID.String(), info.Path))
	require.NoError(t, err)
	assert.Equal(t, "日期,金额\n", string(data))

	files, err := s.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, info.SHA256, files[0].SHA256)

	assert.ErrorIs(t, s.Delete(ctx, uuid.New(), info.ID), ErrFileNotFound)
}

func TestLocalStorage_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	s, now := newTestStorage(t)
	userID := uuid.New()

	empty, err := s.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first, err := s.Upload(ctx, userID, "a.csv", "text/csv", strings.NewReader("a"))
	require.NoError(t, err)
	*now = now.Add(time.Hour)
	second, err := s.Upload(ctx, userID, "b.xlsx", "", strings.NewReader("b"))
	require.NoError(t, err)

	files, err := s.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, first.ID, files[0].ID)
	assert.Equal(t, second.ID, files[1].ID)

	require.NoError(t, s.Delete(ctx, userID, first.ID))
	assert.ErrorIs(t, s.Delete(ctx, userID, first.ID), ErrFileNotFound)

	files, err = s.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, second.ID, files[0].ID)

	_, err = os.Stat(filepath.Join(s.basePath, userID.String(), first.Path))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorage_PurgeOlderThan(t *testing.T) {
	ctx := context.Background()
	s, now := newTestStorage(t)
	alice, bob := uuid.New(), uuid.New()

	old, err := s.Upload(ctx, alice, "old.csv", "text/csv", strings.NewReader("old"))
	require.NoError(t, err)
	bobOld, err := s.Upload(ctx, bob, "old.xls", "", strings.NewReader("old"))
	require.NoError(t, err)

	*now = now.AddDate(0, 0, 40)
	fresh, err := s.Upload(ctx, alice, "fresh.csv", "text/csv", strings.NewReader("fresh"))
	require.NoError(t, err)

	// Stray entries in the base directory are ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(s.basePath, "not-a-user"), 0o755))

	purged, err := s.PurgeOlderThan(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 2, purged)

	aliceFiles, err := s.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, aliceFiles, 1)
	assert.Equal(t, fresh.ID, aliceFiles[0].ID)

	bobFiles, err := s.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, bobFiles)

	for _, gone := range []*FileInfo{old, bobOld} {
		_, err = os.Stat(filepath.Join(s.basePath, gone.UserID.String(), gone.Path))
		assert.True(t, os.IsNotExist(err), gone.Name)
	}
}

func TestNew(t *testing.T) {
	s, err := New(&Config{LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = New(&Config{Type: "s3"})
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"bills.csv":          "bills.csv",
		"../../etc/passwd":   "passwd",
		`C:\Users\me\a.xlsx`: "a.xlsx",
		"what?.csv":          "what_.csv",
		"":                   "upload",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}
