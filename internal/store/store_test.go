package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, tag := range []string{"v1.0", "v1.1", "v1.2"} {
		err := s.Record(ctx, Record{
			Kind:      KindFlash,
			Hardware:  "irock-424",
			Tag:       tag,
			Success:   true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "v1.2", records[0].Tag)
	assert.Equal(t, "v1.0", records[2].Tag)
	for _, r := range records {
		assert.NotEmpty(t, r.ID)
	}

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRecordHashesDownloads(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "fw-board-A.bin")
	require.NoError(t, os.WriteFile(path, []byte("image"), 0644))

	require.NoError(t, s.Record(ctx, Record{Kind: KindDownload, Asset: "fw-board-A.bin", Path: path, Success: true}))

	records, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	want, err := FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, want, records[0].Hash)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Record{Kind: KindFlash}))
	require.NoError(t, s.Clear(ctx))

	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0123456789ab", ShortHash("sha256:0123456789abcdef0123"))
	assert.Equal(t, "short", ShortHash("short"))
}
