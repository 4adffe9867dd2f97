package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ac-server/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFileBackendLayout(t *testing.T) {
	ctx := context.Background()
	b := newFileBackend(t)
	require.NoError(t, b.SaveAll(ctx, sampleDataset()))

	for _, rel := range []string{
		"admins/admin.json",
		"announcements/n1.json",
		"compensations/c1.json",
		"whitelist/u-1.json",
		"logs/l1.json",
		"users/steve.json",
		"email_codes/e1.json",
	} {
		assert.FileExists(t, filepath.Join(b.Root(), rel))
	}

	raw, err := os.ReadFile(filepath.Join(b.Root(), "whitelist_enabled.json"))
	require.NoError(t, err)
	assert.Equal(t, "true", string(raw))

	doc, err := os.ReadFile(filepath.Join(b.Root(), "admins", "admin.json"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "\n  \"username\": \"admin\"")
}

func TestFileBackendSkipsMalformedFiles(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	b, err := NewFileBackend(t.TempDir(), zap.New(core))
	require.NoError(t, err)
	require.NoError(t, b.SaveAll(ctx, sampleDataset()))

	dir := filepath.Join(b.Root(), "compensations")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "noid.json"), []byte(`{"title":"orphan"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	got, err := b.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got.Compensations, 1)
	assert.Equal(t, "c1", got.Compensations[0].ID)
	assert.Equal(t, 2, logs.Len())
}

func TestFileBackendRejectsPathKeys(t *testing.T) {
	ctx := context.Background()
	b := newFileBackend(t)

	err := b.Put(ctx, &model.Admin{ID: "x", Username: "../escape"})
	assert.ErrorIs(t, err, ErrInvalidKey)

	err = b.Delete(ctx, Users, "a/b")
	assert.ErrorIs(t, err, ErrInvalidKey)

	err = b.Put(ctx, &model.Compensation{})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestFileBackendCorruptWhitelistFlag(t *testing.T) {
	b := newFileBackend(t)
	require.NoError(t, os.WriteFile(filepath.Join(b.Root(), "whitelist_enabled.json"), []byte("maybe"), 0o644))

	got, err := b.LoadAll(context.Background())
	require.NoError(t, err)
	assert.False(t, got.WhitelistEnabled)
}
