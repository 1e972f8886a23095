package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngUpload(body string) Upload {
	return Upload{FileName: "photo.PNG", ContentType: "image/png", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestLocalBlobStoreStoreAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalBlobStore(dir, "uploads", 1024)
	require.NoError(t, err)
	ctx := context.Background()

	blobPath, err := store.Store(ctx, "followups/t1", pngUpload("pixels"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(blobPath, "/uploads/followups/t1/"))
	assert.True(t, strings.HasSuffix(blobPath, ".png"))

	onDisk := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(blobPath, "/uploads/")))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	require.NoError(t, store.Delete(ctx, blobPath))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Delete(ctx, blobPath), "deleting twice is harmless")
}

func TestLocalBlobStoreRejectsInvalidUploads(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir(), "/uploads", 4)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Store(ctx, "checkins", Upload{ContentType: "application/pdf", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrUnsupportedMedia)

	_, err = store.Store(ctx, "checkins", pngUpload("too many bytes"))
	assert.ErrorIs(t, err, ErrBlobTooLarge)

	lying := Upload{ContentType: "image/png", Size: 1, Body: strings.NewReader("still too many")}
	_, err = store.Store(ctx, "checkins", lying)
	assert.ErrorIs(t, err, ErrBlobTooLarge)
}

func TestLocalBlobStoreDeleteRejectsForeignPaths(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir(), "/uploads", 0)
	require.NoError(t, err)

	assert.Error(t, store.Delete(context.Background(), "/etc/passwd"))
	assert.Error(t, store.Delete(context.Background(), "/uploads/../secret"))
}

func TestLocalBlobStoreIgnoresClientExtension(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir(), "/uploads", 1024)
	require.NoError(t, err)
	ctx := context.Background()

	body := "<script>alert(1)</script>"
	blobPath, err := store.Store(ctx, "checkins", Upload{FileName: "evil.html", ContentType: "image/png", Size: int64(len(body)), Body: strings.NewReader(body)})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(blobPath, ".png"))
	assert.NotContains(t, blobPath, ".html")

	_, err = store.Store(ctx, "checkins", Upload{FileName: "evil.svg", ContentType: "image/svg+xml", Size: 4, Body: strings.NewReader("<svg")})
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
}

func TestExtensionFor(t *testing.T) {
	for contentType, want := range map[string]string{
		"image/jpeg":                "jpg",
		"IMAGE/PNG":                 "png",
		"image/gif":                 "gif",
		"image/webp; charset=utf-8": "webp",
	} {
		ext, ok := extensionFor(Upload{FileName: "x.html", ContentType: contentType})
		assert.True(t, ok, contentType)
		assert.Equal(t, want, ext)
	}
	for _, contentType := range []string{"", "image/svg+xml", "text/html", "image/"} {
		_, ok := extensionFor(Upload{ContentType: contentType})
		assert.False(t, ok, contentType)
	}
}
