package media_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell/internal/media"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func makeFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := media.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := t.Context()

	written, err := store.Save(ctx, makeFileHeader(t, "ghost.png", pngHeader), "ab/cd/abcd1234")
	require.NoError(t, err)
	require.Equal(t, int64(len(pngHeader)), written)

	reader, err := store.Open(ctx, "ab/cd/abcd1234")
	require.NoError(t, err)
	defer reader.Close()
	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, pngHeader, got)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := media.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := t.Context()

	_, err = store.Save(ctx, makeFileHeader(t, "x", pngHeader), "../escape")
	require.ErrorIs(t, err, media.ErrInvalidPath)

	_, err = store.Open(ctx, "../../etc/passwd")
	require.ErrorIs(t, err, media.ErrInvalidPath)
}

func TestLocalStorageOpenMissing(t *testing.T) {
	store, err := media.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(t.Context(), "no/such/file")
	require.ErrorIs(t, err, media.ErrNotFound)
}

func TestLocalStorageRemoveMissingIsNoOp(t *testing.T) {
	store, err := media.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Remove(t.Context(), "no/such/file"))
}

func TestDetectImageType(t *testing.T) {
	contentType, ok := media.DetectImageType(makeFileHeader(t, "ghost.png", pngHeader))
	require.True(t, ok)
	require.Equal(t, "image/png", contentType)

	_, ok = media.DetectImageType(makeFileHeader(t, "notes.png", []byte("just some text")))
	require.False(t, ok)
}
