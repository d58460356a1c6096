package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// imageContentTypes is the upload allow-list. Types are detected from the
// first 512 bytes of content, never from the client-supplied filename.
var imageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// DetectImageType sniffs the content type and reports whether it is an
// accepted image. Sniffing the bytes rather than trusting the extension
// stops renamed files from slipping through.
func DetectImageType(fh *multipart.FileHeader) (string, bool) {
	if fh == nil {
		return "", false
	}
	src, err := fh.Open()
	if err != nil {
		return "", false
	}
	defer func() { _ = src.Close() }()

	buf := make([]byte, 512)
	n, err := src.Read(buf)
	if err != nil && err != io.EOF {
		return "", false
	}
	contentType := http.DetectContentType(buf[:n])
	return contentType, imageContentTypes[contentType]
}

// Storage abstracts where uploaded files live.
type Storage interface {
	Save(ctx context.Context, fh *multipart.FileHeader, path string) (int64, error)
	Open(ctx context.Context, path string) (io.ReadSeekCloser, error)
	Remove(ctx context.Context, path string) error
}

// LocalStorage keeps uploads under a single base directory on disk.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage resolves and creates the base directory.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("media: empty base directory")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("media: resolve base directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("media: create base directory: %w", err)
	}
	return &LocalStorage{baseDir: abs}, nil
}

// Save copies the upload to path under the base directory. The copy checks
// the context between chunks so a slow upload can be abandoned, and removes
// the partial file on any failure.
func (s *LocalStorage) Save(ctx context.Context, fh *multipart.FileHeader, path string) (int64, error) {
	abs, err := s.resolvePath(path)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return 0, fmt.Errorf("media: create upload directory: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return 0, fmt.Errorf("media: open upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("media: create file: %w", err)
	}
	defer func() { _ = dst.Close() }()

	var written int64
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			_ = dst.Close()
			_ = os.Remove(abs)
			return 0, ctx.Err()
		default:
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			nw, writeErr := dst.Write(buf[:n])
			if writeErr != nil {
				_ = dst.Close()
				_ = os.Remove(abs)
				return 0, fmt.Errorf("media: write file: %w", writeErr)
			}
			written += int64(nw)
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			_ = dst.Close()
			_ = os.Remove(abs)
			return 0, fmt.Errorf("media: read upload: %w", readErr)
		}
	}
}

// Open returns a reader over a stored file.
func (s *LocalStorage) Open(ctx context.Context, path string) (io.ReadSeekCloser, error) {
	abs, err := s.resolvePath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("media: open file: %w", err)
	}
	return f, nil
}

// Remove deletes a stored file. A missing file is a no-op so the orphan
// sweep can retry safely.
func (s *LocalStorage) Remove(ctx context.Context, path string) error {
	abs, err := s.resolvePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("media: remove file: %w", err)
	}
	return nil
}

// resolvePath confines path to the base directory.
func (s *LocalStorage) resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Join(s.baseDir, filepath.Clean(path)))
	if err != nil {
		return "", fmt.Errorf("media: resolve path: %w", err)
	}
	if abs != s.baseDir && !strings.HasPrefix(abs, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	return abs, nil
}

var _ Storage = (*LocalStorage)(nil)
