package media

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxUploadSize caps a single upload at 10 MiB.
const MaxUploadSize = 10 << 20

// Service wraps upload and download rules.
type Service struct {
	repo    Repository
	storage Storage
	logger  *slog.Logger
}

// NewService constructs the media service.
func NewService(repo Repository, storage Storage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, storage: storage, logger: logger}
}

// Upload stores an image and records its metadata. The public URL extension
// is a fresh uuid, so upload URLs are not guessable from filenames.
func (s *Service) Upload(ctx context.Context, uploaderID uuid.UUID, fh *multipart.FileHeader) (*Object, error) {
	if fh.Size > MaxUploadSize {
		return nil, ErrTooLarge
	}
	contentType, ok := DetectImageType(fh)
	if !ok {
		return nil, ErrUnsupportedType
	}

	ext := strings.ReplaceAll(uuid.NewString(), "-", "")
	// Shard by the first two byte pairs so no single directory collects
	// every upload.
	path := filepath.Join(ext[:2], ext[2:4], ext)

	size, err := s.storage.Save(ctx, fh, path)
	if err != nil {
		return nil, err
	}
	obj := Object{
		ID:           uuid.New(),
		URLExtension: ext,
		Path:         path,
		ContentType:  contentType,
		Size:         size,
		UploaderID:   uploaderID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, obj); err != nil {
		if removeErr := s.storage.Remove(ctx, path); removeErr != nil {
			s.logger.Warn("remove stray upload", slog.String("path", path), slog.Any("error", removeErr))
		}
		return nil, err
	}
	return &obj, nil
}

// Download opens a stored file by URL extension. The caller closes the
// reader.
func (s *Service) Download(ctx context.Context, urlExtension string) (io.ReadSeekCloser, *Object, error) {
	obj, err := s.repo.FindByExtension(ctx, urlExtension)
	if err != nil {
		return nil, nil, err
	}
	reader, err := s.storage.Open(ctx, obj.Path)
	if err != nil {
		return nil, nil, err
	}
	return reader, obj, nil
}

// MediaExists reports whether an upload with the extension exists.
func (s *Service) MediaExists(ctx context.Context, urlExtension string) (bool, error) {
	return s.repo.MediaExists(ctx, urlExtension)
}

// SweepOrphans deletes uploads older than retention that no picture post
// references, files included. Returns how many uploads went.
func (s *Service) SweepOrphans(ctx context.Context, retention time.Duration) (int, error) {
	paths, err := s.repo.DeleteOrphans(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	for _, path := range paths {
		if err := s.storage.Remove(ctx, path); err != nil {
			s.logger.Warn("remove orphaned file", slog.String("path", path), slog.Any("error", err))
		}
	}
	return len(paths), nil
}
