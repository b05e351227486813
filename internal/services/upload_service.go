package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/courseguardian/backend/internal/models"
	"github.com/courseguardian/backend/internal/repositories"
	"github.com/courseguardian/backend/internal/storage"
	"go.uber.org/zap"
)

// Object path prefixes per media kind
var pathPrefixes = map[models.MediaKind]string{
	models.MediaKindPDF:   "lesson_pdfs",
	models.MediaKindVideo: "lesson_videos",
}

type uploadService struct {
	items  ContentItemRepository
	local  storage.Store
	remote storage.Store
	logger *zap.Logger
}

// NewUploadService creates a new upload service. remote may be nil.
func NewUploadService(items ContentItemRepository, local, remote storage.Store, logger *zap.Logger) *uploadService {
	return &uploadService{
		items:  items,
		local:  local,
		remote: remote,
		logger: logger,
	}
}

// AttachFile stores the file for a content item that has none yet. The local copy is
// written first; a remote copy is uploaded when a remote store is configured, and a
// failed remote upload leaves the item served from local storage only.
//
// Returns the updated content item.
func (s *uploadService) AttachFile(ctx context.Context, contentID int, r io.Reader, contentType string) (*models.ContentItem, error) {
	item, err := s.items.GetByID(ctx, contentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content item: %w", err)
	}
	if item.HasFile() {
		return nil, ErrPathAlreadySet
	}

	extension, err := ExtensionFor(item.Kind, contentType)
	if err != nil {
		return nil, err
	}

	objectPath := storage.GenerateObjectPath(pathPrefixes[item.Kind], item.LessonID, extension)

	size, err := s.local.Create(ctx, objectPath, r, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	remotePath := s.uploadRemote(ctx, objectPath, contentType)

	if err := s.items.SetFile(ctx, item.ID, objectPath, remotePath, size); err != nil {
		// Cleanup: remove the stored copies if the item could not be updated
		s.cleanup(ctx, objectPath, remotePath)
		if errors.Is(err, repositories.ErrNotUpdated) {
			return nil, ErrPathAlreadySet
		}
		return nil, fmt.Errorf("failed to update content item: %w", err)
	}

	item.StoragePath = objectPath
	item.RemotePath = remotePath
	item.SizeBytes = size
	return item, nil
}

// uploadRemote copies the local file to the remote store, returning the remote path or "" on failure
func (s *uploadService) uploadRemote(ctx context.Context, objectPath, contentType string) string {
	if s.remote == nil {
		return ""
	}

	// A full-length open yields the file itself, which the remote store can rewind on retry
	rc, err := s.local.Open(ctx, objectPath, 0, -1)
	if err != nil {
		s.logger.Warn("failed to reopen local file for remote upload", zap.String("path", objectPath), zap.Error(err))
		return ""
	}
	defer rc.Close()

	if _, err := s.remote.Create(ctx, objectPath, rc, contentType); err != nil {
		s.logger.Warn("remote upload failed, serving from local storage only", zap.String("path", objectPath), zap.Error(err))
		return ""
	}

	return objectPath
}

func (s *uploadService) cleanup(ctx context.Context, objectPath, remotePath string) {
	if err := s.local.Delete(ctx, objectPath); err != nil {
		s.logger.Error("failed to remove orphaned file", zap.String("path", objectPath), zap.Error(err))
	}
	if remotePath != "" {
		if err := s.remote.Delete(ctx, remotePath); err != nil {
			s.logger.Error("failed to remove orphaned remote object", zap.String("path", remotePath), zap.Error(err))
		}
	}
}

// ExtensionFor validates the uploaded content type against the media kind
//
// "kind" is the media kind of the content item.
// "contentType" is the Content-Type of the upload, parameters allowed.
//
// Returns the file extension including the leading dot, or ErrUnsupportedMediaType.
func ExtensionFor(kind models.MediaKind, contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", ErrUnsupportedMediaType
	}
	mediaType = strings.ToLower(mediaType)

	switch kind {
	case models.MediaKindPDF:
		if mediaType == "application/pdf" {
			return ".pdf", nil
		}
	case models.MediaKindVideo:
		switch mediaType {
		case "video/mp4":
			return ".mp4", nil
		case "video/webm":
			return ".webm", nil
		case "video/quicktime":
			return ".mov", nil
		case "video/x-matroska":
			return ".mkv", nil
		}
	}

	return "", ErrUnsupportedMediaType
}
