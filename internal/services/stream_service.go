package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/courseguardian/backend/internal/metrics"
	"github.com/courseguardian/backend/internal/models"
	"github.com/courseguardian/backend/internal/storage"
	"go.uber.org/zap"
)

// ChunkSize is the buffer size used when relaying media bytes
const ChunkSize = 8 * 1024

const defaultNotifyTimeout = 5 * time.Second

// ProgressNotifier records that a user opened a content item
type ProgressNotifier interface {
	// RecordAccess records an access event
	//
	// "ctx" is the context for the request.
	// "subjectID" is the ID of the user.
	// "contentID" is the ID of the content item.
	// "at" is the time of access.
	//
	// Returns an error if the event could not be recorded.
	RecordAccess(ctx context.Context, subjectID, contentID int, at time.Time) error
}

// Source is a located media object ready to be streamed
type Source struct {
	Store  storage.Store
	Path   string
	Size   int64
	Remote bool
}

type streamService struct {
	local         storage.Store
	remote        storage.Store
	notifier      ProgressNotifier
	logger        *zap.Logger
	now           func() time.Time
	notifyTimeout time.Duration
}

// NewStreamService creates a new stream service. remote and notifier may be nil.
func NewStreamService(local, remote storage.Store, notifier ProgressNotifier, logger *zap.Logger) *streamService {
	return &streamService{
		local:         local,
		remote:        remote,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
		notifyTimeout: defaultNotifyTimeout,
	}
}

// Locate finds the object behind a content item. The remote copy is preferred; any remote
// failure falls back to the local copy. A missing local copy after a remote failure other
// than "not found" is reported as ErrUpstreamUnavailable, otherwise as ErrMediaNotFound.
func (s *streamService) Locate(ctx context.Context, item *models.ContentItem) (*Source, error) {
	var upstreamErr error

	if s.remote != nil && item.RemotePath != "" {
		info, err := s.remote.Stat(ctx, item.RemotePath)
		if err == nil {
			return &Source{Store: s.remote, Path: item.RemotePath, Size: info.Size, Remote: true}, nil
		}
		metrics.RemoteFallbacks.WithLabelValues("stream").Inc()
		s.logger.Warn("remote media unavailable, falling back to local storage",
			zap.Int("content_id", item.ID),
			zap.String("path", item.RemotePath),
			zap.Error(err),
		)
		if !errors.Is(err, storage.ErrObjectNotFound) {
			upstreamErr = err
		}
	}

	if item.StoragePath == "" {
		return nil, s.missing(upstreamErr)
	}

	info, err := s.local.Stat(ctx, item.StoragePath)
	if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidPath) {
		return nil, s.missing(upstreamErr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat media: %w", err)
	}

	return &Source{Store: s.local, Path: item.StoragePath, Size: info.Size}, nil
}

func (s *streamService) missing(upstreamErr error) error {
	if upstreamErr != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, upstreamErr)
	}
	return ErrMediaNotFound
}

// Copy writes the bytes of rng from src to w in ChunkSize chunks.
// It stops as soon as ctx is done or a write fails; the source is always closed.
//
// Returns the number of bytes written.
func (s *streamService) Copy(ctx context.Context, w io.Writer, src *Source, rng ByteRange) (int64, error) {
	rc, err := src.Store.Open(ctx, src.Path, rng.Start, rng.Length())
	if err != nil {
		return 0, fmt.Errorf("failed to open media: %w", err)
	}
	defer rc.Close()

	buf := make([]byte, ChunkSize)
	remaining := rng.Length()
	var written int64

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		chunk := buf
		if remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		n, readErr := rc.Read(chunk)
		if n > 0 {
			wn, writeErr := w.Write(chunk[:n])
			written += int64(wn)
			remaining -= int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
			if wn != n {
				return written, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, fmt.Errorf("failed to read media: %w", readErr)
		}
	}

	if remaining > 0 {
		return written, io.ErrUnexpectedEOF
	}
	return written, nil
}

// NotifyAccess records the access in the background. Failures are logged only.
func (s *streamService) NotifyAccess(subjectID, contentID int) {
	if s.notifier == nil {
		return
	}
	at := s.now().UTC()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.RecordAccess(ctx, subjectID, contentID, at); err != nil {
			metrics.ProgressNotifications.WithLabelValues("failed").Inc()
			s.logger.Warn("failed to record content access",
				zap.Int("subject_id", subjectID),
				zap.Int("content_id", contentID),
				zap.Error(err),
			)
			return
		}
		metrics.ProgressNotifications.WithLabelValues("enqueued").Inc()
	}()
}
