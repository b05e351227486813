package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/courseguardian/backend/internal/metrics"
	"github.com/courseguardian/backend/internal/models"
	"github.com/courseguardian/backend/internal/services"
	"github.com/courseguardian/backend/libs/handlers"
	"go.uber.org/zap"
)

// StreamService defines the interface for locating and relaying media bytes
type StreamService interface {
	// Locate finds the object behind a content item, preferring the remote copy
	//
	// "item" parameter is the content item to locate.
	//
	// If neither copy can be found, services.ErrMediaNotFound or services.ErrUpstreamUnavailable is returned.
	Locate(ctx context.Context, item *models.ContentItem) (*services.Source, error)
	// Copy writes the bytes of rng from src to w
	//
	// "src" parameter is the located object.
	// "rng" parameter is the inclusive byte range to copy.
	//
	// Returns the number of bytes written and an error if the copy stopped early.
	Copy(ctx context.Context, w io.Writer, src *services.Source, rng services.ByteRange) (int64, error)
	// NotifyAccess records the access in the background
	NotifyAccess(subjectID, contentID int)
}

// mediaStreamer writes a content item to an HTTP response.
// It is shared by the signed URL and the authenticated stream routes.
type mediaStreamer struct {
	handlers.BaseHandler
	stream StreamService
}

// Serve streams item to subject. PDFs are always sent whole; videos honour a single Range.
func (s *mediaStreamer) Serve(w http.ResponseWriter, r *http.Request, item *models.ContentItem, subject *models.Subject) {
	kind := string(item.Kind)
	header := w.Header()
	header.Set("X-Subject-ID", strconv.Itoa(subject.ID))

	src, err := s.stream.Locate(r.Context(), item)
	if err != nil {
		s.respondStreamError(w, kind, err, item)
		return
	}

	rng := services.FullRange(src.Size)
	status := http.StatusOK

	if item.Kind == models.MediaKindPDF {
		header.Set("Content-Type", "application/pdf")
		header.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", item.FileName()))
		header.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		header.Set("Pragma", "no-cache")
		header.Set("Expires", "0")
	} else {
		header.Set("Content-Type", item.ContentType())
		header.Set("Accept-Ranges", "bytes")

		if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
			rng, err = services.ParseRange(rangeHeader, src.Size)
			if err != nil {
				header.Set("Content-Range", services.UnsatisfiedRange(src.Size))
				s.respondStreamError(w, kind, err, item)
				return
			}
			status = http.StatusPartialContent
			header.Set("Content-Range", rng.ContentRange(src.Size))
		}
	}

	header.Set("Content-Length", strconv.FormatInt(rng.Length(), 10))
	w.WriteHeader(status)
	metrics.StreamResponses.WithLabelValues(kind, strconv.Itoa(status)).Inc()

	written, err := s.stream.Copy(r.Context(), w, src, rng)
	metrics.StreamedBytes.WithLabelValues(kind).Add(float64(written))
	if err != nil {
		// Headers are already sent; the client sees a truncated body
		if errors.Is(err, context.Canceled) {
			s.Logger.Debug("client went away during stream",
				zap.Int("content_id", item.ID),
				zap.Int64("written", written),
			)
			return
		}
		s.Logger.Error("failed to stream media",
			zap.Int("content_id", item.ID),
			zap.Bool("remote", src.Remote),
			zap.Int64("written", written),
			zap.Error(err),
		)
		return
	}

	s.stream.NotifyAccess(subject.ID, item.ID)
}

func (s *mediaStreamer) respondStreamError(w http.ResponseWriter, kind string, err error, item *models.ContentItem) {
	status, message := errorStatus(err)
	metrics.StreamResponses.WithLabelValues(kind, strconv.Itoa(status)).Inc()
	if status >= http.StatusInternalServerError {
		s.Logger.Error("failed to serve media", zap.Int("content_id", item.ID), zap.Error(err))
	}
	s.RespondError(w, status, message)
}
