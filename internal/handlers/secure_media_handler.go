package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/courseguardian/backend/internal/models"
	"github.com/courseguardian/backend/libs/handlers"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SignedURLAuthorizer verifies locally signed media URLs
type SignedURLAuthorizer interface {
	// AuthorizeSignedURL verifies the signature and expiry and resolves the content item
	//
	// "path" parameter is the decoded media path of the URL.
	// "query" parameter holds subject_id, expires and signature.
	//
	// If verification fails, a services error is returned together with "nil" values.
	AuthorizeSignedURL(ctx context.Context, path string, query url.Values) (*models.Subject, *models.ContentItem, error)
}

// SecureMediaHandler serves media behind locally signed URLs
type SecureMediaHandler struct {
	handlers.BaseHandler
	authorizer SignedURLAuthorizer
	streamer   *mediaStreamer
}

// NewSecureMediaHandler creates a new secure media handler
func NewSecureMediaHandler(authorizer SignedURLAuthorizer, streamService StreamService, logger *zap.Logger) *SecureMediaHandler {
	base := handlers.BaseHandler{Logger: logger}
	return &SecureMediaHandler{
		BaseHandler: base,
		authorizer:  authorizer,
		streamer:    &mediaStreamer{BaseHandler: base, stream: streamService},
	}
}

// RegisterRoutes registers the public signed media route
func (h *SecureMediaHandler) RegisterRoutes(r chi.Router) {
	r.Get("/secure-media/*", h.ServeSignedMedia)
}

// ServeSignedMedia handles GET /secure-media/{path}
// @Summary Fetch media through a signed URL
// @Description Verifies the signature and expiry of a URL issued by the access endpoint and streams the file. The path is percent-encoded as a single segment.
// @Tags media
// @Produce application/pdf
// @Produce video/mp4
// @Param path path string true "Percent-encoded media path"
// @Param subject_id query int true "User the URL was issued to"
// @Param expires query int true "Expiry as Unix seconds"
// @Param signature query string true "URL signature"
// @Param Range header string false "Byte range, e.g. bytes=0-1023"
// @Success 200 "Full content"
// @Success 206 "Partial content"
// @Failure 401 {object} handlers.ErrorResponse "Malformed or invalid signature"
// @Failure 403 {object} handlers.ErrorResponse "Access expired"
// @Failure 404 {object} handlers.ErrorResponse "Media not found"
// @Failure 416 {object} handlers.ErrorResponse "Invalid range"
// @Failure 503 {object} handlers.ErrorResponse "Media storage unavailable"
// @Router /secure-media/{path} [get]
func (h *SecureMediaHandler) ServeSignedMedia(w http.ResponseWriter, r *http.Request) {
	mediaPath, err := signedPath(r)
	if err != nil || mediaPath == "" {
		h.RespondError(w, http.StatusNotFound, "media not found")
		return
	}

	subject, item, err := h.authorizer.AuthorizeSignedURL(r.Context(), mediaPath, r.URL.Query())
	if err != nil {
		status, message := errorStatus(err)
		if status >= http.StatusInternalServerError {
			h.Logger.Error("failed to verify signed url", zap.String("path", mediaPath), zap.Error(err))
		} else {
			h.Logger.Info("signed url rejected", zap.String("path", mediaPath), zap.Int("status", status))
		}
		h.RespondError(w, status, message)
		return
	}

	h.streamer.Serve(w, r, item, subject)
}

// signedPath returns the decoded media path. chi matches on the raw path when the
// request carried escaped characters, so the wildcard is only unescaped in that case.
func signedPath(r *http.Request) (string, error) {
	wildcard := chi.URLParam(r, "*")
	if r.URL.RawPath == "" {
		return wildcard, nil
	}
	return url.PathUnescape(wildcard)
}
