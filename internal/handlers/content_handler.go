package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/courseguardian/backend/internal/models"
	authMiddleware "github.com/courseguardian/backend/libs/auth/middleware"
	"github.com/courseguardian/backend/libs/handlers"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AccessService defines the interface for access decisions
type AccessService interface {
	// RequestAccess checks enrollment and issues a URL for a content item
	//
	// "contentID" parameter is the ID of the content item.
	// "subjectID" parameter is the ID of the authenticated user.
	//
	// If the user may not open the item, a services error is returned together with "nil" value.
	RequestAccess(ctx context.Context, contentID, subjectID int) (*models.AccessResponse, error)
	// AuthorizeContent resolves the user and content item and checks the user may open it
	//
	// "contentID" parameter is the ID of the content item.
	// "subjectID" parameter is the ID of the authenticated user.
	//
	// If the user may not open the item, a services error is returned together with "nil" values.
	AuthorizeContent(ctx context.Context, contentID, subjectID int) (*models.Subject, *models.ContentItem, error)
}

// UploadService defines the interface for attaching files to content items
type UploadService interface {
	// AttachFile stores the file for a content item that has none yet
	//
	// "contentID" parameter is the ID of the content item.
	// "r" parameter is the file body.
	// "contentType" parameter is the MIME type of the file.
	//
	// If the item already has a file, services.ErrPathAlreadySet is returned together with "nil" value.
	AttachFile(ctx context.Context, contentID int, r io.Reader, contentType string) (*models.ContentItem, error)
}

// ContentHandler handles authenticated content item requests
type ContentHandler struct {
	handlers.BaseHandler
	accessService AccessService
	uploadService UploadService
	streamer      *mediaStreamer
}

// NewContentHandler creates a new content handler
func NewContentHandler(accessService AccessService, streamService StreamService, uploadService UploadService, logger *zap.Logger) *ContentHandler {
	base := handlers.BaseHandler{Logger: logger}
	return &ContentHandler{
		BaseHandler:   base,
		accessService: accessService,
		uploadService: uploadService,
		streamer:      &mediaStreamer{BaseHandler: base, stream: streamService},
	}
}

// RegisterRoutes registers the student routes. Upload routes are registered separately
// so they can sit behind the admin role and a larger body limit.
func (h *ContentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/content/{id}/access", h.RequestAccess)
	r.Get("/content/{id}/stream", h.StreamContent)
}

// RegisterAdminRoutes registers the upload route
func (h *ContentHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/content/{id}/file", h.UploadFile)
}

// RequestAccess handles GET /content/{id}/access
// @Summary Request access to a content item
// @Description Checks enrollment and returns a short-lived signed URL plus the watermark text to overlay
// @Tags content
// @Produce json
// @Param id path int true "Content item ID"
// @Success 200 {object} models.AccessResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid content ID"
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 404 {object} handlers.ErrorResponse "Content not found or not enrolled"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/content/{id}/access [get]
func (h *ContentHandler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	contentID, userID, ok := h.requestIDs(w, r)
	if !ok {
		return
	}

	resp, err := h.accessService.RequestAccess(r.Context(), contentID, userID)
	if err != nil {
		h.respondServiceError(w, err, "failed to request access", contentID, userID)
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

// StreamContent handles GET /content/{id}/stream
// @Summary Stream a content item
// @Description Streams the PDF or video of a content item to an enrolled user. Videos support single byte ranges.
// @Tags content
// @Produce application/pdf
// @Produce video/mp4
// @Param id path int true "Content item ID"
// @Param Range header string false "Byte range, e.g. bytes=0-1023"
// @Success 200 "Full content"
// @Success 206 "Partial content"
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 404 {object} handlers.ErrorResponse "Content not found or not enrolled"
// @Failure 416 {object} handlers.ErrorResponse "Invalid range"
// @Failure 503 {object} handlers.ErrorResponse "Media storage unavailable"
// @Security BearerAuth
// @Router /api/v1/content/{id}/stream [get]
func (h *ContentHandler) StreamContent(w http.ResponseWriter, r *http.Request) {
	contentID, userID, ok := h.requestIDs(w, r)
	if !ok {
		return
	}

	subject, item, err := h.accessService.AuthorizeContent(r.Context(), contentID, userID)
	if err != nil {
		h.respondServiceError(w, err, "failed to authorize stream", contentID, userID)
		return
	}

	h.streamer.Serve(w, r, item, subject)
}

// UploadFile handles POST /content/{id}/file
// @Summary Attach a file to a content item
// @Description Stores the PDF or video for a content item that has no file yet. The body is either the raw file with its Content-Type or a multipart form with a "file" field.
// @Tags content
// @Accept application/pdf
// @Accept video/mp4
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Content item ID"
// @Success 201 {object} models.ContentItem
// @Failure 400 {object} handlers.ErrorResponse "Invalid request"
// @Failure 403 {object} handlers.ErrorResponse "Insufficient permissions"
// @Failure 404 {object} handlers.ErrorResponse "Content not found"
// @Failure 409 {object} handlers.ErrorResponse "Content already has a file"
// @Failure 415 {object} handlers.ErrorResponse "Unsupported media type"
// @Security BearerAuth
// @Router /api/v1/content/{id}/file [post]
func (h *ContentHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	contentID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || contentID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid content id")
		return
	}

	body, contentType, err := uploadBody(r)
	if err != nil {
		h.Logger.Info("invalid upload request", zap.Int("content_id", contentID), zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}

	item, err := h.uploadService.AttachFile(r.Context(), contentID, body, contentType)
	if err != nil {
		userID, _ := authMiddleware.GetUserID(r.Context())
		h.respondServiceError(w, err, "failed to upload file", contentID, userID)
		return
	}

	h.Logger.Info("file attached to content item",
		zap.Int("content_id", item.ID),
		zap.String("path", item.StoragePath),
		zap.Bool("remote", item.RemotePath != ""),
	)
	h.RespondJSON(w, http.StatusCreated, item)
}

// uploadBody returns the file stream and its content type. Multipart bodies are read
// part by part so large videos are never buffered in memory.
func uploadBody(r *http.Request) (io.Reader, string, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, "", err
	}
	if mediaType != "multipart/form-data" {
		return r.Body, contentType, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", err
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, "", errors.New("missing file part")
			}
			return nil, "", err
		}
		if part.FormName() == "file" {
			return part, part.Header.Get("Content-Type"), nil
		}
		part.Close()
	}
}

// requestIDs extracts the content ID from the URL and the user ID from the auth context
func (h *ContentHandler) requestIDs(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	contentID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || contentID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid content id")
		return 0, 0, false
	}

	userID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return 0, 0, false
	}

	return contentID, userID, true
}

func (h *ContentHandler) respondServiceError(w http.ResponseWriter, err error, logMessage string, contentID, userID int) {
	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(logMessage, zap.Int("content_id", contentID), zap.Int("user_id", userID), zap.Error(err))
	} else {
		h.Logger.Info(logMessage, zap.Int("content_id", contentID), zap.Int("user_id", userID), zap.Error(err))
	}
	h.RespondError(w, status, message)
}
