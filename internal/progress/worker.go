package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ContentAccessRepository defines the interface for content access repository
type ContentAccessRepository interface {
	// Touch records that the user opened the content item
	//
	// "userID" parameter is the ID of the user.
	// "contentID" parameter is the ID of the content item.
	// "at" parameter is the time of access; older events never overwrite newer ones.
	//
	// If some error occurs during data update, the error will be returned.
	Touch(ctx context.Context, userID, contentID int, at time.Time) error
}

// Worker handles access event tasks
type Worker struct {
	logger *zap.Logger
	repo   ContentAccessRepository
}

// NewWorker creates a new worker instance
func NewWorker(logger *zap.Logger, repo ContentAccessRepository) *Worker {
	return &Worker{
		logger: logger,
		repo:   repo,
	}
}

// Register adds the worker's handlers to mux
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeContentAccess, w.HandleAccessTask)
}

// HandleAccessTask persists a single access event.
// Malformed payloads are never retried.
func (w *Worker) HandleAccessTask(ctx context.Context, t *asynq.Task) error {
	var payload AccessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to parse access payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.UserID <= 0 || payload.ContentID <= 0 || payload.AccessedAt.IsZero() {
		return fmt.Errorf("invalid access payload: %w", asynq.SkipRetry)
	}

	if err := w.repo.Touch(ctx, payload.UserID, payload.ContentID, payload.AccessedAt); err != nil {
		return err
	}

	w.logger.Debug("Content access recorded",
		zap.Int("user_id", payload.UserID),
		zap.Int("content_id", payload.ContentID),
	)
	return nil
}
