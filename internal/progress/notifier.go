// Package progress records when users open content items. The API enqueues
// access events and the worker persists them, so streaming never waits on the database.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypeContentAccess is the asynq task type for access events
	TypeContentAccess = "progress:access"
	// Queue is the asynq queue access events are enqueued on
	Queue = "progress"

	maxRetry = 3
)

// AccessPayload is the body of a TypeContentAccess task
type AccessPayload struct {
	UserID     int       `json:"user_id"`
	ContentID  int       `json:"content_id"`
	AccessedAt time.Time `json:"accessed_at"`
}

// Enqueuer is the subset of *asynq.Client used by the notifier
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Notifier enqueues access events for the worker
type Notifier struct {
	client Enqueuer
}

// NewNotifier creates a new notifier backed by an asynq client
func NewNotifier(client Enqueuer) *Notifier {
	return &Notifier{client: client}
}

// NewAccessTask builds the task for a single access event
func NewAccessTask(userID, contentID int, at time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(AccessPayload{
		UserID:     userID,
		ContentID:  contentID,
		AccessedAt: at.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal access payload: %w", err)
	}
	return asynq.NewTask(TypeContentAccess, payload), nil
}

// RecordAccess enqueues an access event
func (n *Notifier) RecordAccess(ctx context.Context, userID, contentID int, at time.Time) error {
	task, err := NewAccessTask(userID, contentID, at)
	if err != nil {
		return err
	}

	if _, err := n.client.EnqueueContext(ctx, task, asynq.Queue(Queue), asynq.MaxRetry(maxRetry)); err != nil {
		return fmt.Errorf("failed to enqueue access event: %w", err)
	}

	return nil
}
