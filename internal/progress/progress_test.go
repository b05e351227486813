package progress

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockEnqueuer is a mock implementation of Enqueuer
type mockEnqueuer struct {
	err   error
	task  *asynq.Task
	opts  []asynq.Option
	calls int
}

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	m.calls++
	m.task = task
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	return &asynq.TaskInfo{Type: task.Type(), Queue: Queue}, nil
}

// mockContentAccessRepository is a mock implementation of ContentAccessRepository
type mockContentAccessRepository struct {
	err       error
	called    bool
	userID    int
	contentID int
	at        time.Time
}

func (m *mockContentAccessRepository) Touch(ctx context.Context, userID, contentID int, at time.Time) error {
	m.called = true
	m.userID = userID
	m.contentID = contentID
	m.at = at
	return m.err
}

func TestNotifier_RecordAccess(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 30, 0, 0, time.FixedZone("UTC+2", 2*3600))

	t.Run("enqueues task", func(t *testing.T) {
		client := &mockEnqueuer{}
		notifier := NewNotifier(client)

		err := notifier.RecordAccess(context.Background(), 42, 10, at)

		require.NoError(t, err)
		require.NotNil(t, client.task)
		assert.Equal(t, TypeContentAccess, client.task.Type())

		var payload AccessPayload
		require.NoError(t, json.Unmarshal(client.task.Payload(), &payload))
		assert.Equal(t, 42, payload.UserID)
		assert.Equal(t, 10, payload.ContentID)
		assert.True(t, at.Equal(payload.AccessedAt))

		var queue string
		var retries int
		for _, opt := range client.opts {
			switch opt.Type() {
			case asynq.QueueOpt:
				queue = opt.Value().(string)
			case asynq.MaxRetryOpt:
				retries = opt.Value().(int)
			}
		}
		assert.Equal(t, Queue, queue)
		assert.Equal(t, maxRetry, retries)
	})

	t.Run("enqueue failure", func(t *testing.T) {
		client := &mockEnqueuer{err: errors.New("redis down")}
		notifier := NewNotifier(client)

		err := notifier.RecordAccess(context.Background(), 42, 10, at)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to enqueue access event")
		assert.Equal(t, 1, client.calls)
	})
}

func TestWorker_HandleAccessTask(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	validTask, err := NewAccessTask(42, 10, at)
	require.NoError(t, err)

	tests := []struct {
		name          string
		task          *asynq.Task
		repoErr       error
		expectedError bool
		skipRetry     bool
		expectTouch   bool
	}{
		{name: "success", task: validTask, expectTouch: true},
		{name: "repository error is retried", task: validTask, repoErr: errors.New("db down"), expectedError: true, expectTouch: true},
		{name: "malformed payload", task: asynq.NewTask(TypeContentAccess, []byte("not json")), expectedError: true, skipRetry: true},
		{name: "missing user", task: asynq.NewTask(TypeContentAccess, []byte(`{"content_id":10,"accessed_at":"2024-01-01T12:00:00Z"}`)), expectedError: true, skipRetry: true},
		{name: "missing time", task: asynq.NewTask(TypeContentAccess, []byte(`{"user_id":42,"content_id":10}`)), expectedError: true, skipRetry: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockContentAccessRepository{err: tt.repoErr}
			worker := NewWorker(zap.NewNop(), repo)

			err := worker.HandleAccessTask(context.Background(), tt.task)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectTouch, repo.called)
			if tt.expectTouch {
				assert.Equal(t, 42, repo.userID)
				assert.Equal(t, 10, repo.contentID)
				assert.True(t, at.Equal(repo.at))
			}
		})
	}
}

func TestWorker_Register(t *testing.T) {
	repo := &mockContentAccessRepository{}
	worker := NewWorker(zap.NewNop(), repo)
	mux := asynq.NewServeMux()

	worker.Register(mux)

	task, err := NewAccessTask(1, 2, time.Now())
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), task))
	assert.True(t, repo.called)
}
