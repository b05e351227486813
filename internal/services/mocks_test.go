package services

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/courseguardian/backend/internal/models"
	"github.com/courseguardian/backend/internal/repositories"
	"github.com/courseguardian/backend/internal/storage"
)

// mockSubjectRepository is a mock implementation of SubjectRepository
type mockSubjectRepository struct {
	subjects map[int]*models.Subject
	err      error
}

func (m *mockSubjectRepository) GetByID(ctx context.Context, id int) (*models.Subject, error) {
	if m.err != nil {
		return nil, m.err
	}
	subject, ok := m.subjects[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return subject, nil
}

// mockEnrollmentRepository is a mock implementation of EnrollmentRepository
type mockEnrollmentRepository struct {
	enrolled map[[2]int]bool // [userID, courseID]
	err      error
}

func (m *mockEnrollmentRepository) Exists(ctx context.Context, userID, courseID int) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.enrolled[[2]int{userID, courseID}], nil
}

// mockContentItemRepository is a mock implementation of ContentItemRepository
type mockContentItemRepository struct {
	items      map[int]*models.ContentItem
	err        error
	setFileErr error

	setFileCalled bool
	setFileArgs   []any // [id, storagePath, remotePath, sizeBytes]
}

func (m *mockContentItemRepository) GetByID(ctx context.Context, id int) (*models.ContentItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	item, ok := m.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *mockContentItemRepository) GetByStoragePath(ctx context.Context, storagePath string) (*models.ContentItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, item := range m.items {
		if item.StoragePath == storagePath {
			copied := *item
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockContentItemRepository) SetFile(ctx context.Context, id int, storagePath, remotePath string, sizeBytes int64) error {
	m.setFileCalled = true
	m.setFileArgs = []any{id, storagePath, remotePath, sizeBytes}
	return m.setFileErr
}

// mockRemoteStore is an in-memory implementation of storage.RemoteStore
type mockRemoteStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	signedURL string
	signErr   error
	statErr   error
	openErr   error
	createErr error

	signCalls int
	signTTL   time.Duration
	// seekable records whether the last Create body could be rewound
	seekable bool
}

func newMockRemoteStore() *mockRemoteStore {
	return &mockRemoteStore{objects: map[string][]byte{}}
}

func (m *mockRemoteStore) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signCalls++
	m.signTTL = ttl
	if m.signErr != nil {
		return "", m.signErr
	}
	return m.signedURL, nil
}

func (m *mockRemoteStore) Stat(ctx context.Context, objectPath string) (*storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statErr != nil {
		return nil, m.statErr
	}
	data, ok := m.objects[objectPath]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.ObjectInfo{Path: objectPath, Size: int64(len(data))}, nil
}

func (m *mockRemoteStore) Open(ctx context.Context, objectPath string, offset, length int64) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return nil, m.openErr
	}
	data, ok := m.objects[objectPath]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	data = data[offset:]
	if length >= 0 && length < int64(len(data)) {
		data = data[:length]
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockRemoteStore) Create(ctx context.Context, objectPath string, r io.Reader, contentType string) (int64, error) {
	_, seekable := r.(io.ReadSeeker)
	m.mu.Lock()
	m.seekable = seekable
	m.mu.Unlock()
	if m.createErr != nil {
		return 0, m.createErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectPath] = data
	return int64(len(data)), nil
}

func (m *mockRemoteStore) Delete(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[objectPath]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(m.objects, objectPath)
	return nil
}

// accessEvent is a recorded RecordAccess call
type accessEvent struct {
	subjectID int
	contentID int
	at        time.Time
}

// mockNotifier is a mock implementation of ProgressNotifier
type mockNotifier struct {
	events chan accessEvent
	err    error
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{events: make(chan accessEvent, 4)}
}

func (m *mockNotifier) RecordAccess(ctx context.Context, subjectID, contentID int, at time.Time) error {
	m.events <- accessEvent{subjectID: subjectID, contentID: contentID, at: at}
	return m.err
}

// failingWriter fails after accepting limit bytes
type failingWriter struct {
	limit   int
	written int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.limit {
		return 0, io.ErrClosedPipe
	}
	w.written += len(p)
	return len(p), nil
}
