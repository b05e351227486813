package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/courseguardian/backend/internal/models"
	"github.com/courseguardian/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testPayload returns size bytes of a repeating, position-dependent pattern
func testPayload(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

// writeLocalFile writes data under root at the slash-separated objectPath
func writeLocalFile(t *testing.T, root, objectPath string, data []byte) {
	t.Helper()
	fullPath := filepath.Join(root, filepath.FromSlash(objectPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
	require.NoError(t, os.WriteFile(fullPath, data, 0644))
}

func TestNewStreamService(t *testing.T) {
	local := storage.NewLocalStorage(t.TempDir())
	notifier := newMockNotifier()

	svc := NewStreamService(local, nil, notifier, zap.NewNop())

	assert.NotNil(t, svc)
	assert.Equal(t, local, svc.local)
	assert.Nil(t, svc.remote)
	assert.Equal(t, notifier, svc.notifier)
	assert.Equal(t, defaultNotifyTimeout, svc.notifyTimeout)
}

func TestStreamService_Locate(t *testing.T) {
	const videoPath = "lesson_videos/5/a.mp4"
	data := testPayload(1000)

	tests := []struct {
		name           string
		localData      bool
		remoteData     bool
		remoteStatErr  error
		wireRemote     bool
		item           models.ContentItem
		expectedError  error
		expectedRemote bool
	}{
		{
			name:           "remote copy preferred",
			localData:      true,
			remoteData:     true,
			wireRemote:     true,
			item:           models.ContentItem{ID: 1, StoragePath: videoPath, RemotePath: videoPath},
			expectedRemote: true,
		},
		{
			name:          "remote error falls back to local",
			localData:     true,
			remoteStatErr: errors.New("bad gateway"),
			wireRemote:    true,
			item:          models.ContentItem{ID: 1, StoragePath: videoPath, RemotePath: videoPath},
		},
		{
			name:          "remote error and local missing",
			remoteStatErr: errors.New("bad gateway"),
			wireRemote:    true,
			item:          models.ContentItem{ID: 1, StoragePath: videoPath, RemotePath: videoPath},
			expectedError: ErrUpstreamUnavailable,
		},
		{
			name:          "remote not found and local missing",
			wireRemote:    true,
			item:          models.ContentItem{ID: 1, StoragePath: videoPath, RemotePath: videoPath},
			expectedError: ErrMediaNotFound,
		},
		{
			name:      "local only item",
			localData: true,
			item:      models.ContentItem{ID: 1, StoragePath: videoPath},
		},
		{
			name:          "no path at all",
			item:          models.ContentItem{ID: 1},
			expectedError: ErrMediaNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			if tt.localData {
				writeLocalFile(t, root, videoPath, data)
			}
			remote := newMockRemoteStore()
			remote.statErr = tt.remoteStatErr
			if tt.remoteData {
				remote.objects[videoPath] = data
			}

			var svc *streamService
			if tt.wireRemote {
				svc = NewStreamService(storage.NewLocalStorage(root), remote, nil, zap.NewNop())
			} else {
				svc = NewStreamService(storage.NewLocalStorage(root), nil, nil, zap.NewNop())
			}

			src, err := svc.Locate(context.Background(), &tt.item)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, src)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedRemote, src.Remote)
			assert.Equal(t, int64(len(data)), src.Size)
			assert.Equal(t, videoPath, src.Path)
		})
	}
}

func TestStreamService_Copy(t *testing.T) {
	const videoPath = "lesson_videos/5/a.mp4"

	t.Run("partial range", func(t *testing.T) {
		root := t.TempDir()
		data := testPayload(1000)
		writeLocalFile(t, root, videoPath, data)
		svc := NewStreamService(storage.NewLocalStorage(root), nil, nil, zap.NewNop())

		src, err := svc.Locate(context.Background(), &models.ContentItem{StoragePath: videoPath})
		require.NoError(t, err)

		var buf bytes.Buffer
		n, err := svc.Copy(context.Background(), &buf, src, ByteRange{Start: 100, End: 199})

		require.NoError(t, err)
		assert.Equal(t, int64(100), n)
		assert.Equal(t, data[100:200], buf.Bytes())
	})

	t.Run("full object across several chunks", func(t *testing.T) {
		root := t.TempDir()
		data := testPayload(3*ChunkSize + 17)
		writeLocalFile(t, root, videoPath, data)
		svc := NewStreamService(storage.NewLocalStorage(root), nil, nil, zap.NewNop())

		src, err := svc.Locate(context.Background(), &models.ContentItem{StoragePath: videoPath})
		require.NoError(t, err)

		var buf bytes.Buffer
		n, err := svc.Copy(context.Background(), &buf, src, FullRange(src.Size))

		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), n)
		assert.Equal(t, data, buf.Bytes())
	})

	t.Run("remote source", func(t *testing.T) {
		data := testPayload(500)
		remote := newMockRemoteStore()
		remote.objects[videoPath] = data
		svc := NewStreamService(storage.NewLocalStorage(t.TempDir()), remote, nil, zap.NewNop())

		src, err := svc.Locate(context.Background(), &models.ContentItem{RemotePath: videoPath})
		require.NoError(t, err)
		require.True(t, src.Remote)

		var buf bytes.Buffer
		n, err := svc.Copy(context.Background(), &buf, src, ByteRange{Start: 400, End: 499})

		require.NoError(t, err)
		assert.Equal(t, int64(100), n)
		assert.Equal(t, data[400:], buf.Bytes())
	})

	t.Run("cancelled context", func(t *testing.T) {
		remote := newMockRemoteStore()
		remote.objects[videoPath] = testPayload(4 * ChunkSize)
		svc := NewStreamService(storage.NewLocalStorage(t.TempDir()), remote, nil, zap.NewNop())
		src := &Source{Store: remote, Path: videoPath, Size: 4 * ChunkSize, Remote: true}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var buf bytes.Buffer
		n, err := svc.Copy(ctx, &buf, src, FullRange(src.Size))

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int64(0), n)
		assert.Zero(t, buf.Len())
	})

	t.Run("write failure stops the copy", func(t *testing.T) {
		remote := newMockRemoteStore()
		remote.objects[videoPath] = testPayload(4 * ChunkSize)
		svc := NewStreamService(storage.NewLocalStorage(t.TempDir()), remote, nil, zap.NewNop())
		src := &Source{Store: remote, Path: videoPath, Size: 4 * ChunkSize, Remote: true}

		w := &failingWriter{limit: ChunkSize}
		n, err := svc.Copy(context.Background(), w, src, FullRange(src.Size))

		assert.ErrorIs(t, err, io.ErrClosedPipe)
		assert.Equal(t, int64(ChunkSize), n)
	})

	t.Run("source shorter than range", func(t *testing.T) {
		remote := newMockRemoteStore()
		remote.objects[videoPath] = testPayload(50)
		svc := NewStreamService(storage.NewLocalStorage(t.TempDir()), remote, nil, zap.NewNop())
		src := &Source{Store: remote, Path: videoPath, Size: 1000, Remote: true}

		var buf bytes.Buffer
		n, err := svc.Copy(context.Background(), &buf, src, FullRange(src.Size))

		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
		assert.Equal(t, int64(50), n)
	})

	t.Run("open failure", func(t *testing.T) {
		svc := NewStreamService(storage.NewLocalStorage(t.TempDir()), nil, nil, zap.NewNop())
		src := &Source{Store: svc.local, Path: videoPath, Size: 10}

		_, err := svc.Copy(context.Background(), io.Discard, src, FullRange(10))

		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	})
}

func TestStreamService_NotifyAccess(t *testing.T) {
	t.Run("records access in background", func(t *testing.T) {
		notifier := newMockNotifier()
		svc := NewStreamService(storage.NewLocalStorage(t.TempDir()), nil, notifier, zap.NewNop())
		at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return at }

		svc.NotifyAccess(42, 10)

		select {
		case event := <-notifier.events:
			assert.Equal(t, 42, event.subjectID)
			assert.Equal(t, 10, event.contentID)
			assert.Equal(t, at, event.at)
		case <-time.After(2 * time.Second):
			t.Fatal("access was not recorded")
		}
	})

	t.Run("notifier failure is swallowed", func(t *testing.T) {
		notifier := newMockNotifier()
		notifier.err = errors.New("redis down")
		svc := NewStreamService(storage.NewLocalStorage(t.TempDir()), nil, notifier, zap.NewNop())

		svc.NotifyAccess(42, 10)

		select {
		case <-notifier.events:
		case <-time.After(2 * time.Second):
			t.Fatal("notifier was not called")
		}
	})

	t.Run("nil notifier", func(t *testing.T) {
		svc := NewStreamService(storage.NewLocalStorage(t.TempDir()), nil, nil, zap.NewNop())

		assert.NotPanics(t, func() { svc.NotifyAccess(42, 10) })
	})
}
