package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocalStorage(t *testing.T) (*localStorage, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lesson_videos", "3"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lesson_videos", "3", "clip.mp4"), []byte("0123456789"), 0644))
	return NewLocalStorage(dir), dir
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		expected    string
		expectedErr error
	}{
		{name: "simple", path: "lesson_pdfs/7/intro.pdf", expected: "lesson_pdfs/7/intro.pdf"},
		{name: "underscores kept", path: "lesson_pdfs/7/my_file_name.pdf", expected: "lesson_pdfs/7/my_file_name.pdf"},
		{name: "redundant segments", path: "lesson_pdfs/./7//intro.pdf", expected: "lesson_pdfs/7/intro.pdf"},
		{name: "inner dotdot", path: "lesson_pdfs/x/../7/intro.pdf", expected: "lesson_pdfs/7/intro.pdf"},
		{name: "empty", path: "", expectedErr: ErrInvalidPath},
		{name: "absolute", path: "/etc/passwd", expectedErr: ErrInvalidPath},
		{name: "escape", path: "../secret.pdf", expectedErr: ErrInvalidPath},
		{name: "nested escape", path: "a/../../secret.pdf", expectedErr: ErrInvalidPath},
		{name: "backslash", path: "a\\..\\b.pdf", expectedErr: ErrInvalidPath},
		{name: "dot", path: ".", expectedErr: ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaned, err := CleanPath(tt.path)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cleaned)
		})
	}
}

func TestLocalStorage_Stat(t *testing.T) {
	s, _ := setupLocalStorage(t)
	ctx := context.Background()

	t.Run("existing file", func(t *testing.T) {
		info, err := s.Stat(ctx, "lesson_videos/3/clip.mp4")
		require.NoError(t, err)
		assert.Equal(t, int64(10), info.Size)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := s.Stat(ctx, "lesson_videos/3/missing.mp4")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := s.Stat(ctx, "lesson_videos/3")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("escaping path", func(t *testing.T) {
		_, err := s.Stat(ctx, "../clip.mp4")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})
}

func TestLocalStorage_Open(t *testing.T) {
	s, _ := setupLocalStorage(t)

	tests := []struct {
		name        string
		offset      int64
		length      int64
		expected    string
		expectedErr error
		path        string
	}{
		{name: "whole file", offset: 0, length: -1, expected: "0123456789", path: "lesson_videos/3/clip.mp4"},
		{name: "range", offset: 2, length: 3, expected: "234", path: "lesson_videos/3/clip.mp4"},
		{name: "tail", offset: 7, length: -1, expected: "789", path: "lesson_videos/3/clip.mp4"},
		{name: "length past end", offset: 8, length: 10, expected: "89", path: "lesson_videos/3/clip.mp4"},
		{name: "missing", offset: 0, length: -1, expectedErr: ErrObjectNotFound, path: "lesson_videos/3/nope.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := s.Open(context.Background(), tt.path, tt.offset, tt.length)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			defer rc.Close()

			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Open(ctx, "lesson_videos/3/clip.mp4", 0, -1)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLocalStorage_CreateAndDelete(t *testing.T) {
	s, dir := setupLocalStorage(t)
	ctx := context.Background()

	n, err := s.Create(ctx, "lesson_pdfs/7/intro.pdf", strings.NewReader("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	data, err := os.ReadFile(filepath.Join(dir, "lesson_pdfs", "7", "intro.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	// no temporary files left behind
	entries, err := os.ReadDir(filepath.Join(dir, "lesson_pdfs", "7"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, s.Delete(ctx, "lesson_pdfs/7/intro.pdf"))
	assert.ErrorIs(t, s.Delete(ctx, "lesson_pdfs/7/intro.pdf"), ErrObjectNotFound)

	_, err = s.Create(ctx, "../outside.pdf", strings.NewReader("x"), "application/pdf")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestGenerateObjectPath(t *testing.T) {
	p := GenerateObjectPath("lesson_pdfs", 7, "PDF")
	assert.True(t, strings.HasPrefix(p, "lesson_pdfs/7/"))
	assert.True(t, strings.HasSuffix(p, ".pdf"))
	assert.Len(t, p, len("lesson_pdfs/7/")+36+4)
	assert.NotEqual(t, p, GenerateObjectPath("lesson_pdfs", 7, ".pdf"))
}
