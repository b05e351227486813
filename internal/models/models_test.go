package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubject_DisplayName(t *testing.T) {
	tests := []struct {
		name     string
		subject  Subject
		expected string
	}{
		{name: "username", subject: Subject{Username: "alice", Email: "alice@example.com"}, expected: "alice"},
		{name: "email fallback", subject: Subject{Email: "bob@example.com"}, expected: "bob@example.com"},
		{name: "empty", subject: Subject{}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.subject.DisplayName())
		})
	}
}

func TestContentItem_ContentType(t *testing.T) {
	tests := []struct {
		name     string
		item     ContentItem
		expected string
	}{
		{name: "pdf", item: ContentItem{Kind: MediaKindPDF, Format: "mp4"}, expected: "application/pdf"},
		{name: "mp4", item: ContentItem{Kind: MediaKindVideo, Format: "mp4"}, expected: "video/mp4"},
		{name: "webm", item: ContentItem{Kind: MediaKindVideo, Format: "webm"}, expected: "video/webm"},
		{name: "unknown format", item: ContentItem{Kind: MediaKindVideo}, expected: "video/mp4"},
		{name: "format from path", item: ContentItem{Kind: MediaKindVideo, StoragePath: "lesson_videos/3/a.webm"}, expected: "video/webm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.item.ContentType())
		})
	}
}

func TestContentItem_FileName(t *testing.T) {
	assert.Equal(t, "intro.pdf", (&ContentItem{StoragePath: "lesson_pdfs/7/intro.pdf"}).FileName())
	assert.Equal(t, "", (&ContentItem{}).FileName())
	assert.False(t, (&ContentItem{}).HasFile())
}
