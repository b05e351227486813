package models

import (
	"path"
	"strings"
)

// MediaKind represents the kind of protected media a content item carries
type MediaKind string

const (
	MediaKindPDF   MediaKind = "pdf"
	MediaKindVideo MediaKind = "video"
)

// IsValid reports whether k is a known media kind
func (k MediaKind) IsValid() bool {
	return k == MediaKindPDF || k == MediaKindVideo
}

// ContentItem represents a lesson's protected media file
type ContentItem struct {
	ID       int       `json:"id"`
	LessonID int       `json:"lessonId"`
	CourseID int       `json:"courseId"`
	Title    string    `json:"title"`
	Kind     MediaKind `json:"kind"`
	// StoragePath is relative to the media root and immutable once set
	StoragePath     string `json:"-"`
	RemotePath      string `json:"-"`
	Format          string `json:"format,omitempty"`
	DurationSeconds *int   `json:"durationSeconds,omitempty"`
	SizeBytes       int64  `json:"sizeBytes"`
}

// HasFile reports whether a file has been attached to the item
func (c *ContentItem) HasFile() bool {
	return c.StoragePath != ""
}

// FileName returns the base name used in Content-Disposition
func (c *ContentItem) FileName() string {
	if c.StoragePath == "" {
		return ""
	}
	return path.Base(c.StoragePath)
}

// ContentType returns the MIME type served for the item
func (c *ContentItem) ContentType() string {
	if c.Kind == MediaKindPDF {
		return "application/pdf"
	}
	format := c.Format
	if format == "" {
		format = strings.TrimPrefix(path.Ext(c.StoragePath), ".")
	}
	switch strings.ToLower(format) {
	case "webm":
		return "video/webm"
	case "mov":
		return "video/quicktime"
	case "mkv":
		return "video/x-matroska"
	default:
		return "video/mp4"
	}
}
