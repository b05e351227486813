package models

import "time"

// AccessToken is the transient, signed grant carried in a local media URL. It is never persisted.
type AccessToken struct {
	Path      string
	SubjectID int
	ExpiresAt time.Time
	Signature string
}

// URLSource tells which backend produced a signed URL
type URLSource string

const (
	URLSourceRemote URLSource = "remote"
	URLSourceLocal  URLSource = "local"
)

// AccessGrant is a freshly issued media URL
type AccessGrant struct {
	URL       string
	ExpiresAt time.Time
	Source    URLSource
	Watermark string
}

// AccessResponse is returned to a client asking for access to a content item
type AccessResponse struct {
	SignedURL string    `json:"signed_url"`
	Watermark string    `json:"watermark"`
	ExpiresAt time.Time `json:"expires_at"`
	Source    URLSource `json:"source"`
	Kind      MediaKind `json:"kind"`
	UserID    int       `json:"user_id"`
	ContentID int       `json:"content_id"`
	CourseID  int       `json:"course_id"`
	LessonID  int       `json:"lesson_id"`
}

// ContentAccess records the last time a user opened a content item
type ContentAccess struct {
	UserID         int       `json:"userId"`
	ContentID      int       `json:"contentId"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
}
