package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateObjectPath builds a fresh object path such as "lesson_pdfs/7/<uuid>.pdf".
// Names are random so an upload never overwrites an existing object.
func GenerateObjectPath(prefix string, lessonID int, extension string) string {
	name := uuid.New().String()
	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	return fmt.Sprintf("%s/%d/%s%s", prefix, lessonID, name, strings.ToLower(extension))
}

// sizeWriter tracks the total number of bytes written
type sizeWriter struct {
	size int64
}

// Write implements io.Writer interface
func (sw *sizeWriter) Write(p []byte) (int, error) {
	n := len(p)
	sw.size += int64(n)
	return n, nil
}

// Size returns the total number of bytes written
func (sw *sizeWriter) Size() int64 {
	return sw.size
}

// NewSizeWriter creates a new sizeWriter instance
func NewSizeWriter() *sizeWriter {
	return &sizeWriter{}
}
