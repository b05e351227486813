package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type contentAccessRepository struct {
	db *sql.DB
}

// NewContentAccessRepository creates a new content access repository
func NewContentAccessRepository(db *sql.DB) *contentAccessRepository {
	return &contentAccessRepository{
		db: db,
	}
}

// Touch records that the user opened the content item at the given time.
// Out-of-order deliveries never move last_accessed_at backwards.
func (r *contentAccessRepository) Touch(ctx context.Context, userID, contentID int, at time.Time) error {
	query := `
		INSERT INTO content_access (user_id, content_id, last_accessed_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE last_accessed_at = GREATEST(last_accessed_at, VALUES(last_accessed_at))
	`

	_, err := r.db.ExecContext(ctx, query, userID, contentID, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to record content access: %w", err)
	}

	return nil
}
