package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courseguardian/backend/internal/models"
)

type contentItemRepository struct {
	db *sql.DB
}

// NewContentItemRepository creates a new content item repository
func NewContentItemRepository(db *sql.DB) *contentItemRepository {
	return &contentItemRepository{
		db: db,
	}
}

const selectContentItem = `
	SELECT ci.id, ci.lesson_id, l.course_id, ci.title, ci.kind,
		ci.storage_path, ci.remote_path, ci.format, ci.duration_seconds, ci.size_bytes
	FROM content_items ci
	JOIN lessons l ON l.id = ci.lesson_id
`

// GetByID retrieves a content item by ID
func (r *contentItemRepository) GetByID(ctx context.Context, id int) (*models.ContentItem, error) {
	query := selectContentItem + ` WHERE ci.id = ? LIMIT 1`

	item, err := scanContentItem(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content item by id: %w", err)
	}

	return item, nil
}

// GetByStoragePath retrieves the content item whose local file lives at storagePath
func (r *contentItemRepository) GetByStoragePath(ctx context.Context, storagePath string) (*models.ContentItem, error) {
	query := selectContentItem + ` WHERE ci.storage_path = ? LIMIT 1`

	item, err := scanContentItem(r.db.QueryRowContext(ctx, query, storagePath))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content item by storage path: %w", err)
	}

	return item, nil
}

// SetFile attaches a stored file to an item that has none yet.
// Returns ErrNotUpdated if the item is missing or already has a storage path.
func (r *contentItemRepository) SetFile(ctx context.Context, id int, storagePath, remotePath string, sizeBytes int64) error {
	query := `
		UPDATE content_items
		SET storage_path = ?, remote_path = ?, size_bytes = ?
		WHERE id = ? AND (storage_path IS NULL OR storage_path = '')
	`

	result, err := r.db.ExecContext(ctx, query, storagePath, nullString(remotePath), sizeBytes, id)
	if err != nil {
		return fmt.Errorf("failed to set content item file: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotUpdated
	}

	return nil
}

func scanContentItem(row *sql.Row) (*models.ContentItem, error) {
	var (
		item        models.ContentItem
		storagePath sql.NullString
		remotePath  sql.NullString
		format      sql.NullString
		duration    sql.NullInt64
	)

	err := row.Scan(
		&item.ID,
		&item.LessonID,
		&item.CourseID,
		&item.Title,
		&item.Kind,
		&storagePath,
		&remotePath,
		&format,
		&duration,
		&item.SizeBytes,
	)
	if err != nil {
		return nil, err
	}

	item.StoragePath = storagePath.String
	item.RemotePath = remotePath.String
	item.Format = format.String
	if duration.Valid {
		d := int(duration.Int64)
		item.DurationSeconds = &d
	}

	return &item, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
