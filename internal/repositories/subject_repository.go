package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courseguardian/backend/internal/models"
)

type subjectRepository struct {
	db *sql.DB
}

// NewSubjectRepository creates a new subject repository
func NewSubjectRepository(db *sql.DB) *subjectRepository {
	return &subjectRepository{
		db: db,
	}
}

// GetByID retrieves a user by ID
func (r *subjectRepository) GetByID(ctx context.Context, id int) (*models.Subject, error) {
	query := `
		SELECT id, username, email, first_name, last_name, role
		FROM users
		WHERE id = ?
		LIMIT 1
	`

	subject := &models.Subject{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&subject.ID,
		&subject.Username,
		&subject.Email,
		&subject.FirstName,
		&subject.LastName,
		&subject.Role,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	if subject.Role == 0 {
		subject.Role = models.RoleStudent
	}

	return subject, nil
}
