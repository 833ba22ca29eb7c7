package repository

import (
	"database/sql"
	"time"

	"github.com/ragbase/console/internal/domain"
)

// UserRepository maintains the user directory used by sharing lookups.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert records a user, updating the email if the id already exists.
func (r *UserRepository) Upsert(user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := r.db.Exec(`
		INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email
	`, user.UserID, user.Email, user.CreatedAt)
	return err
}

// GetByEmail retrieves a user by exact email
func (r *UserRepository) GetByEmail(email string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRow(`
		SELECT id, email, created_at FROM users WHERE email = ?
	`, email).Scan(&user.UserID, &user.Email, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// LookupByPrefix retrieves users whose email starts with prefix, ordered by
// email, resuming after lastEvalKey when paginating.
func (r *UserRepository) LookupByPrefix(prefix string, limit int, lastEvalKey string) ([]domain.User, error) {
	rows, err := r.db.Query(`
		SELECT id, email, created_at FROM users
		WHERE email LIKE ? AND email > ?
		ORDER BY email ASC LIMIT ?
	`, prefix+"%", lastEvalKey, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.UserID, &user.Email, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// Count returns the total number of users
func (r *UserRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
