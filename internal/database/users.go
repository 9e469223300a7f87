package database

import (
	"context"
	"database/sql"
	"time"

	"vidstream/internal/config"
)

// CreateUser inserts a new account and returns its id.
// A duplicate username or email yields a Conflict error.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (id int64, err error) {
	defer func(start time.Time) { err = s.observe("user.create", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, username, email, passwordHash, false, s.now())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// UserExists reports whether the username or the email is already taken
func (s *Store) UserExists(ctx context.Context, username, email string) (exists bool, err error) {
	defer func(start time.Time) { err = s.observe("user.exists", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users WHERE username = ? OR email = ?
	`, username, email).Scan(&count)
	return count > 0, err
}

// GetUserByUsername loads an account including its password hash
func (s *Store) GetUserByUsername(ctx context.Context, username string) (user *User, err error) {
	defer func(start time.Time) { err = s.observe("user.get", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u := &User{}
	err = s.db.QueryRowContext(ctx, `
		SELECT user_id, username, email, password_hash, is_admin, created_at
		FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindUserID resolves a username to its id; ok is false when no such user exists
func (s *Store) FindUserID(ctx context.Context, username string) (id int64, ok bool, err error) {
	defer func(start time.Time) { err = s.observe("user.find_id", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.db.QueryRowContext(ctx, `SELECT user_id FROM users WHERE username = ?`, username).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// SetAdmin grants or revokes administrator rights; it reports whether the
// user exists
func (s *Store) SetAdmin(ctx context.Context, username string, isAdmin bool) (found bool, err error) {
	defer func(start time.Time) { err = s.observe("user.set_admin", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE username = ?`, isAdmin, username)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	// MySQL reports 0 affected rows when the value is unchanged, so confirm existence
	if n == 0 && s.driver == config.DriverMySQL {
		_, found, err = s.FindUserID(ctx, username)
		return found, err
	}
	return n > 0, nil
}
