package database

import (
	"context"
	"time"
)

// CreateSession stores a session token for a user
func (s *Store) CreateSession(ctx context.Context, userID int64, token string, expiresAt time.Time) (err error) {
	defer func(start time.Time) { err = s.observe("session.create", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, token, userID, expiresAt.UTC().Truncate(time.Microsecond), s.now())
	return err
}

// GetSessionUser returns the identity behind an unexpired session token.
// Unknown or expired tokens yield a NotFound error.
// The user row is read on every call so admin changes apply immediately.
func (s *Store) GetSessionUser(ctx context.Context, token string) (su *SessionUser, err error) {
	defer func(start time.Time) { err = s.observe("session.get", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	su = &SessionUser{}
	err = s.db.QueryRowContext(ctx, `
		SELECT u.user_id, u.username, u.is_admin, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.user_id
		WHERE s.token = ? AND s.expires_at > ?
	`, token, s.now()).Scan(&su.UserID, &su.Username, &su.IsAdmin, &su.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return su, nil
}

// DeleteSession removes a session token; removing an unknown token is not an error
func (s *Store) DeleteSession(ctx context.Context, token string) (err error) {
	defer func(start time.Time) { err = s.observe("session.delete", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// DeleteExpiredSessions removes sessions past their expiry and returns how many
func (s *Store) DeleteExpiredSessions(ctx context.Context) (n int64, err error) {
	defer func(start time.Time) { err = s.observe("session.cleanup", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
