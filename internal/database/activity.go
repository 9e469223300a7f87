package database

import (
	"context"
	"time"
)

// LogActivity appends an entry to the audit trail
func (s *Store) LogActivity(ctx context.Context, e *ActivityEntry) (err error) {
	defer func(start time.Time) { err = s.observe("activity.log", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var details any
	if e.Details != "" {
		details = e.Details
	}

	createdAt := s.now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (user_id, action, entity_type, entity_id, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.UserID, e.Action, e.EntityType, e.EntityID, details, createdAt)
	if err != nil {
		return err
	}
	if e.ID, err = result.LastInsertId(); err != nil {
		return err
	}
	e.CreatedAt = createdAt
	return nil
}

// ListActivity returns the most recent audit entries, newest first
func (s *Store) ListActivity(ctx context.Context, limit int) (entries []ActivityEntry, err error) {
	defer func(start time.Time) { err = s.observe("activity.list", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.log_id, a.user_id, a.action, a.entity_type, a.entity_id,
			COALESCE(a.details, ''), a.created_at, COALESCE(u.username, '')
		FROM activity_log a
		LEFT JOIN users u ON a.user_id = u.user_id
		ORDER BY a.created_at DESC, a.log_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries = make([]ActivityEntry, 0)
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID,
			&e.Details, &e.CreatedAt, &e.Username); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
