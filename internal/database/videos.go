package database

import (
	"context"
	"database/sql"
	"time"

	"vidstream/internal/apperr"
)

const videoColumns = `
	v.video_id, v.title, COALESCE(v.description, ''), v.thumbnail_path,
	v.user_id, v.views, v.created_at, u.username`

func scanVideo(row interface{ Scan(...any) error }, v *Video) error {
	return row.Scan(&v.ID, &v.Title, &v.Description, &v.ThumbnailPath,
		&v.UserID, &v.Views, &v.CreatedAt, &v.Username)
}

// CreateVideo inserts a video with zero views and fills in its id and created_at
func (s *Store) CreateVideo(ctx context.Context, v *Video) (err error) {
	defer func(start time.Time) { err = s.observe("video.create", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	createdAt := s.now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO videos (title, description, thumbnail_path, user_id, views, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, v.Title, v.Description, v.ThumbnailPath, v.UserID, createdAt)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = id
	v.Views = 0
	v.CreatedAt = createdAt
	return nil
}

// GetVideo loads a video joined with its author's username
func (s *Store) GetVideo(ctx context.Context, id int64) (v *Video, err error) {
	defer func(start time.Time) { err = s.observe("video.get", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	v = &Video{}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+videoColumns+`
		FROM videos v
		JOIN users u ON v.user_id = u.user_id
		WHERE v.video_id = ?
	`, id)
	if err := scanVideo(row, v); err != nil {
		return nil, err
	}
	return v, nil
}

// IncrementViews adds one view in a single atomic statement, so concurrent
// viewers never lose an update
func (s *Store) IncrementViews(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { err = s.observe("video.increment_views", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `UPDATE videos SET views = views + 1 WHERE video_id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("Video not found.")
	}
	return nil
}

// ListVideos returns videos newest first; limit <= 0 returns all of them
func (s *Store) ListVideos(ctx context.Context, limit, offset int) (videos []Video, err error) {
	defer func(start time.Time) { err = s.observe("video.list", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ` + videoColumns + `
		FROM videos v
		JOIN users u ON v.user_id = u.user_id
		ORDER BY v.created_at DESC, v.video_id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos = make([]Video, 0)
	for rows.Next() {
		var v Video
		if err := scanVideo(rows, &v); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// CountVideos returns the number of videos
func (s *Store) CountVideos(ctx context.Context) (n int, err error) {
	defer func(start time.Time) { err = s.observe("video.count", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&n)
	return n, err
}

// DeleteVideo removes a video row (comments and replies cascade) and
// returns the thumbnail key it referenced
func (s *Store) DeleteVideo(ctx context.Context, id int64) (thumbnailPath string, err error) {
	defer func(start time.Time) { err = s.observe("video.delete", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `SELECT thumbnail_path FROM videos WHERE video_id = ?`, id).Scan(&thumbnailPath)
	if err == sql.ErrNoRows {
		return "", apperr.NotFound("Video not found.")
	}
	if err != nil {
		return "", err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM videos WHERE video_id = ?`, id); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return thumbnailPath, nil
}

// ListVideosByUser returns a user's videos newest first with comment counts
func (s *Store) ListVideosByUser(ctx context.Context, userID int64) (videos []UserVideo, err error) {
	defer func(start time.Time) { err = s.observe("video.list_by_user", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+videoColumns+`,
			(SELECT COUNT(*) FROM comments c WHERE c.video_id = v.video_id) AS comment_count
		FROM videos v
		JOIN users u ON v.user_id = u.user_id
		WHERE v.user_id = ?
		ORDER BY v.created_at DESC, v.video_id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos = make([]UserVideo, 0)
	for rows.Next() {
		var uv UserVideo
		if err := rows.Scan(&uv.ID, &uv.Title, &uv.Description, &uv.ThumbnailPath,
			&uv.UserID, &uv.Views, &uv.CreatedAt, &uv.Username, &uv.CommentCount); err != nil {
			return nil, err
		}
		videos = append(videos, uv)
	}
	return videos, rows.Err()
}
