package database

import (
	"context"
	"time"
)

// CreateComment inserts a top-level comment.
// A missing video is reported as NotFound by the foreign key.
func (s *Store) CreateComment(ctx context.Context, c *Comment) (err error) {
	defer func(start time.Time) { err = s.observe("comment.create", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	createdAt := s.now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (video_id, user_id, content, created_at)
		VALUES (?, ?, ?, ?)
	`, c.VideoID, c.UserID, c.Content, createdAt)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	c.CreatedAt = createdAt
	return nil
}

// GetComment loads a single comment with its author
func (s *Store) GetComment(ctx context.Context, id int64) (c *Comment, err error) {
	defer func(start time.Time) { err = s.observe("comment.get", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	c = &Comment{}
	err = s.db.QueryRowContext(ctx, `
		SELECT c.comment_id, c.video_id, c.user_id, c.content, c.created_at, u.username
		FROM comments c
		JOIN users u ON c.user_id = u.user_id
		WHERE c.comment_id = ?
	`, id).Scan(&c.ID, &c.VideoID, &c.UserID, &c.Content, &c.CreatedAt, &c.Username)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListComments returns a video's comments newest first; limit <= 0 means all
func (s *Store) ListComments(ctx context.Context, videoID int64, limit int) (comments []Comment, err error) {
	defer func(start time.Time) { err = s.observe("comment.list", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT c.comment_id, c.video_id, c.user_id, c.content, c.created_at, u.username
		FROM comments c
		JOIN users u ON c.user_id = u.user_id
		WHERE c.video_id = ?
		ORDER BY c.created_at DESC, c.comment_id DESC`
	args := []any{videoID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments = make([]Comment, 0)
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.VideoID, &c.UserID, &c.Content, &c.CreatedAt, &c.Username); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ListRepliesForVideo returns the replies to every comment of a video in
// one query, oldest first, with the mentioned username when it still exists
func (s *Store) ListRepliesForVideo(ctx context.Context, videoID int64) (replies []Reply, err error) {
	defer func(start time.Time) { err = s.observe("reply.list", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.reply_id, r.comment_id, r.user_id, r.content, r.mentioned_user_id,
			r.created_at, u.username, COALESCE(m.username, '')
		FROM replies r
		JOIN comments c ON r.comment_id = c.comment_id
		JOIN users u ON r.user_id = u.user_id
		LEFT JOIN users m ON r.mentioned_user_id = m.user_id
		WHERE c.video_id = ?
		ORDER BY r.created_at ASC, r.reply_id ASC
	`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	replies = make([]Reply, 0)
	for rows.Next() {
		var r Reply
		if err := rows.Scan(&r.ID, &r.CommentID, &r.UserID, &r.Content, &r.MentionedUserID,
			&r.CreatedAt, &r.Username, &r.MentionedUsername); err != nil {
			return nil, err
		}
		replies = append(replies, r)
	}
	return replies, rows.Err()
}

// CreateReply inserts a reply; the mention is stored exactly as resolved by the caller
func (s *Store) CreateReply(ctx context.Context, r *Reply) (err error) {
	defer func(start time.Time) { err = s.observe("reply.create", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	createdAt := s.now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO replies (comment_id, user_id, content, mentioned_user_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.CommentID, r.UserID, r.Content, r.MentionedUserID, createdAt)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	r.CreatedAt = createdAt
	return nil
}

// DeleteComment removes a comment and, by cascade, its replies.
// It reports whether a row was removed.
func (s *Store) DeleteComment(ctx context.Context, id int64) (deleted bool, err error) {
	defer func(start time.Time) { err = s.observe("comment.delete", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE comment_id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// ListAllComments returns every comment, newest first, with author and
// video title, for the moderation dashboard
func (s *Store) ListAllComments(ctx context.Context) (comments []AdminComment, err error) {
	defer func(start time.Time) { err = s.observe("comment.list_all", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.comment_id, c.video_id, c.user_id, c.content, c.created_at,
			u.username, v.title
		FROM comments c
		JOIN users u ON c.user_id = u.user_id
		JOIN videos v ON c.video_id = v.video_id
		ORDER BY c.created_at DESC, c.comment_id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments = make([]AdminComment, 0)
	for rows.Next() {
		var ac AdminComment
		if err := rows.Scan(&ac.ID, &ac.VideoID, &ac.UserID, &ac.Content, &ac.CreatedAt,
			&ac.Username, &ac.VideoTitle); err != nil {
			return nil, err
		}
		comments = append(comments, ac)
	}
	return comments, rows.Err()
}

// CountReplies returns the number of replies to a comment
func (s *Store) CountReplies(ctx context.Context, commentID int64) (n int, err error) {
	defer func(start time.Time) { err = s.observe("reply.count", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM replies WHERE comment_id = ?`, commentID).Scan(&n)
	return n, err
}
