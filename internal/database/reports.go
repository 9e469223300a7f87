package database

import (
	"context"
	"time"
)

// GetVideoStats aggregates views, comments and replies for one video.
// EngagementRate is left for the caller to derive.
func (s *Store) GetVideoStats(ctx context.Context, videoID int64) (st *VideoStats, err error) {
	defer func(start time.Time) { err = s.observe("report.video_stats", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	st = &VideoStats{}
	err = s.db.QueryRowContext(ctx, `
		SELECT
			v.video_id, v.title, u.username, v.views, v.created_at,
			(SELECT COUNT(*) FROM comments c WHERE c.video_id = v.video_id) AS comment_count,
			(SELECT COUNT(*) FROM replies r
				JOIN comments c ON r.comment_id = c.comment_id
				WHERE c.video_id = v.video_id) AS reply_count
		FROM videos v
		JOIN users u ON v.user_id = u.user_id
		WHERE v.video_id = ?
	`, videoID).Scan(&st.VideoID, &st.Title, &st.Username, &st.Views, &st.CreatedAt,
		&st.CommentCount, &st.ReplyCount)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// GetUserActivity aggregates a user's contributions
func (s *Store) GetUserActivity(ctx context.Context, username string) (ua *UserActivity, err error) {
	defer func(start time.Time) { err = s.observe("report.user_activity", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ua = &UserActivity{}
	err = s.db.QueryRowContext(ctx, `
		SELECT
			u.user_id, u.username, u.is_admin, u.created_at,
			(SELECT COUNT(*) FROM videos v WHERE v.user_id = u.user_id),
			(SELECT COALESCE(SUM(v.views), 0) FROM videos v WHERE v.user_id = u.user_id),
			(SELECT COUNT(*) FROM comments c WHERE c.user_id = u.user_id),
			(SELECT COUNT(*) FROM replies r WHERE r.user_id = u.user_id),
			(SELECT COUNT(*) FROM replies r WHERE r.mentioned_user_id = u.user_id)
		FROM users u
		WHERE u.username = ?
	`, username).Scan(&ua.UserID, &ua.Username, &ua.IsAdmin, &ua.JoinedAt,
		&ua.TotalVideos, &ua.TotalViews, &ua.TotalComments, &ua.TotalReplies, &ua.MentionsReceived)
	if err != nil {
		return nil, err
	}
	return ua, nil
}

// GetTrending ranks videos created at or after since by views, then by
// distinct comment count
func (s *Store) GetTrending(ctx context.Context, since time.Time, limit int) (entries []TrendingEntry, err error) {
	defer func(start time.Time) { err = s.observe("report.trending", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			v.video_id, v.title, v.thumbnail_path, v.views, u.username, v.created_at,
			COUNT(DISTINCT c.comment_id) AS comment_count
		FROM videos v
		JOIN users u ON v.user_id = u.user_id
		LEFT JOIN comments c ON v.video_id = c.video_id
		WHERE v.created_at >= ?
		GROUP BY v.video_id, v.title, v.thumbnail_path, v.views, u.username, v.created_at
		ORDER BY v.views DESC, comment_count DESC, v.video_id DESC
		LIMIT ?
	`, since.UTC().Truncate(time.Microsecond), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries = make([]TrendingEntry, 0)
	for rows.Next() {
		var e TrendingEntry
		if err := rows.Scan(&e.VideoID, &e.Title, &e.ThumbnailPath, &e.Views, &e.Username,
			&e.CreatedAt, &e.CommentCount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetLeaderboard reads the user_leaderboard view, best score first
func (s *Store) GetLeaderboard(ctx context.Context, limit int) (entries []LeaderboardEntry, err error) {
	defer func(start time.Time) { err = s.observe("report.leaderboard", start, err) }(time.Now())

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, username, video_count, total_views, comment_count, reply_count, engagement_score
		FROM user_leaderboard
		ORDER BY engagement_score DESC, user_id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries = make([]LeaderboardEntry, 0)
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.VideoCount, &e.TotalViews,
			&e.CommentCount, &e.ReplyCount, &e.EngagementScore); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
