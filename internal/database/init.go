package database

import (
	"context"
	"fmt"

	"vidstream/internal/config"
	"vidstream/internal/logging"
)

// leaderboardSelect is shared by both dialects; it only uses portable SQL
const leaderboardSelect = `
	SELECT
		u.user_id,
		u.username,
		COALESCE(v.video_count, 0) AS video_count,
		COALESCE(v.total_views, 0) AS total_views,
		COALESCE(c.comment_count, 0) AS comment_count,
		COALESCE(r.reply_count, 0) AS reply_count,
		COALESCE(v.total_views, 0)
			+ 5 * COALESCE(c.comment_count, 0)
			+ 3 * COALESCE(r.reply_count, 0)
			+ 10 * COALESCE(v.video_count, 0) AS engagement_score
	FROM users u
	LEFT JOIN (
		SELECT user_id, COUNT(*) AS video_count, SUM(views) AS total_views
		FROM videos GROUP BY user_id
	) v ON v.user_id = u.user_id
	LEFT JOIN (
		SELECT user_id, COUNT(*) AS comment_count
		FROM comments GROUP BY user_id
	) c ON c.user_id = u.user_id
	LEFT JOIN (
		SELECT user_id, COUNT(*) AS reply_count
		FROM replies GROUP BY user_id
	) r ON r.user_id = u.user_id`

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL CHECK(length(username) > 0),
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		session_id INTEGER PRIMARY KEY AUTOINCREMENT,
		token TEXT UNIQUE NOT NULL,
		user_id INTEGER NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS videos (
		video_id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL CHECK(length(title) > 0),
		description TEXT,
		thumbnail_path TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		views INTEGER NOT NULL DEFAULT 0 CHECK(views >= 0),
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS comments (
		comment_id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		content TEXT NOT NULL CHECK(length(content) > 0),
		created_at DATETIME NOT NULL,
		FOREIGN KEY (video_id) REFERENCES videos(video_id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS replies (
		reply_id INTEGER PRIMARY KEY AUTOINCREMENT,
		comment_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		content TEXT NOT NULL CHECK(length(content) > 0),
		mentioned_user_id INTEGER,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (comment_id) REFERENCES comments(comment_id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE,
		FOREIGN KEY (mentioned_user_id) REFERENCES users(user_id) ON DELETE SET NULL
	)`,

	`CREATE TABLE IF NOT EXISTS activity_log (
		log_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id INTEGER,
		details TEXT,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE SET NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_user_id ON videos(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_created_at ON videos(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_video_id ON comments(video_id)`,
	`CREATE INDEX IF NOT EXISTS idx_replies_comment_id ON replies(comment_id)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_log_created_at ON activity_log(created_at)`,

	`CREATE VIEW IF NOT EXISTS user_leaderboard AS ` + leaderboardSelect,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(50) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME(6) NOT NULL,
		CHECK (CHAR_LENGTH(username) > 0)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS sessions (
		session_id INT AUTO_INCREMENT PRIMARY KEY,
		token CHAR(64) NOT NULL UNIQUE,
		user_id INT NOT NULL,
		expires_at DATETIME(6) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_sessions_user_id (user_id),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS videos (
		video_id INT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		thumbnail_path VARCHAR(512) NOT NULL,
		user_id INT NOT NULL,
		views INT UNSIGNED NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_videos_user_id (user_id),
		INDEX idx_videos_created_at (created_at),
		CHECK (CHAR_LENGTH(title) > 0),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS comments (
		comment_id INT AUTO_INCREMENT PRIMARY KEY,
		video_id INT NOT NULL,
		user_id INT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_comments_video_id (video_id),
		FOREIGN KEY (video_id) REFERENCES videos(video_id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS replies (
		reply_id INT AUTO_INCREMENT PRIMARY KEY,
		comment_id INT NOT NULL,
		user_id INT NOT NULL,
		content TEXT NOT NULL,
		mentioned_user_id INT NULL,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_replies_comment_id (comment_id),
		FOREIGN KEY (comment_id) REFERENCES comments(comment_id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE,
		FOREIGN KEY (mentioned_user_id) REFERENCES users(user_id) ON DELETE SET NULL
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS activity_log (
		log_id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NULL,
		action VARCHAR(64) NOT NULL,
		entity_type VARCHAR(32) NOT NULL,
		entity_id INT NULL,
		details JSON NULL,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_activity_log_created_at (created_at),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE SET NULL
	) ENGINE=InnoDB`,

	`CREATE OR REPLACE VIEW user_leaderboard AS ` + leaderboardSelect,
}

// schemaFor returns the DDL statements for a driver
func schemaFor(driver string) []string {
	if driver == config.DriverMySQL {
		return mysqlSchema
	}
	return sqliteSchema
}

// migrate creates all tables, indexes and views that do not exist yet
func (s *Store) migrate(ctx context.Context) error {
	for i, stmt := range schemaFor(s.driver) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			logging.Error().Err(err).Int("statement", i+1).Msg("schema statement failed")
			return fmt.Errorf("schema statement %d failed: %w", i+1, err)
		}
	}
	return nil
}
