package database

import (
	"database/sql"
	"time"
)

// User represents a registered account
// This struct maps to the 'users' table in the database
type User struct {
	ID           int64     `json:"user_id"`    // Primary key
	Username     string    `json:"username"`   // Unique, used for login and @mentions
	Email        string    `json:"email"`      // Unique
	PasswordHash string    `json:"-"`          // bcrypt hash, never rendered
	IsAdmin      bool      `json:"is_admin"`   // Set out-of-band only
	CreatedAt    time.Time `json:"created_at"` // Registration time
}

// SessionUser is the identity behind a live session token
type SessionUser struct {
	UserID    int64
	Username  string
	IsAdmin   bool
	ExpiresAt time.Time
}

// Video represents an uploaded video thumbnail with its metadata
// This struct maps to the 'videos' table in the database
type Video struct {
	ID            int64     `json:"video_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ThumbnailPath string    `json:"thumbnail_path"` // Storage key of the image
	UserID        int64     `json:"user_id"`        // Uploader
	Views         int64     `json:"views"`          // Only ever incremented by the store
	CreatedAt     time.Time `json:"created_at"`

	// Joined from users
	Username string `json:"username"`
}

// Comment represents a top-level comment on a video
// This struct maps to the 'comments' table in the database
type Comment struct {
	ID        int64     `json:"comment_id"`
	VideoID   int64     `json:"video_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Joined from users
	Username string `json:"username"`

	// Populated by the content service, oldest first
	Replies []Reply `json:"replies,omitempty"`
}

// Reply represents an answer to a comment, optionally mentioning a user
// This struct maps to the 'replies' table in the database
type Reply struct {
	ID              int64         `json:"reply_id"`
	CommentID       int64         `json:"comment_id"`
	UserID          int64         `json:"user_id"`
	Content         string        `json:"content"`
	MentionedUserID sql.NullInt64 `json:"mentioned_user_id"` // Resolved once at creation
	CreatedAt       time.Time     `json:"created_at"`

	// Joined from users
	Username          string `json:"username"`
	MentionedUsername string `json:"mentioned_username,omitempty"`
}

// AdminComment is a comment listed on the moderation dashboard
type AdminComment struct {
	Comment
	VideoTitle string `json:"video_title"`
}

// ActivityEntry is one row of the audit trail
// This struct maps to the 'activity_log' table in the database
type ActivityEntry struct {
	ID         int64         `json:"log_id"`
	UserID     sql.NullInt64 `json:"user_id"`
	Action     string        `json:"action"`      // e.g. "video.upload"
	EntityType string        `json:"entity_type"` // user, video, comment, reply
	EntityID   sql.NullInt64 `json:"entity_id"`
	Details    string        `json:"details"` // JSON object
	CreatedAt  time.Time     `json:"created_at"`

	// Joined from users, empty for system or deleted actors
	Username string `json:"username"`
}

// VideoStats is the per-video aggregate (get_video_stats)
type VideoStats struct {
	VideoID        int64     `json:"video_id"`
	Title          string    `json:"title"`
	Username       string    `json:"username"`
	Views          int64     `json:"views"`
	CommentCount   int64     `json:"comment_count"`
	ReplyCount     int64     `json:"reply_count"`
	EngagementRate float64   `json:"engagement_rate"` // (comments+replies)/views*100
	CreatedAt      time.Time `json:"created_at"`
}

// UserActivity is the per-user profile aggregate (get_user_activity)
type UserActivity struct {
	UserID           int64     `json:"user_id"`
	Username         string    `json:"username"`
	IsAdmin          bool      `json:"is_admin"`
	JoinedAt         time.Time `json:"joined_at"`
	TotalVideos      int64     `json:"total_videos"`
	TotalViews       int64     `json:"total_views"`
	TotalComments    int64     `json:"total_comments"`
	TotalReplies     int64     `json:"total_replies"`
	MentionsReceived int64     `json:"mentions_received"`
}

// UserVideo is a video listed on a profile page
type UserVideo struct {
	Video
	CommentCount int64 `json:"comment_count"`
}

// TrendingEntry is a video ranked on the trending page
type TrendingEntry struct {
	VideoID       int64     `json:"video_id"`
	Title         string    `json:"title"`
	ThumbnailPath string    `json:"thumbnail_path"`
	Views         int64     `json:"views"`
	Username      string    `json:"username"`
	CommentCount  int64     `json:"comment_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// LeaderboardEntry is a row of the user_leaderboard view
type LeaderboardEntry struct {
	UserID          int64  `json:"user_id"`
	Username        string `json:"username"`
	VideoCount      int64  `json:"video_count"`
	TotalViews      int64  `json:"total_views"`
	CommentCount    int64  `json:"comment_count"`
	ReplyCount      int64  `json:"reply_count"`
	EngagementScore int64  `json:"engagement_score"`
}
