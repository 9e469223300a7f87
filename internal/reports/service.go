// Package reports implements the read-only views: listings, per-video and
// per-user statistics, trending, the leaderboard and the audit log.
package reports

import (
	"context"
	"fmt"
	"time"

	"vidstream/internal/apperr"
	"vidstream/internal/config"
	"vidstream/internal/database"
)

// Store is the persistence the reports service needs
type Store interface {
	ListVideos(ctx context.Context, limit, offset int) ([]database.Video, error)
	CountVideos(ctx context.Context) (int, error)
	GetVideoStats(ctx context.Context, videoID int64) (*database.VideoStats, error)
	GetUserActivity(ctx context.Context, username string) (*database.UserActivity, error)
	ListVideosByUser(ctx context.Context, userID int64) ([]database.UserVideo, error)
	GetTrending(ctx context.Context, since time.Time, limit int) ([]database.TrendingEntry, error)
	GetLeaderboard(ctx context.Context, limit int) ([]database.LeaderboardEntry, error)
	ListActivity(ctx context.Context, limit int) ([]database.ActivityEntry, error)
	ListAllComments(ctx context.Context) ([]database.AdminComment, error)
}

// VideoListPage is one page of the home listing
type VideoListPage struct {
	Videos     []database.Video
	Page       int
	TotalPages int
}

// HasPrev reports whether a previous page exists
func (p *VideoListPage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists
func (p *VideoListPage) HasNext() bool { return p.Page < p.TotalPages }

// UserProfile is a user's aggregate plus their videos
type UserProfile struct {
	Activity *database.UserActivity
	Videos   []database.UserVideo
}

// Dashboard is the moderation overview
type Dashboard struct {
	Videos   []database.Video
	Comments []database.AdminComment
}

// Service implements the report operations
type Service struct {
	store Store
	pages config.PagesConfig
	clock func() time.Time
}

// NewService creates a reports service using the configured page sizes and windows
func NewService(store Store, pages config.PagesConfig, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, pages: pages, clock: clock}
}

// ListAllVideos returns every video, newest first
func (s *Service) ListAllVideos(ctx context.Context) ([]database.Video, error) {
	return s.store.ListVideos(ctx, 0, 0)
}

// ListVideosPage returns one page of videos, newest first; pages start at 1
func (s *Service) ListVideosPage(ctx context.Context, page int) (*VideoListPage, error) {
	per := s.pages.VideosPerPage
	total, err := s.store.CountVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting videos: %w", err)
	}

	totalPages := (total + per - 1) / per
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	videos, err := s.store.ListVideos(ctx, per, (page-1)*per)
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	return &VideoListPage{Videos: videos, Page: page, TotalPages: totalPages}, nil
}

// GetVideoStats returns the aggregate for one video, with the engagement
// rate (comments+replies per 100 views, 0 without views)
func (s *Service) GetVideoStats(ctx context.Context, videoID int64) (*database.VideoStats, error) {
	st, err := s.store.GetVideoStats(ctx, videoID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Wrap(apperr.KindNotFound, "Video not found.", err)
	}
	if err != nil {
		return nil, err
	}
	st.EngagementRate = EngagementRate(st.CommentCount, st.ReplyCount, st.Views)
	return st, nil
}

// EngagementRate is (comments+replies)/views*100 rounded to two places
func EngagementRate(comments, replies, views int64) float64 {
	if views <= 0 {
		return 0
	}
	rate := float64(comments+replies) / float64(views) * 100
	return float64(int64(rate*100+0.5)) / 100
}

// GetUserActivity returns a user's aggregate and videos
func (s *Service) GetUserActivity(ctx context.Context, username string) (*UserProfile, error) {
	ua, err := s.store.GetUserActivity(ctx, username)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Wrap(apperr.KindNotFound, "User not found.", err)
	}
	if err != nil {
		return nil, err
	}

	videos, err := s.store.ListVideosByUser(ctx, ua.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing user videos: %w", err)
	}
	return &UserProfile{Activity: ua, Videos: videos}, nil
}

// GetTrending ranks videos from the last windowDays days; non-positive
// arguments fall back to the configured defaults
func (s *Service) GetTrending(ctx context.Context, windowDays, limit int) ([]database.TrendingEntry, error) {
	if windowDays <= 0 {
		windowDays = s.pages.TrendingWindowDays
	}
	if limit <= 0 {
		limit = s.pages.TrendingLimit
	}
	since := s.clock().AddDate(0, 0, -windowDays)
	return s.store.GetTrending(ctx, since, limit)
}

// GetLeaderboard returns users ranked by engagement score
func (s *Service) GetLeaderboard(ctx context.Context, limit int) ([]database.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = s.pages.LeaderboardLimit
	}
	return s.store.GetLeaderboard(ctx, limit)
}

// GetActivityLog returns the newest audit entries
func (s *Service) GetActivityLog(ctx context.Context, limit int) ([]database.ActivityEntry, error) {
	if limit <= 0 {
		limit = s.pages.ActivityLogLimit
	}
	return s.store.ListActivity(ctx, limit)
}

// AdminDashboard lists every video and every comment, newest first
func (s *Service) AdminDashboard(ctx context.Context) (*Dashboard, error) {
	videos, err := s.store.ListVideos(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	comments, err := s.store.ListAllComments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return &Dashboard{Videos: videos, Comments: comments}, nil
}
