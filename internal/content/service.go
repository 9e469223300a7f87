// Package content implements the write side of VidStream: uploads, views,
// comments, replies and moderation deletes.
package content

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"vidstream/internal/activity"
	"vidstream/internal/apperr"
	"vidstream/internal/auth"
	"vidstream/internal/database"
	"vidstream/internal/logging"
	"vidstream/internal/metrics"
	"vidstream/internal/uploads"
	"vidstream/internal/validation"
)

// Store is the persistence the content service needs
type Store interface {
	CreateVideo(ctx context.Context, v *database.Video) error
	GetVideo(ctx context.Context, id int64) (*database.Video, error)
	IncrementViews(ctx context.Context, id int64) error
	DeleteVideo(ctx context.Context, id int64) (string, error)
	CreateComment(ctx context.Context, c *database.Comment) error
	ListComments(ctx context.Context, videoID int64, limit int) ([]database.Comment, error)
	ListRepliesForVideo(ctx context.Context, videoID int64) ([]database.Reply, error)
	CreateReply(ctx context.Context, r *database.Reply) error
	DeleteComment(ctx context.Context, id int64) (bool, error)
	FindUserID(ctx context.Context, username string) (int64, bool, error)
}

// UploadInput is the upload form. Body is nil when no file part was sent.
type UploadInput struct {
	Title       string
	Description string
	Filename    string
	Body        io.Reader
	Size        int64
	ContentType string
}

type uploadForm struct {
	Title    string `validate:"required"`
	HasFile  bool   `validate:"required"`
	Filename string `validate:"required"`
}

var uploadRules = []validation.Rule{
	{Tag: "required", Field: "Title", Message: "Title is required."},
	{Tag: "required", Field: "HasFile", Message: "No file uploaded."},
	{Tag: "required", Field: "Filename", Message: "No file selected."},
}

// VideoPage is a video with its comment thread
type VideoPage struct {
	Video    *database.Video
	Comments []database.Comment
}

// Service implements the content operations
type Service struct {
	store         Store
	blobs         uploads.Storage
	policy        *uploads.Policy
	activity      *activity.Recorder
	commentsLimit int
	clock         func() time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithClock replaces the wall clock used to name uploads
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithCommentsLimit caps the comments shown on a video page; 0 shows all
func WithCommentsLimit(n int) Option {
	return func(s *Service) { s.commentsLimit = n }
}

// NewService creates a content service
func NewService(store Store, blobs uploads.Storage, policy *uploads.Policy, recorder *activity.Recorder, opts ...Option) *Service {
	s := &Service{
		store:    store,
		blobs:    blobs,
		policy:   policy,
		activity: recorder,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadVideo stores the thumbnail and creates the video row
func (s *Service) UploadVideo(ctx context.Context, id *auth.Identity, in UploadInput) (*database.Video, error) {
	if id == nil {
		return nil, apperr.Auth("Please log in to access this page.")
	}

	form := uploadForm{
		Title:    strings.TrimSpace(in.Title),
		HasFile:  in.Body != nil,
		Filename: in.Filename,
	}
	if err := validation.Struct(&form, uploadRules...); err != nil {
		return nil, err
	}
	if !s.policy.Allowed(in.Filename) {
		metrics.RecordUpload(s.blobs.Name(), "rejected")
		return nil, apperr.UnsupportedMedia("Invalid file type. Please upload an image file.")
	}

	key := uploads.StorageName(in.Filename, s.clock())
	if err := s.blobs.Save(ctx, key, in.Body, in.Size, in.ContentType); err != nil {
		metrics.RecordUpload(s.blobs.Name(), "error")
		return nil, apperr.IO("Could not save the uploaded file.", err)
	}

	video := &database.Video{
		Title:         form.Title,
		Description:   in.Description,
		ThumbnailPath: key,
		UserID:        id.UserID,
		Username:      id.Username,
	}
	if err := s.store.CreateVideo(ctx, video); err != nil {
		metrics.RecordUpload(s.blobs.Name(), "error")
		if rmErr := s.blobs.Remove(ctx, key); rmErr != nil {
			logging.Ctx(ctx).Warn().Err(rmErr).Str("key", key).Msg("failed to remove orphaned thumbnail")
		}
		return nil, fmt.Errorf("creating video: %w", err)
	}

	metrics.RecordUpload(s.blobs.Name(), "ok")
	s.activity.Record(ctx, id.UserID, activity.VideoUpload, activity.EntityVideo, video.ID,
		map[string]any{"title": video.Title, "thumbnail": key})
	logging.Ctx(ctx).Info().Int64("video_id", video.ID).Str("thumbnail", key).Msg("video uploaded")
	return video, nil
}

// ViewVideo counts a view and returns the video with its comments (newest
// first), each carrying its replies (oldest first)
func (s *Service) ViewVideo(ctx context.Context, videoID int64) (*VideoPage, error) {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, videoNotFound(err)
	}

	if err := s.store.IncrementViews(ctx, videoID); err != nil {
		return nil, videoNotFound(err)
	}
	video.Views++
	metrics.VideoViewsTotal.Inc()

	comments, err := s.store.ListComments(ctx, videoID, s.commentsLimit)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	replies, err := s.store.ListRepliesForVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("listing replies: %w", err)
	}

	byComment := make(map[int64][]database.Reply, len(comments))
	for _, r := range replies {
		byComment[r.CommentID] = append(byComment[r.CommentID], r)
	}
	for i := range comments {
		comments[i].Replies = byComment[comments[i].ID]
	}

	return &VideoPage{Video: video, Comments: comments}, nil
}

// AddComment posts a top-level comment on a video
func (s *Service) AddComment(ctx context.Context, id *auth.Identity, videoID int64, text string) (*database.Comment, error) {
	if id == nil {
		return nil, apperr.Auth("Please log in to access this page.")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("Comment cannot be empty.")
	}

	c := &database.Comment{VideoID: videoID, UserID: id.UserID, Content: text, Username: id.Username}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, videoNotFound(err)
	}

	metrics.CommentsTotal.WithLabelValues("comment").Inc()
	s.activity.Record(ctx, id.UserID, activity.CommentCreate, activity.EntityComment, c.ID,
		map[string]any{"video_id": videoID})
	return c, nil
}

// AddReply answers a comment. The first @mention is resolved to a user id
// once, here; unknown names are stored as no mention. videoID is only used
// for the activity entry and the caller's redirect.
func (s *Service) AddReply(ctx context.Context, id *auth.Identity, commentID, videoID int64, text string) (*database.Reply, error) {
	if id == nil {
		return nil, apperr.Auth("Please log in to access this page.")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("Reply cannot be empty.")
	}

	r := &database.Reply{CommentID: commentID, UserID: id.UserID, Content: text, Username: id.Username}
	if name, ok := ParseMention(text); ok {
		uid, found, err := s.store.FindUserID(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolving mention: %w", err)
		}
		if found {
			r.MentionedUserID = sql.NullInt64{Int64: uid, Valid: true}
			r.MentionedUsername = name
			metrics.MentionsResolved.Inc()
		}
	}

	if err := s.store.CreateReply(ctx, r); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "Comment not found.", err)
		}
		return nil, fmt.Errorf("creating reply: %w", err)
	}

	metrics.CommentsTotal.WithLabelValues("reply").Inc()
	details := map[string]any{"comment_id": commentID, "video_id": videoID}
	if r.MentionedUserID.Valid {
		details["mentioned_user_id"] = r.MentionedUserID.Int64
	}
	s.activity.Record(ctx, id.UserID, activity.ReplyCreate, activity.EntityReply, r.ID, details)
	return r, nil
}

// DeleteVideo removes a video and its thread, then its thumbnail.
// Thumbnail removal is best-effort and never fails the delete.
func (s *Service) DeleteVideo(ctx context.Context, actor *auth.Identity, videoID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	key, err := s.store.DeleteVideo(ctx, videoID)
	if err != nil {
		return videoNotFound(err)
	}

	if err := s.blobs.Remove(ctx, key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Int64("video_id", videoID).
			Msg("video deleted but thumbnail removal failed")
	}

	s.activity.Record(ctx, actor.UserID, activity.VideoDelete, activity.EntityVideo, videoID,
		map[string]any{"thumbnail": key})
	logging.Ctx(ctx).Info().Int64("video_id", videoID).Str("admin", actor.Username).Msg("🗑️  Video deleted")
	return nil
}

// DeleteComment removes a comment and its replies; an unknown id is a no-op
func (s *Service) DeleteComment(ctx context.Context, actor *auth.Identity, commentID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	deleted, err := s.store.DeleteComment(ctx, commentID)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	if deleted {
		s.activity.Record(ctx, actor.UserID, activity.CommentDelete, activity.EntityComment, commentID, nil)
	}
	return nil
}

func requireAdmin(actor *auth.Identity) error {
	if actor == nil {
		return apperr.Auth("Please log in to access this page.")
	}
	if !actor.IsAdmin {
		return apperr.Authorization("Admin privileges required.")
	}
	return nil
}

func videoNotFound(err error) error {
	if apperr.Is(err, apperr.KindNotFound) {
		return apperr.Wrap(apperr.KindNotFound, "Video not found.", err)
	}
	return err
}
