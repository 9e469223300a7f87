package content_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vidstream/internal/activity"
	"vidstream/internal/apperr"
	"vidstream/internal/auth"
	"vidstream/internal/config"
	"vidstream/internal/content"
	"vidstream/internal/database"
	"vidstream/internal/database/databasetest"
	"vidstream/internal/reports"
	"vidstream/internal/uploads"
)

type fixture struct {
	store   *database.Store
	blobs   *uploads.Memory
	clock   *databasetest.Clock
	content *content.Service
	auth    *auth.Service
	reports *reports.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := databasetest.NewClock(time.Date(2024, 6, 1, 9, 30, 15, 0, time.UTC))
	store := databasetest.New(t, database.WithClock(clock.Now))
	recorder := activity.NewRecorder(store)
	blobs := uploads.NewMemory()
	cfg := config.Default()

	return &fixture{
		store: store,
		blobs: blobs,
		clock: clock,
		content: content.NewService(store, blobs, uploads.NewPolicy(cfg.Uploads.AllowedExtensions), recorder,
			content.WithClock(clock.Now), content.WithCommentsLimit(cfg.Pages.CommentsPerPage)),
		auth: auth.NewService(store, recorder, cfg.Security.SessionTTL,
			auth.WithBcryptCost(bcrypt.MinCost), auth.WithClock(clock.Now)),
		reports: reports.NewService(store, cfg.Pages, clock.Now),
	}
}

func (f *fixture) user(t *testing.T, name string) *auth.Identity {
	t.Helper()
	uid := databasetest.CreateUser(t, f.store, name)
	return &auth.Identity{UserID: uid, Username: name}
}

func pngUpload(title string) content.UploadInput {
	return content.UploadInput{
		Title:       title,
		Filename:    "photo.png",
		Body:        strings.NewReader("fake-png"),
		Size:        8,
		ContentType: "image/png",
	}
}

func TestRegisterUploadViewScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, auth.RegisterInput{
		Username: "bob", Email: "bob@x.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	session, err := f.auth.Login(ctx, "bob", "secret1")
	require.NoError(t, err)

	video, err := f.content.UploadVideo(ctx, &session.Identity, pngUpload("Cats"))
	require.NoError(t, err)

	all, err := f.reports.ListAllVideos(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Cats", all[0].Title)
	assert.Equal(t, "bob", all[0].Username)
	assert.Equal(t, int64(0), all[0].Views)

	page, err := f.content.ViewVideo(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Video.Views)

	assert.Regexp(t, `^20240601_093015_[0-9a-f]{8}_photo\.png$`, video.ThumbnailPath)
	_, ok := f.blobs.Get(video.ThumbnailPath)
	assert.True(t, ok)
}

func TestUploadValidation(t *testing.T) {
	f := newFixture(t)
	bob := f.user(t, "bob")

	tests := []struct {
		name string
		in   content.UploadInput
		kind apperr.Kind
		msg  string
	}{
		{"no title", content.UploadInput{Title: " ", Filename: "a.png", Body: strings.NewReader("x")}, apperr.KindValidation, "Title is required."},
		{"no file", content.UploadInput{Title: "t"}, apperr.KindValidation, "No file uploaded."},
		{"empty filename", content.UploadInput{Title: "t", Body: strings.NewReader("x")}, apperr.KindValidation, "No file selected."},
		{"bad extension", content.UploadInput{Title: "t", Filename: "run.exe", Body: strings.NewReader("x")}, apperr.KindUnsupportedMedia, "Invalid file type. Please upload an image file."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.content.UploadVideo(context.Background(), bob, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Equal(t, tt.msg, apperr.Message(err, ""))
		})
	}
	assert.Equal(t, 0, f.blobs.Len())

	_, err := f.content.UploadVideo(context.Background(), nil, pngUpload("x"))
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestUploadBlobFailureIsIO(t *testing.T) {
	f := newFixture(t)
	bob := f.user(t, "bob")
	f.blobs.SaveErr = errors.New("disk full")

	_, err := f.content.UploadVideo(context.Background(), bob, pngUpload("Cats"))
	assert.True(t, apperr.Is(err, apperr.KindIO))

	n, err := f.store.CountVideos(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestViewVideoNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.content.ViewVideo(context.Background(), 42)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Video not found.", apperr.Message(err, ""))
}

func TestConcurrentViewsAreAllCounted(t *testing.T) {
	f := newFixture(t)
	bob := f.user(t, "bob")
	video, err := f.content.UploadVideo(context.Background(), bob, pngUpload("Cats"))
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.content.ViewVideo(context.Background(), video.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.store.GetVideo(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.Views)
}

func TestCommentsAndRepliesThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob")
	alice := f.user(t, "alice")
	video, err := f.content.UploadVideo(ctx, bob, pngUpload("Cats"))
	require.NoError(t, err)

	first, err := f.content.AddComment(ctx, alice, video.ID, "first!")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.content.AddComment(ctx, bob, video.ID, "second")
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	mention, err := f.content.AddReply(ctx, bob, first.ID, video.ID, "great clip @alice")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	plain, err := f.content.AddReply(ctx, alice, first.ID, video.ID, "hi @nobody and @bob")
	require.NoError(t, err)

	assert.True(t, mention.MentionedUserID.Valid)
	assert.Equal(t, alice.UserID, mention.MentionedUserID.Int64)
	assert.False(t, plain.MentionedUserID.Valid, "only the first mention is considered")

	page, err := f.content.ViewVideo(ctx, video.ID)
	require.NoError(t, err)
	require.Len(t, page.Comments, 2)
	assert.Equal(t, second.ID, page.Comments[0].ID, "newest comment first")
	assert.Empty(t, page.Comments[0].Replies)
	require.Len(t, page.Comments[1].Replies, 2)
	assert.Equal(t, mention.ID, page.Comments[1].Replies[0].ID, "oldest reply first")
	assert.Equal(t, "alice", page.Comments[1].Replies[0].MentionedUsername)
}

func TestViewVideoShowsEveryComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob")
	video, err := f.content.UploadVideo(ctx, bob, pngUpload("Cats"))
	require.NoError(t, err)

	const n = 60
	for i := 0; i < n; i++ {
		_, err := f.content.AddComment(ctx, bob, video.ID, fmt.Sprintf("comment %d", i))
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	page, err := f.content.ViewVideo(ctx, video.ID)
	require.NoError(t, err)
	require.Len(t, page.Comments, n)
	assert.Equal(t, "comment 59", page.Comments[0].Content)
	assert.Equal(t, "comment 0", page.Comments[n-1].Content)

	capped := content.NewService(f.store, f.blobs, uploads.NewPolicy(config.Default().Uploads.AllowedExtensions),
		activity.NewRecorder(f.store), content.WithCommentsLimit(10))
	page, err = capped.ViewVideo(ctx, video.ID)
	require.NoError(t, err)
	assert.Len(t, page.Comments, 10)
}

func TestCommentValidationAndMissingTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob")

	_, err := f.content.AddComment(ctx, bob, 1, "   ")
	assert.Equal(t, "Comment cannot be empty.", apperr.Message(err, ""))

	_, err = f.content.AddComment(ctx, bob, 999, "hello")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Video not found.", apperr.Message(err, ""))

	_, err = f.content.AddReply(ctx, bob, 1, 1, "")
	assert.Equal(t, "Reply cannot be empty.", apperr.Message(err, ""))

	_, err = f.content.AddReply(ctx, bob, 999, 1, "hello")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob")
	video, err := f.content.UploadVideo(ctx, bob, pngUpload("Cats"))
	require.NoError(t, err)

	err = f.content.DeleteVideo(ctx, bob, video.ID)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	assert.Equal(t, "Admin privileges required.", apperr.Message(err, ""))

	_, err = f.store.GetVideo(ctx, video.ID)
	assert.NoError(t, err, "row must survive a denied delete")
}

func TestAdminDeletesVideoAndThumbnail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob")
	admin := f.user(t, "root")
	admin.IsAdmin = true

	video, err := f.content.UploadVideo(ctx, bob, pngUpload("Cats"))
	require.NoError(t, err)
	c, err := f.content.AddComment(ctx, bob, video.ID, "hello")
	require.NoError(t, err)

	require.NoError(t, f.content.DeleteVideo(ctx, admin, video.ID))
	assert.Equal(t, 0, f.blobs.Len())
	_, err = f.store.GetComment(ctx, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = f.content.DeleteVideo(ctx, admin, video.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteVideoIgnoresBlobFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob")
	admin := &auth.Identity{UserID: f.user(t, "root").UserID, Username: "root", IsAdmin: true}

	video, err := f.content.UploadVideo(ctx, bob, pngUpload("Cats"))
	require.NoError(t, err)
	f.blobs.RemoveErr = errors.New("permission denied")

	require.NoError(t, f.content.DeleteVideo(ctx, admin, video.ID))
	_, err = f.store.GetVideo(ctx, video.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteCommentCascadesAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob")
	admin := &auth.Identity{UserID: f.user(t, "root").UserID, Username: "root", IsAdmin: true}

	video, err := f.content.UploadVideo(ctx, bob, pngUpload("Cats"))
	require.NoError(t, err)
	c, err := f.content.AddComment(ctx, bob, video.ID, "hello")
	require.NoError(t, err)
	_, err = f.content.AddReply(ctx, bob, c.ID, video.ID, "again")
	require.NoError(t, err)

	require.NoError(t, f.content.DeleteComment(ctx, admin, c.ID))
	n, err := f.store.CountReplies(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, f.content.DeleteComment(ctx, admin, c.ID))
	assert.True(t, apperr.Is(f.content.DeleteComment(ctx, bob, c.ID), apperr.KindAuthorization))
}

func TestParseMention(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"great clip @alice", "alice", true},
		{"@bob_99 and @carol", "bob_99", true},
		{"mail me at x@", "", false},
		{"no mention", "", false},
		{"hey @josé!", "josé", true},
	}
	for _, tt := range tests {
		got, ok := content.ParseMention(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}
