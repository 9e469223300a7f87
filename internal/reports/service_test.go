package reports_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidstream/internal/apperr"
	"vidstream/internal/config"
	"vidstream/internal/database"
	"vidstream/internal/database/databasetest"
	"vidstream/internal/reports"
)

var start = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*reports.Service, *database.Store, *databasetest.Clock) {
	t.Helper()
	clock := databasetest.NewClock(start)
	store := databasetest.New(t, database.WithClock(clock.Now))
	return reports.NewService(store, config.Default().Pages, clock.Now), store, clock
}

func view(t *testing.T, store *database.Store, videoID int64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, store.IncrementViews(context.Background(), videoID))
	}
}

func comment(t *testing.T, store *database.Store, videoID, userID int64) *database.Comment {
	t.Helper()
	c := &database.Comment{VideoID: videoID, UserID: userID, Content: "c"}
	require.NoError(t, store.CreateComment(context.Background(), c))
	return c
}

func nullInt(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: true}
}

func TestTrendingWindowAndOrder(t *testing.T) {
	svc, store, clock := setup(t)
	ctx := context.Background()
	uid := databasetest.CreateUser(t, store, "alice")

	old := databasetest.CreateVideo(t, store, uid, "old")
	view(t, store, old.ID, 100)

	clock.Advance(10 * 24 * time.Hour)
	quiet := databasetest.CreateVideo(t, store, uid, "quiet")
	busy := databasetest.CreateVideo(t, store, uid, "busy")
	top := databasetest.CreateVideo(t, store, uid, "top")
	view(t, store, quiet.ID, 5)
	view(t, store, busy.ID, 5)
	view(t, store, top.ID, 9)
	comment(t, store, busy.ID, uid)
	comment(t, store, busy.ID, uid)

	clock.Advance(25 * 24 * time.Hour)

	entries, err := svc.GetTrending(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3, "video older than 30 days is excluded")
	assert.Equal(t, "top", entries[0].Title)
	assert.Equal(t, "busy", entries[1].Title, "equal views ordered by comment count")
	assert.Equal(t, int64(2), entries[1].CommentCount)
	assert.Equal(t, "quiet", entries[2].Title)

	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].Views, entries[i].Views)
	}

	capped, err := svc.GetTrending(ctx, 30, 1)
	require.NoError(t, err)
	require.Len(t, capped, 1)

	wide, err := svc.GetTrending(ctx, 60, 10)
	require.NoError(t, err)
	assert.Equal(t, "old", wide[0].Title)
}

func TestVideoStats(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	uid := databasetest.CreateUser(t, store, "alice")
	v := databasetest.CreateVideo(t, store, uid, "clip")

	st, err := svc.GetVideoStats(ctx, v.ID)
	require.NoError(t, err)
	assert.Zero(t, st.EngagementRate, "no views means zero rate")

	view(t, store, v.ID, 8)
	c := comment(t, store, v.ID, uid)
	require.NoError(t, store.CreateReply(ctx, &database.Reply{CommentID: c.ID, UserID: uid, Content: "r"}))

	st, err = svc.GetVideoStats(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), st.Views)
	assert.Equal(t, int64(1), st.CommentCount)
	assert.Equal(t, int64(1), st.ReplyCount)
	assert.Equal(t, 25.0, st.EngagementRate)
	assert.Equal(t, "alice", st.Username)

	_, err = svc.GetVideoStats(ctx, 999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestEngagementRate(t *testing.T) {
	assert.Equal(t, 0.0, reports.EngagementRate(3, 1, 0))
	assert.Equal(t, 33.33, reports.EngagementRate(1, 0, 3))
	assert.Equal(t, 200.0, reports.EngagementRate(1, 1, 1))
}

func TestUserActivity(t *testing.T) {
	svc, store, clock := setup(t)
	ctx := context.Background()
	alice := databasetest.CreateUser(t, store, "alice")
	bob := databasetest.CreateUser(t, store, "bob")

	v1 := databasetest.CreateVideo(t, store, alice, "one")
	clock.Advance(time.Hour)
	v2 := databasetest.CreateVideo(t, store, alice, "two")
	view(t, store, v1.ID, 3)
	view(t, store, v2.ID, 4)
	c := comment(t, store, v1.ID, bob)
	comment(t, store, v1.ID, alice)
	require.NoError(t, store.CreateReply(ctx, &database.Reply{CommentID: c.ID, UserID: bob, Content: "@alice hi",
		MentionedUserID: nullInt(alice)}))

	profile, err := svc.GetUserActivity(ctx, "alice")
	require.NoError(t, err)
	a := profile.Activity
	assert.Equal(t, int64(2), a.TotalVideos)
	assert.Equal(t, int64(7), a.TotalViews)
	assert.Equal(t, int64(1), a.TotalComments)
	assert.Equal(t, int64(0), a.TotalReplies)
	assert.Equal(t, int64(1), a.MentionsReceived)
	assert.True(t, start.Equal(a.JoinedAt), "joined at %v", a.JoinedAt)

	require.Len(t, profile.Videos, 2)
	assert.Equal(t, "two", profile.Videos[0].Title)
	assert.Equal(t, int64(2), profile.Videos[1].CommentCount)

	_, err = svc.GetUserActivity(ctx, "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "User not found.", apperr.Message(err, ""))
}

func TestLeaderboard(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	alice := databasetest.CreateUser(t, store, "alice")
	bob := databasetest.CreateUser(t, store, "bob")
	databasetest.CreateUser(t, store, "carol")

	v := databasetest.CreateVideo(t, store, alice, "clip")
	view(t, store, v.ID, 2)
	c := comment(t, store, v.ID, bob)
	require.NoError(t, store.CreateReply(ctx, &database.Reply{CommentID: c.ID, UserID: bob, Content: "r"}))

	board, err := svc.GetLeaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 3)

	// alice: 2 views + 10*1 video = 12; bob: 5*1 comment + 3*1 reply = 8; carol: 0
	assert.Equal(t, "alice", board[0].Username)
	assert.Equal(t, int64(12), board[0].EngagementScore)
	assert.Equal(t, "bob", board[1].Username)
	assert.Equal(t, int64(8), board[1].EngagementScore)
	assert.Equal(t, int64(0), board[2].EngagementScore)
}

func TestListVideosPage(t *testing.T) {
	clock := databasetest.NewClock(start)
	store := databasetest.New(t, database.WithClock(clock.Now))
	pages := config.Default().Pages
	pages.VideosPerPage = 2
	svc := reports.NewService(store, pages, clock.Now)
	uid := databasetest.CreateUser(t, store, "alice")
	for _, title := range []string{"a", "b", "c"} {
		databasetest.CreateVideo(t, store, uid, title)
		clock.Advance(time.Second)
	}

	p1, err := svc.ListVideosPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, p1.TotalPages)
	assert.True(t, p1.HasNext())
	assert.False(t, p1.HasPrev())
	require.Len(t, p1.Videos, 2)
	assert.Equal(t, "c", p1.Videos[0].Title)

	p9, err := svc.ListVideosPage(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 2, p9.Page)
	require.Len(t, p9.Videos, 1)
	assert.Equal(t, "a", p9.Videos[0].Title)
}

func TestAdminDashboardAndActivityLog(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	uid := databasetest.CreateUser(t, store, "alice")
	v := databasetest.CreateVideo(t, store, uid, "clip")
	comment(t, store, v.ID, uid)
	require.NoError(t, store.LogActivity(ctx, &database.ActivityEntry{Action: "video.upload", EntityType: "video"}))

	dash, err := svc.AdminDashboard(ctx)
	require.NoError(t, err)
	require.Len(t, dash.Videos, 1)
	require.Len(t, dash.Comments, 1)
	assert.Equal(t, "clip", dash.Comments[0].VideoTitle)

	log, err := svc.GetActivityLog(ctx, 0)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "video.upload", log[0].Action)
}
