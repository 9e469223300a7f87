package database_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidstream/internal/apperr"
	"vidstream/internal/database"
	"vidstream/internal/database/databasetest"
)

func TestCreateUserDuplicateIsConflict(t *testing.T) {
	store := databasetest.New(t)
	ctx := context.Background()

	_, err := store.CreateUser(ctx, "alice", "alice@example.com", "hash")
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, "alice", "other@example.com", "hash")
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)

	_, err = store.CreateUser(ctx, "alice2", "alice@example.com", "hash")
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)

	exists, err := store.UserExists(ctx, "nobody", "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetUserByUsernameNotFound(t *testing.T) {
	store := databasetest.New(t)

	_, err := store.GetUserByUsername(context.Background(), "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, ok, err := store.FindUserID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetAdmin(t *testing.T) {
	store := databasetest.New(t)
	ctx := context.Background()
	databasetest.CreateUser(t, store, "root")

	found, err := store.SetAdmin(ctx, "root", true)
	require.NoError(t, err)
	assert.True(t, found)

	u, err := store.GetUserByUsername(ctx, "root")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	found, err = store.SetAdmin(ctx, "ghost", true)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSessionLifecycle(t *testing.T) {
	clock := databasetest.NewClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	store := databasetest.New(t, database.WithClock(clock.Now))
	ctx := context.Background()
	uid := databasetest.CreateUser(t, store, "alice")

	require.NoError(t, store.CreateSession(ctx, uid, "tok-live", clock.Now().Add(time.Hour)))
	require.NoError(t, store.CreateSession(ctx, uid, "tok-old", clock.Now().Add(-time.Minute)))

	su, err := store.GetSessionUser(ctx, "tok-live")
	require.NoError(t, err)
	assert.Equal(t, uid, su.UserID)
	assert.Equal(t, "alice", su.Username)

	_, err = store.GetSessionUser(ctx, "tok-old")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	n, err := store.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.DeleteSession(ctx, "tok-live"))
	require.NoError(t, store.DeleteSession(ctx, "tok-live"))
	_, err = store.GetSessionUser(ctx, "tok-live")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestIncrementViewsConcurrent(t *testing.T) {
	store := databasetest.New(t)
	ctx := context.Background()
	uid := databasetest.CreateUser(t, store, "alice")
	v := databasetest.CreateVideo(t, store, uid, "clip")

	const viewers = 25
	var wg sync.WaitGroup
	for i := 0; i < viewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.IncrementViews(ctx, v.ID))
		}()
	}
	wg.Wait()

	got, err := store.GetVideo(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(viewers), got.Views)

	err = store.IncrementViews(ctx, v.ID+100)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteVideoCascades(t *testing.T) {
	store := databasetest.New(t)
	ctx := context.Background()
	uid := databasetest.CreateUser(t, store, "alice")
	v := databasetest.CreateVideo(t, store, uid, "clip")

	c := &database.Comment{VideoID: v.ID, UserID: uid, Content: "nice"}
	require.NoError(t, store.CreateComment(ctx, c))
	require.NoError(t, store.CreateReply(ctx, &database.Reply{CommentID: c.ID, UserID: uid, Content: "thanks"}))

	path, err := store.DeleteVideo(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ThumbnailPath, path)

	_, err = store.GetComment(ctx, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	n, err := store.CountReplies(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = store.DeleteVideo(ctx, v.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateCommentMissingVideo(t *testing.T) {
	store := databasetest.New(t)
	uid := databasetest.CreateUser(t, store, "alice")

	err := store.CreateComment(context.Background(), &database.Comment{VideoID: 999, UserID: uid, Content: "hi"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
}

func TestRepliesOrderAndMention(t *testing.T) {
	clock := databasetest.NewClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	store := databasetest.New(t, database.WithClock(clock.Now))
	ctx := context.Background()
	alice := databasetest.CreateUser(t, store, "alice")
	bob := databasetest.CreateUser(t, store, "bob")
	v := databasetest.CreateVideo(t, store, alice, "clip")

	c := &database.Comment{VideoID: v.ID, UserID: alice, Content: "first"}
	require.NoError(t, store.CreateComment(ctx, c))

	clock.Advance(time.Second)
	require.NoError(t, store.CreateReply(ctx, &database.Reply{
		CommentID: c.ID, UserID: alice, Content: "@bob look",
		MentionedUserID: sql.NullInt64{Int64: bob, Valid: true},
	}))
	clock.Advance(time.Second)
	require.NoError(t, store.CreateReply(ctx, &database.Reply{CommentID: c.ID, UserID: bob, Content: "seen"}))

	replies, err := store.ListRepliesForVideo(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "@bob look", replies[0].Content)
	assert.Equal(t, "bob", replies[0].MentionedUsername)
	assert.False(t, replies[1].MentionedUserID.Valid)
	assert.Empty(t, replies[1].MentionedUsername)
}

func TestListVideosNewestFirst(t *testing.T) {
	clock := databasetest.NewClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	store := databasetest.New(t, database.WithClock(clock.Now))
	ctx := context.Background()
	uid := databasetest.CreateUser(t, store, "alice")

	for _, title := range []string{"a", "b", "c"} {
		databasetest.CreateVideo(t, store, uid, title)
		clock.Advance(time.Minute)
	}

	videos, err := store.ListVideos(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, videos, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{videos[0].Title, videos[1].Title, videos[2].Title})
	assert.Equal(t, "alice", videos[0].Username)

	page, err := store.ListVideos(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].Title)

	n, err := store.CountVideos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestActivityLog(t *testing.T) {
	store := databasetest.New(t)
	ctx := context.Background()
	uid := databasetest.CreateUser(t, store, "alice")

	require.NoError(t, store.LogActivity(ctx, &database.ActivityEntry{
		UserID:     sql.NullInt64{Int64: uid, Valid: true},
		Action:     "user.login",
		EntityType: "user",
		EntityID:   sql.NullInt64{Int64: uid, Valid: true},
		Details:    `{"ip":"127.0.0.1"}`,
	}))
	require.NoError(t, store.LogActivity(ctx, &database.ActivityEntry{Action: "system.boot", EntityType: "system"}))

	entries, err := store.ListActivity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "system.boot", entries[0].Action)
	assert.Empty(t, entries[0].Username)
	assert.Equal(t, "alice", entries[1].Username)
	assert.JSONEq(t, `{"ip":"127.0.0.1"}`, entries[1].Details)
}

func TestClosedStoreIsStorageUnavailable(t *testing.T) {
	store := databasetest.New(t)
	require.NoError(t, store.Close())

	_, err := store.ListVideos(context.Background(), 0, 0)
	assert.True(t, apperr.Is(err, apperr.KindStorageUnavailable))
	assert.Equal(t, "Database connection error", apperr.Message(err, ""))
}
