// Package databasetest opens throwaway SQLite stores for tests
package databasetest

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vidstream/internal/config"
	"vidstream/internal/database"
)

// Clock is a settable time source shared by a store and the services under test
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock fixed at t
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// New opens a migrated store in a temporary directory, closed when the test ends
func New(t testing.TB, opts ...database.Option) *database.Store {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "test.db"),
		QueryTimeout: 5 * time.Second,
	}
	store, err := database.Open(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// CreateUser inserts a user whose password is "password123"
func CreateUser(t testing.TB, store *database.Store, username string) int64 {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	id, err := store.CreateUser(context.Background(), username, username+"@example.com", string(hash))
	require.NoError(t, err)
	return id
}

// CreateVideo inserts a video owned by userID
func CreateVideo(t testing.TB, store *database.Store, userID int64, title string) *database.Video {
	t.Helper()

	v := &database.Video{
		Title:         title,
		ThumbnailPath: "20240101_000000_" + title + ".png",
		UserID:        userID,
	}
	require.NoError(t, store.CreateVideo(context.Background(), v))
	return v
}
