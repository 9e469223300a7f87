package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vidstream/internal/activity"
	"vidstream/internal/apperr"
	"vidstream/internal/auth"
	"vidstream/internal/database"
	"vidstream/internal/database/databasetest"
)

func newService(t *testing.T) (*auth.Service, *database.Store, *databasetest.Clock) {
	t.Helper()
	clock := databasetest.NewClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	store := databasetest.New(t, database.WithClock(clock.Now))
	svc := auth.NewService(store, activity.NewRecorder(store), 24*time.Hour,
		auth.WithBcryptCost(bcrypt.MinCost), auth.WithClock(clock.Now))
	return svc, store, clock
}

func validInput(username string) auth.RegisterInput {
	return auth.RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newService(t)

	tests := []struct {
		name   string
		mutate func(*auth.RegisterInput)
		want   string
	}{
		{"missing username", func(in *auth.RegisterInput) { in.Username = "  " }, "All fields are required."},
		{"missing email", func(in *auth.RegisterInput) { in.Email = "" }, "All fields are required."},
		{"missing password", func(in *auth.RegisterInput) { in.Password, in.ConfirmPassword = "", "" }, "All fields are required."},
		{"mismatch", func(in *auth.RegisterInput) { in.ConfirmPassword = "secret2" }, "Passwords do not match."},
		{"short", func(in *auth.RegisterInput) { in.Password, in.ConfirmPassword = "abc", "abc" }, "Password must be at least 6 characters."},
		{"long", func(in *auth.RegisterInput) {
			in.Password = strings.Repeat("p", 80)
			in.ConfirmPassword = in.Password
		}, "Password must be at most 72 bytes."},
		{"long multibyte", func(in *auth.RegisterInput) {
			in.Password = strings.Repeat("é", 40)
			in.ConfirmPassword = in.Password
		}, "Password must be at most 72 bytes."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput("alice")
			tt.mutate(&in)
			_, err := svc.Register(context.Background(), in)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Equal(t, tt.want, apperr.Message(err, ""))
		})
	}
}

func TestRegisterAcceptsBoundaryInput(t *testing.T) {
	svc, _, _ := newService(t)

	in := validInput("bob")
	in.Email = "bob@x"
	in.Password = strings.Repeat("p", 72)
	in.ConfirmPassword = in.Password
	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "bob", in.Password)
	require.NoError(t, err)
}

func TestRegisterConflict(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput("alice"))
	require.NoError(t, err)

	dup := validInput("alice")
	dup.Email = "fresh@example.com"
	_, err = svc.Register(ctx, dup)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, "Username or email already exists.", apperr.Message(err, ""))

	entries, err := store.ListActivity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, activity.UserRegister, entries[0].Action)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	uid, err := svc.Register(ctx, validInput("alice"))
	require.NoError(t, err)

	session, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Len(t, session.Token, 64)
	assert.Equal(t, uid, session.Identity.UserID)
	assert.False(t, session.Identity.IsAdmin)

	id, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)

	svc.Logout(ctx, session.Token)
	_, err = svc.Authenticate(ctx, session.Token)
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestLoginFailures(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, validInput("alice"))
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong-pass")
	assert.True(t, apperr.Is(err, apperr.KindAuth))
	assert.Equal(t, "Invalid username or password.", apperr.Message(err, ""))

	_, err = svc.Login(ctx, "nobody", "secret1")
	assert.True(t, apperr.Is(err, apperr.KindAuth))
	assert.Equal(t, "Invalid username or password.", apperr.Message(err, ""))

	_, err = svc.Login(ctx, "", "secret1")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSessionExpiry(t *testing.T) {
	svc, _, clock := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, validInput("alice"))
	require.NoError(t, err)

	session, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	clock.Advance(25 * time.Hour)
	_, err = svc.Authenticate(ctx, session.Token)
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	n, err := svc.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPromoteAdminsReflectedImmediately(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, validInput("alice"))
	require.NoError(t, err)

	session, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.PromoteAdmins(ctx, []string{"alice", "ghost"}))

	id, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin)
}

func TestIdentityContext(t *testing.T) {
	_, ok := auth.IdentityFrom(context.Background())
	assert.False(t, ok)

	ctx := auth.WithIdentity(context.Background(), &auth.Identity{UserID: 1, Username: "a"})
	id, ok := auth.IdentityFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "a", id.Username)
}
