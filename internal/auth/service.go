// Package auth registers accounts, checks credentials and manages the
// server-side sessions that identify a browser between requests.
package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"vidstream/internal/activity"
	"vidstream/internal/apperr"
	"vidstream/internal/database"
	"vidstream/internal/logging"
	"vidstream/internal/metrics"
	"vidstream/internal/validation"
)

// Store is the persistence the auth service needs
type Store interface {
	UserExists(ctx context.Context, username, email string) (bool, error)
	CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*database.User, error)
	SetAdmin(ctx context.Context, username string, isAdmin bool) (bool, error)
	CreateSession(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	GetSessionUser(ctx context.Context, token string) (*database.SessionUser, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// RegisterInput is the registration form
type RegisterInput struct {
	Username        string `validate:"required"`
	Email           string `validate:"required"`
	Password        string `validate:"required,min=6,maxbytes=72"`
	ConfirmPassword string `validate:"eqfield=Password"`
}

var registerRules = []validation.Rule{
	{Tag: "required", Message: "All fields are required."},
	{Tag: "eqfield", Message: "Passwords do not match."},
	{Tag: "min", Field: "Password", Message: "Password must be at least 6 characters."},
	{Tag: "maxbytes", Field: "Password", Message: "Password must be at most 72 bytes."},
}

type loginInput struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

var loginRules = []validation.Rule{
	{Tag: "required", Message: "Username and password are required."},
}

// Session is an issued login
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  Identity
}

// Service handles registration, login and session lookups
type Service struct {
	store    Store
	activity *activity.Recorder
	ttl      time.Duration
	cost     int
	clock    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// Option customizes a Service
type Option func(*Service)

// WithBcryptCost overrides bcrypt.DefaultCost
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithClock replaces the wall clock used for session expiry
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// NewService creates an auth service issuing sessions valid for ttl
func NewService(store Store, recorder *activity.Recorder, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		store:    store,
		activity: recorder,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and returns its id
func (s *Service) Register(ctx context.Context, in RegisterInput) (int64, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := validation.Struct(&in, registerRules...); err != nil {
		return 0, err
	}

	exists, err := s.store.UserExists(ctx, in.Username, in.Email)
	if err != nil {
		return 0, fmt.Errorf("checking existing users: %w", err)
	}
	if exists {
		return 0, apperr.Conflict("Username or email already exists.")
	}

	hash, err := HashPassword(in.Password, s.cost)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindUnknown, "Error processing password.", err)
	}

	userID, err := s.store.CreateUser(ctx, in.Username, in.Email, hash)
	if apperr.Is(err, apperr.KindConflict) {
		// Lost a race with a concurrent registration
		return 0, apperr.Wrap(apperr.KindConflict, "Username or email already exists.", err)
	}
	if err != nil {
		return 0, fmt.Errorf("creating user: %w", err)
	}

	metrics.RegistrationsTotal.Inc()
	s.activity.Record(ctx, userID, activity.UserRegister, activity.EntityUser, userID,
		map[string]any{"username": in.Username})
	logging.Ctx(ctx).Info().Int64("user_id", userID).Str("username", in.Username).Msg("user registered")
	return userID, nil
}

// Login checks credentials and issues a new session
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	in := loginInput{Username: strings.TrimSpace(username), Password: password}
	if err := validation.Struct(&in, loginRules...); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByUsername(ctx, in.Username)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if user == nil {
		// Spend the same bcrypt time as a real comparison
		_ = ComparePassword(s.dummy(), in.Password)
		metrics.RecordLogin(false)
		return nil, apperr.Auth("Invalid username or password.")
	}
	if err := ComparePassword(user.PasswordHash, in.Password); err != nil {
		metrics.RecordLogin(false)
		return nil, apperr.Wrap(apperr.KindAuth, "Invalid username or password.", err)
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}
	expiresAt := s.clock().Add(s.ttl)
	if err := s.store.CreateSession(ctx, user.ID, token, expiresAt); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	metrics.RecordLogin(true)
	s.activity.Record(ctx, user.ID, activity.UserLogin, activity.EntityUser, user.ID, nil)

	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		Identity:  Identity{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin},
	}, nil
}

// Logout ends a session; unknown tokens and store failures are only logged
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.store.DeleteSession(ctx, token); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to delete session")
	}
}

// Authenticate resolves a session token to the current identity.
// Unknown and expired tokens yield an Auth error.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, apperr.Auth("Please log in to access this page.")
	}
	su, err := s.store.GetSessionUser(ctx, token)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Wrap(apperr.KindAuth, "Please log in to access this page.", err)
	}
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: su.UserID, Username: su.Username, IsAdmin: su.IsAdmin}, nil
}

// CleanupExpiredSessions removes sessions past their expiry
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("cleaning up sessions: %w", err)
	}
	metrics.SessionsCleaned.Add(float64(n))
	if n > 0 {
		logging.Info().Int64("count", n).Msg("🧹 Removed expired sessions")
	}
	return n, nil
}

// PromoteAdmins grants administrator rights to the listed accounts.
// Unknown usernames are logged and skipped.
func (s *Service) PromoteAdmins(ctx context.Context, usernames []string) error {
	for _, name := range usernames {
		found, err := s.store.SetAdmin(ctx, name, true)
		if err != nil {
			return fmt.Errorf("promoting %s: %w", name, err)
		}
		if !found {
			logging.Warn().Str("username", name).Msg("admin promotion skipped: no such user")
			continue
		}
		logging.Info().Str("username", name).Msg("👑 Granted admin privileges")
	}
	return nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("vidstream-dummy-password"), s.cost)
		if err == nil {
			s.dummyHash = string(hash)
		}
	})
	return s.dummyHash
}
