// Package config loads VidStream settings from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config is the complete application configuration
type Config struct {
	Environment string         `koanf:"environment"`
	Server      ServerConfig   `koanf:"server"`
	Security    SecurityConfig `koanf:"security"`
	Database    DatabaseConfig `koanf:"database"`
	Uploads     UploadsConfig  `koanf:"uploads"`
	Site        SiteConfig     `koanf:"site"`
	Pages       PagesConfig    `koanf:"pages"`
	Logging     LoggingConfig  `koanf:"logging"`
	Admin       AdminConfig    `koanf:"admin"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port for http.Server
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SecurityConfig holds session and cookie settings
type SecurityConfig struct {
	SecretKey       string        `koanf:"secret_key"`
	SessionTTL      time.Duration `koanf:"session_ttl"`
	CookieSecure    bool          `koanf:"cookie_secure"`
	LoginRateLimit  int           `koanf:"login_rate_limit"`
	LoginRateWindow time.Duration `koanf:"login_rate_window"`
}

// DatabaseConfig selects the store driver and its connection parameters
type DatabaseConfig struct {
	Driver       string        `koanf:"driver"` // sqlite3 or mysql
	Path         string        `koanf:"path"`   // sqlite3 only
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	User         string        `koanf:"user"`
	Password     string        `koanf:"password"`
	Name         string        `koanf:"name"`
	MaxOpenConns int           `koanf:"max_open_conns"`
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// DSN returns the driver-specific data source name
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverMySQL {
		mc := mysql.NewConfig()
		mc.User = d.User
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
		mc.DBName = d.Name
		mc.ParseTime = true
		mc.Loc = time.UTC
		return mc.FormatDSN()
	}
	// Foreign keys are per-connection in SQLite, so they go in the DSN
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", d.Path)
}

// UploadsConfig describes where thumbnails are stored and what is accepted
type UploadsConfig struct {
	Backend           string   `koanf:"backend"` // local or s3
	Dir               string   `koanf:"dir"`
	MaxBytes          int64    `koanf:"max_bytes"`
	AllowedExtensions []string `koanf:"allowed_extensions"`
	S3                S3Config `koanf:"s3"`
}

// S3Config configures an S3-compatible bucket for thumbnails
type S3Config struct {
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	PublicURL string `koanf:"public_url"` // base URL thumbnails are served from
}

// SiteConfig holds presentation settings
type SiteConfig struct {
	Name string `koanf:"name"`
}

// PagesConfig holds page sizes and report windows
type PagesConfig struct {
	VideosPerPage      int `koanf:"videos_per_page"`
	CommentsPerPage    int `koanf:"comments_per_page"` // 0 shows every comment
	TrendingWindowDays int `koanf:"trending_window_days"`
	TrendingLimit      int `koanf:"trending_limit"`
	LeaderboardLimit   int `koanf:"leaderboard_limit"`
	ActivityLogLimit   int `koanf:"activity_log_limit"`
}

// LoggingConfig mirrors logging.Config
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// AdminConfig lists accounts promoted to administrator at startup
type AdminConfig struct {
	Usernames []string `koanf:"usernames"`
}

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"

	BackendLocal = "local"
	BackendS3    = "s3"
)

// defaultConfig returns the values used when neither file nor env set a key
func defaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			SecretKey:       "",
			SessionTTL:      24 * time.Hour,
			CookieSecure:    false,
			LoginRateLimit:  10,
			LoginRateWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Driver:       DriverSQLite,
			Path:         "vidstream.db",
			Host:         "localhost",
			Port:         3306,
			User:         "flaskuser",
			Name:         "youtube_app",
			MaxOpenConns: 10,
			QueryTimeout: 5 * time.Second,
		},
		Uploads: UploadsConfig{
			Backend:           BackendLocal,
			Dir:               "static/uploads",
			MaxBytes:          16 * 1024 * 1024,
			AllowedExtensions: []string{"png", "jpg", "jpeg", "gif", "webp"},
		},
		Site: SiteConfig{Name: "VidStream"},
		Pages: PagesConfig{
			VideosPerPage:      20,
			CommentsPerPage:    0,
			TrendingWindowDays: 30,
			TrendingLimit:      20,
			LeaderboardLimit:   50,
			ActivityLogLimit:   100,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Default returns a copy of the built-in defaults
func Default() *Config {
	return defaultConfig()
}

// IsProduction reports whether the process runs with production checks
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port))
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite3"))
		}
	case DriverMySQL:
		if c.Database.Host == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("database.host and database.name are required for mysql"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}

	switch c.Uploads.Backend {
	case BackendLocal:
		if c.Uploads.Dir == "" {
			errs = append(errs, errors.New("uploads.dir is required for the local backend"))
		}
	case BackendS3:
		if c.Uploads.S3.Bucket == "" || c.Uploads.S3.Region == "" {
			errs = append(errs, errors.New("uploads.s3.bucket and uploads.s3.region are required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("uploads.backend %q is not supported", c.Uploads.Backend))
	}

	if c.Uploads.MaxBytes <= 0 {
		errs = append(errs, errors.New("uploads.max_bytes must be positive"))
	}
	if len(c.Uploads.AllowedExtensions) == 0 {
		errs = append(errs, errors.New("uploads.allowed_extensions must not be empty"))
	}

	p := c.Pages
	if p.VideosPerPage <= 0 || p.TrendingWindowDays <= 0 ||
		p.TrendingLimit <= 0 || p.LeaderboardLimit <= 0 || p.ActivityLogLimit <= 0 {
		errs = append(errs, errors.New("pages.* values must be positive"))
	}
	if p.CommentsPerPage < 0 {
		errs = append(errs, errors.New("pages.comments_per_page must not be negative"))
	}

	if c.Security.SessionTTL <= 0 {
		errs = append(errs, errors.New("security.session_ttl must be positive"))
	}
	if c.IsProduction() && len(c.Security.SecretKey) < 32 {
		errs = append(errs, errors.New("security.secret_key must be at least 32 characters in production"))
	}

	return errors.Join(errs...)
}
