package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vidstream/config.yaml",
}

// envMappings maps environment variable names (lower-cased) to config paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"environment": "environment",

	"server_host":             "server.host",
	"port":                    "server.port",
	"server_read_timeout":     "server.read_timeout",
	"server_write_timeout":    "server.write_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",

	"secret_key":        "security.secret_key",
	"session_ttl":       "security.session_ttl",
	"cookie_secure":     "security.cookie_secure",
	"login_rate_limit":  "security.login_rate_limit",
	"login_rate_window": "security.login_rate_window",

	"db_driver":         "database.driver",
	"db_path":           "database.path",
	"db_host":           "database.host",
	"db_port":           "database.port",
	"db_user":           "database.user",
	"db_password":       "database.password",
	"db_name":           "database.name",
	"db_max_open_conns": "database.max_open_conns",
	"db_query_timeout":  "database.query_timeout",

	"uploads_backend":    "uploads.backend",
	"upload_folder":      "uploads.dir",
	"max_content_length": "uploads.max_bytes",
	"allowed_extensions": "uploads.allowed_extensions",
	"s3_bucket":          "uploads.s3.bucket",
	"s3_region":          "uploads.s3.region",
	"s3_endpoint":        "uploads.s3.endpoint",
	"s3_access_key":      "uploads.s3.access_key",
	"s3_secret_key":      "uploads.s3.secret_key",
	"s3_public_url":      "uploads.s3.public_url",

	"site_name":            "site.name",
	"videos_per_page":      "pages.videos_per_page",
	"comments_per_page":    "pages.comments_per_page",
	"trending_window_days": "pages.trending_window_days",
	"trending_limit":       "pages.trending_limit",
	"leaderboard_limit":    "pages.leaderboard_limit",
	"activity_log_limit":   "pages.activity_log_limit",

	"log_level":  "logging.level",
	"log_format": "logging.format",

	"admin_usernames": "admin.usernames",
}

// sliceConfigPaths are split on commas when they arrive as a single string
var sliceConfigPaths = []string{
	"uploads.allowed_extensions",
	"admin.usernames",
}

// Load builds the configuration: defaults, then the config file (if any),
// then environment variables.
func Load() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom is Load with an explicit config file path; "" skips the file layer
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	for i, ext := range cfg.Uploads.AllowedExtensions {
		cfg.Uploads.AllowedExtensions[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0)
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
