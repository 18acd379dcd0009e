// Package config loads the server's settings from the environment.
//
// Values come from process environment variables, optionally seeded from a
// .env file (github.com/joho/godotenv). Variables already present in the
// environment win over the file, so a deployment can override anything.
//
// Malformed values (a non-numeric PORT, an unparsable duration or date) are
// startup errors. Missing mail credentials are NOT: the server boots without
// them and the contact endpoint reports a configuration error at send time.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DateLayout is the layout used for start-date settings.
const DateLayout = "2006-01-02"

// Config holds every setting the server needs.
type Config struct {
	Port      int
	LogLevel  slog.Level
	LogFormat string // "text" or "json"
	DBPath    string
	StaticDir string
	// CORSOrigins lists the origins allowed to call the API from a browser.
	CORSOrigins []string

	Mail   MailConfig
	GitHub GitHubConfig
	Resume ResumeConfig
	Admin  AdminConfig
}

// MailConfig configures the outbound SMTP transport.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Timeout  time.Duration
}

// GitHubConfig configures the stats source and poller.
type GitHubConfig struct {
	Username string
	Token    string
	APIURL   string
	Interval time.Duration
}

// ResumeConfig holds the fixed start dates tenure is measured from.
type ResumeConfig struct {
	ExperienceStart  time.Time
	CurrentRoleStart time.Time
}

// AdminConfig enables the operator endpoints. Both fields must be set for
// the admin routes to be registered.
type AdminConfig struct {
	JWTSecret    string
	PasswordHash string
	// SecureCookie marks the session cookie Secure. Turn it off only when
	// developing over plain HTTP.
	SecureCookie bool
}

// Enabled reports whether admin login can work with this configuration.
func (a AdminConfig) Enabled() bool {
	return a.JWTSecret != "" && a.PasswordHash != ""
}

// Load reads envFile (if it exists) and then the environment.
// An empty envFile skips the file entirely.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary lookup function. Tests pass
// a map-backed lookup instead of mutating the process environment.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}

	cfg := Config{
		Port:        r.integer("PORT", 8080),
		LogLevel:    r.level("LOG_LEVEL", slog.LevelInfo),
		LogFormat:   r.str("LOG_FORMAT", "text"),
		DBPath:      r.str("DB_PATH", "data/portfolio.db"),
		StaticDir:   r.str("STATIC_DIR", ""),
		CORSOrigins: r.list("CORS_ORIGINS", []string{"http://localhost:3000"}),
		Mail: MailConfig{
			Host:     r.str("SMTP_HOST", "smtp.gmail.com"),
			Port:     r.integer("SMTP_PORT", 587),
			Username: r.str("EMAIL_USER", ""),
			Password: r.str("EMAIL_PASSWORD", ""),
			From:     r.str("EMAIL_FROM", "admin@sudeeptasarkar.in"),
			Timeout:  r.duration("SMTP_TIMEOUT", 30*time.Second),
		},
		GitHub: GitHubConfig{
			Username: r.str("GITHUB_USERNAME", "sudsarkar13"),
			Token:    r.str("GITHUB_TOKEN", ""),
			APIURL:   strings.TrimRight(r.str("GITHUB_API_URL", "https://api.github.com"), "/"),
			Interval: r.duration("STATS_INTERVAL", 10*time.Second),
		},
		Resume: ResumeConfig{
			ExperienceStart:  r.date("EXPERIENCE_START", time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)),
			CurrentRoleStart: r.date("CURRENT_ROLE_START", time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)),
		},
		Admin: AdminConfig{
			JWTSecret:    r.str("JWT_SECRET", ""),
			PasswordHash: r.str("ADMIN_PASSWORD_HASH", ""),
			SecureCookie: r.boolean("ADMIN_COOKIE_SECURE", true),
		},
	}

	// The recipient defaults to the sending account, the way the contact
	// form has always delivered to its own inbox.
	cfg.Mail.To = r.str("EMAIL_TO", cfg.Mail.Username)

	if cfg.GitHub.Interval <= 0 {
		r.fail("STATS_INTERVAL", "must be positive")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		r.fail("LOG_FORMAT", `must be "text" or "json"`)
	}

	if len(r.errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(r.errs...))
	}
	return cfg, nil
}

// reader collects parse errors so Load can report all of them at once.
type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) fail(key, msg string) {
	r.errs = append(r.errs, fmt.Errorf("%s %s", key, msg))
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, fmt.Sprintf("is not an integer: %q", v))
		return def
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, fmt.Sprintf("is not a boolean: %q", v))
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, fmt.Sprintf("is not a duration: %q", v))
		return def
	}
	return d
}

func (r *reader) date(key string, def time.Time) time.Time {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		r.fail(key, fmt.Sprintf("is not a %s date: %q", DateLayout, v))
		return def
	}
	return t
}

func (r *reader) list(key string, def []string) []string {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r *reader) level(key string, def slog.Level) slog.Level {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		r.fail(key, fmt.Sprintf("is not a log level: %q", v))
		return def
	}
	return lvl
}
