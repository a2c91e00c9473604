package notionpub

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Revalidation bounds for NOTION_SYNC_INTERVAL_SECONDS.
const (
	MinRevalidateInterval     = 5 * time.Minute
	DefaultRevalidateInterval = 15 * time.Minute
	MaxRevalidateInterval     = 6 * time.Hour
)

// SiteConfig holds all configuration for a notionpub site.
type SiteConfig struct {
	Name        string   `yaml:"name"`        // Site name (default "Blog")
	URL         string   `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string   `yaml:"description"` // Site description for RSS and meta tags
	Author      string   `yaml:"author"`      // Author name for JSON-LD
	Language    string   `yaml:"language"`    // RSS channel language (default "en")
	ExtraRoutes []string `yaml:"routes"`      // Additional static paths listed in the sitemap
	APIOrigins  []string `yaml:"api_origins"` // Origins allowed to read /api cross-site; empty disables CORS

	Addr string `yaml:"-"` // Listen address (default ":3000")

	NotionSourceID  string        `yaml:"-"` // Database id, page id, or share URL
	NotionToken     string        `yaml:"-"` // Integration token
	NotionAPIURL    string        `yaml:"-"` // default https://api.notion.com
	NotionTimeout   time.Duration `yaml:"-"` // Per backend call (default 10s)
	NotionRate      float64       `yaml:"-"` // Backend requests per second (default 3)
	Concurrency     int           `yaml:"-"` // Pages flattened at once (default 1)
	FallbackPosts   bool          `yaml:"-"` // Show a placeholder post when the source is unavailable
	RevalidateEvery time.Duration `yaml:"-"` // Post cache TTL (default 15min)

	SyncLogPath string `yaml:"-"` // SQLite journal path (default "data/sync.db")
	SyncLogKeep int    `yaml:"-"` // Journal rows kept (default 500)

	AdminPassword string `yaml:"-"` // Enables the sync dashboard when set
	SessionSecret string `yaml:"-"` // Required with AdminPassword
	CookieSecure  bool   `yaml:"-"` // Set true for HTTPS

	Log LogConfig `yaml:"-"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.NotionTimeout <= 0 {
		c.NotionTimeout = 10 * time.Second
	}
	if c.NotionRate == 0 {
		c.NotionRate = 3
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.RevalidateEvery == 0 {
		c.RevalidateEvery = DefaultRevalidateInterval
	}
	if c.SyncLogPath == "" {
		c.SyncLogPath = "data/sync.db"
	}
	if c.SyncLogKeep <= 0 {
		c.SyncLogKeep = 500
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// AdminEnabled reports whether the sync dashboard is served.
func (c SiteConfig) AdminEnabled() bool {
	return c.AdminPassword != ""
}

// LoadConfig reads .env (when present), the environment, and the optional
// YAML site file named by SITE_CONFIG. Environment values win over the file.
func LoadConfig() (SiteConfig, error) {
	_ = godotenv.Load(".env")

	var cfg SiteConfig
	if path := os.Getenv("SITE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("notionpub: read site config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("notionpub: parse site config %s: %w", path, err)
		}
	}

	cfg.Name = EnvOr("SITE_NAME", cfg.Name)
	cfg.URL = EnvOr("SITE_URL", cfg.URL)
	cfg.Description = EnvOr("SITE_DESCRIPTION", cfg.Description)
	cfg.Author = EnvOr("SITE_AUTHOR", cfg.Author)
	cfg.Language = EnvOr("SITE_LANGUAGE", cfg.Language)
	cfg.Addr = EnvOr("ADDR", "")
	if v := os.Getenv("API_CORS_ORIGINS"); v != "" {
		cfg.APIOrigins = splitList(v)
	}

	cfg.NotionSourceID = os.Getenv("NOTION_PAGE_ID")
	cfg.NotionToken = os.Getenv("NOTION_TOKEN")
	cfg.NotionAPIURL = os.Getenv("NOTION_API_URL")
	cfg.RevalidateEvery = ParseRevalidateInterval(os.Getenv("NOTION_SYNC_INTERVAL_SECONDS"))

	var err error
	if cfg.NotionTimeout, err = envDuration("NOTION_TIMEOUT"); err != nil {
		return cfg, err
	}
	if cfg.Concurrency, err = envInt("NOTION_CONCURRENCY"); err != nil {
		return cfg, err
	}
	if v := os.Getenv("NOTION_RATE_LIMIT"); v != "" {
		if cfg.NotionRate, err = strconv.ParseFloat(v, 64); err != nil {
			return cfg, fmt.Errorf("notionpub: NOTION_RATE_LIMIT: %w", err)
		}
	}
	cfg.FallbackPosts = envBool("NOTION_FALLBACK_POSTS")

	cfg.SyncLogPath = os.Getenv("SYNC_LOG_PATH")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	cfg.CookieSecure = envBool("COOKIE_SECURE")

	cfg.Log = LogConfig{
		Level: os.Getenv("LOG_LEVEL"),
		File:  os.Getenv("LOG_FILE"),
		Dev:   strings.EqualFold(os.Getenv("LOG_MODE"), "dev"),
	}

	cfg.setDefaults()
	return cfg, nil
}

// Validate reports fatal problems as an error and recoverable ones as
// warnings. A missing Notion source is only a warning: the site still runs
// and renders its empty state.
func (c SiteConfig) Validate() ([]string, error) {
	var warns []string
	var errs []error

	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("SITE_URL %q is not an absolute URL", c.URL))
	}
	if strings.TrimSpace(c.NotionSourceID) == "" {
		warns = append(warns, "NOTION_PAGE_ID is not set; the site will show no posts")
	}
	if strings.TrimSpace(c.NotionToken) == "" {
		warns = append(warns, "NOTION_TOKEN is not set; the Notion source cannot be read")
	}
	if c.AdminEnabled() && c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required when ADMIN_PASSWORD is set"))
	}
	if c.AdminEnabled() && len(c.SessionSecret) < 32 && c.SessionSecret != "" {
		warns = append(warns, "SESSION_SECRET is shorter than 32 bytes")
	}
	if c.AdminEnabled() && !c.CookieSecure && u != nil && u.Scheme == "https" {
		warns = append(warns, "COOKIE_SECURE is off for an https site")
	}
	if c.Concurrency > 8 {
		warns = append(warns, "NOTION_CONCURRENCY above 8 is likely to hit Notion's rate limit")
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	return warns, errors.Join(errs...)
}

// ParseRevalidateInterval turns NOTION_SYNC_INTERVAL_SECONDS into a cache
// interval. Empty, non-numeric or infinite input yields the default;
// numbers are floored to whole seconds and clamped to [5m, 6h]. A blank
// but non-empty value counts as zero.
func ParseRevalidateInterval(raw string) time.Duration {
	if raw == "" {
		return DefaultRevalidateInterval
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return MinRevalidateInterval
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultRevalidateInterval
	}
	v = math.Floor(v)
	switch {
	case v < MinRevalidateInterval.Seconds():
		return MinRevalidateInterval
	case v > MaxRevalidateInterval.Seconds():
		return MaxRevalidateInterval
	}
	return time.Duration(v) * time.Second
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func envInt(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("notionpub: %s: %w", key, err)
	}
	return n, nil
}

// envDuration accepts Go durations ("15s") or plain seconds ("15").
func envDuration(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("notionpub: %s: %w", key, err)
	}
	return d, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger replaces the logger built from SiteConfig.Log.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.Log = l
	}
}

// WithSource replaces the Notion-backed post source.
func WithSource(src PostSource) Option {
	return func(a *App) {
		a.source = src
	}
}
