package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCacheTTLSeconds is the cache TTL applied when neither config file,
// environment nor flags specify one. Zero disables caching.
const DefaultCacheTTLSeconds = 900

// ErrNoSource indicates that neither a file path nor any calendar URL was
// resolvable from flags, environment or config file.
var ErrNoSource = errors.New("no input source")

const appName = "icsread"

// Config is the top-level application configuration. Precedence is
// flags > environment > config file; ApplyEnv implements the middle layer.
type Config struct {
	// URLs is the list of calendar sources fetched in order. Each entry may
	// itself be a comma-separated list.
	URLs []string `yaml:"urls"`

	// CacheDir overrides the per-user cache directory.
	CacheDir string `yaml:"cache_dir"`

	// CacheTTLSeconds is the maximum age at which cached feed bodies are
	// served without revalidation. nil means DefaultCacheTTLSeconds; an
	// explicit 0 disables caching.
	CacheTTLSeconds *int `yaml:"cache_ttl_seconds"`

	// Format selects the output mode: "text" or "json".
	Format string `yaml:"format"`

	// RefreshCron is the cron schedule used by the watch command
	// (e.g. "*/15 * * * *").
	RefreshCron string `yaml:"refresh"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	ttl := DefaultCacheTTLSeconds
	return &Config{
		URLs:            []string{},
		CacheDir:        "",
		CacheTTLSeconds: &ttl,
		Format:          "text",
		RefreshCron:     "*/15 * * * *",
	}
}

// Normalize fills in missing/zero values so partially-filled configs still
// behave correctly.
func (c *Config) Normalize() {
	if c.URLs == nil {
		c.URLs = []string{}
	}
	if c.CacheTTLSeconds == nil {
		ttl := DefaultCacheTTLSeconds
		c.CacheTTLSeconds = &ttl
	} else if *c.CacheTTLSeconds < 0 {
		*c.CacheTTLSeconds = 0
	}
	switch c.Format {
	case "text", "json":
	default:
		c.Format = "text"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
}

// ApplyEnv overlays recognized environment variables:
//
//	ICS_URLS              comma-separated source URLs (ICS_URL is a
//	                      legacy single-URL fallback)
//	ICS_CACHE_DIR         cache directory override
//	ICS_CACHE_TTL_SECONDS TTL override; non-integer values are ignored
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ICS_URLS"); v != "" {
		c.URLs = SplitURLs(v)
	} else if v := os.Getenv("ICS_URL"); v != "" {
		c.URLs = SplitURLs(v)
	}
	if v := os.Getenv("ICS_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("ICS_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			if n < 0 {
				n = 0
			}
			c.CacheTTLSeconds = &n
		}
	}
}

// SplitURLs splits comma-separated URL values, trimming whitespace and
// dropping blanks.
func SplitURLs(values ...string) []string {
	urls := make([]string, 0, len(values))
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			if cleaned := strings.TrimSpace(item); cleaned != "" {
				urls = append(urls, cleaned)
			}
		}
	}
	return urls
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = ".config"
	}
	return filepath.Join(base, appName, "config.yaml")
}

// DefaultCacheDir returns the per-user cache directory.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = ".cache"
	}
	return filepath.Join(base, appName)
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (creating
// the parent directory) and returned. Otherwise the YAML is unmarshaled and
// normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory as needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".icsread-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
