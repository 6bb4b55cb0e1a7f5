package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentx-labs/promptreg/internal/branding"
	"github.com/agentx-labs/promptreg/internal/platform"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Auth types understood by the credential resolver.
const (
	AuthNone    = "none"
	AuthBearer  = "bearer"
	AuthBasic   = "basic"
	AuthEnv     = "env"
	AuthKeyring = "keyring"
)

// ErrCatalogExists is returned when adding a catalog id that is configured.
var ErrCatalogExists = errors.New("catalog already configured")

// AuthConfig selects how a catalog's requests are authenticated.
type AuthConfig struct {
	Type     string `mapstructure:"type" yaml:"type"`
	Token    string `mapstructure:"token" yaml:"token,omitempty"`
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	// EnvVar names the variable holding the token for the env type.
	EnvVar string `mapstructure:"envVar" yaml:"envVar,omitempty"`
}

// CatalogConfig is one configured catalog source.
type CatalogConfig struct {
	ID      string      `mapstructure:"id" yaml:"id"`
	URL     string      `mapstructure:"url" yaml:"url"`
	Enabled bool        `mapstructure:"enabled" yaml:"enabled"`
	Auth    *AuthConfig `mapstructure:"auth" yaml:"auth,omitempty"`
}

// RefreshConfig controls automatic catalog refreshes.
type RefreshConfig struct {
	OnStartup bool `mapstructure:"onStartup" yaml:"onStartup"`
	// Interval is a Go duration string; zero disables the periodic sweep.
	Interval string `mapstructure:"interval" yaml:"interval,omitempty"`
}

// IntervalDuration parses Interval. An empty value means zero.
func (r RefreshConfig) IntervalDuration() (time.Duration, error) {
	if r.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid refresh.interval %q: %w", r.Interval, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid refresh.interval %q: must not be negative", r.Interval)
	}
	return d, nil
}

// Config is the full configuration file.
type Config struct {
	InstallRoot string          `mapstructure:"installRoot" yaml:"installRoot,omitempty"`
	DataDir     string          `mapstructure:"dataDir" yaml:"dataDir,omitempty"`
	LogLevel    string          `mapstructure:"logLevel" yaml:"logLevel,omitempty"`
	Refresh     RefreshConfig   `mapstructure:"refresh" yaml:"refresh"`
	Catalogs    []CatalogConfig `mapstructure:"catalogs" yaml:"catalogs"`
}

// Dir returns the config directory. PROMPTREG_CONFIG_DIR overrides the
// default ~/.promptreg.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("CONFIG_DIR")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the config file path inside dir.
func FilePath(dir string) string {
	return filepath.Join(dir, fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// newViper returns a Viper instance wired to the config file in dir and to
// PROMPTREG_* environment variables.
func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(FilePath(dir))
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults make scalar keys visible to AutomaticEnv during Unmarshal.
	v.SetDefault("installRoot", "")
	v.SetDefault("dataDir", "")
	v.SetDefault("logLevel", "warn")
	v.SetDefault("refresh.onStartup", false)
	v.SetDefault("refresh.interval", "")
	return v
}

// Load reads the config file in dir. A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	v := newViper(dir)
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(FilePath(dir)); !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}
	if cfg.Catalogs == nil {
		cfg.Catalogs = []CatalogConfig{}
	}
	if _, err := cfg.Refresh.IntervalDuration(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to the config file in dir. The file may hold credentials,
// so it is readable by the owner only.
func Save(dir string, cfg *Config) error {
	if err := EnsureDir(dir); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	path := FilePath(dir)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return platform.Chmod(path, 0o600)
}

// Catalog returns the configured catalog with the given id.
func (c *Config) Catalog(id string) (*CatalogConfig, bool) {
	for i := range c.Catalogs {
		if c.Catalogs[i].ID == id {
			return &c.Catalogs[i], true
		}
	}
	return nil, false
}

// EnabledCatalogs returns the enabled catalogs in configuration order.
func (c *Config) EnabledCatalogs() []CatalogConfig {
	var out []CatalogConfig
	for _, cc := range c.Catalogs {
		if cc.Enabled {
			out = append(out, cc)
		}
	}
	return out
}

// AddCatalog appends a catalog, rejecting duplicate ids.
func (c *Config) AddCatalog(cc CatalogConfig) error {
	if _, ok := c.Catalog(cc.ID); ok {
		return fmt.Errorf("%w: %s", ErrCatalogExists, cc.ID)
	}
	c.Catalogs = append(c.Catalogs, cc)
	return nil
}

// RemoveCatalog drops a catalog and reports whether it was configured.
func (c *Config) RemoveCatalog(id string) bool {
	for i := range c.Catalogs {
		if c.Catalogs[i].ID == id {
			c.Catalogs = append(c.Catalogs[:i], c.Catalogs[i+1:]...)
			return true
		}
	}
	return false
}

// SetCatalogEnabled flips the enabled flag of a configured catalog.
func (c *Config) SetCatalogEnabled(id string, enabled bool) error {
	cc, ok := c.Catalog(id)
	if !ok {
		return fmt.Errorf("catalog %q is not configured", id)
	}
	cc.Enabled = enabled
	return nil
}
