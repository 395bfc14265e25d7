package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/pders01/newsdigest/internal/validation"
)

// SendKeyEnv is the environment variable holding the gateway credential.
// LegacySendKeyEnv is the name used by existing ServerChan deployments and is
// read as well.
const (
	SendKeyEnv       = "SENDKEY"
	LegacySendKeyEnv = "SERVER_CHAN_SENDKEY"
)

const envPrefix = "NEWSDIGEST"

type Config struct {
	Feed     FeedConfig     `mapstructure:"feed"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Digest   DigestConfig   `mapstructure:"digest"`
	Log      LogConfig      `mapstructure:"log"`
	History  HistoryConfig  `mapstructure:"history"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

type FeedConfig struct {
	URL            string        `mapstructure:"url"`
	Window         time.Duration `mapstructure:"window"`
	MaxEntries     int           `mapstructure:"max_entries"`
	TitleMaxLength int           `mapstructure:"title_max_length"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	// AssumeSorted stops the scan at the first entry older than the cutoff.
	AssumeSorted bool `mapstructure:"assume_sorted"`
	// AllowPrivateHosts permits loopback and private addresses in URL.
	AllowPrivateHosts bool `mapstructure:"allow_private_hosts"`
}

type GatewayConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	SendKey string        `mapstructure:"send_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	// AllowPrivateHosts permits a gateway on a loopback or private address.
	AllowPrivateHosts bool `mapstructure:"allow_private_hosts"`
}

type DigestConfig struct {
	TitleLabel string `mapstructure:"title_label"`
	DateLayout string `mapstructure:"date_layout"`
	Fallback   string `mapstructure:"fallback"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// HistoryConfig controls the optional run journal. An empty Path disables it.
type HistoryConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ScheduleConfig struct {
	Cron     string `mapstructure:"cron"`
	Timezone string `mapstructure:"timezone"`
}

func defaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			URL:            "https://news.ycombinator.com/rss",
			Window:         24 * time.Hour,
			MaxEntries:     0,
			TitleMaxLength: 100,
			HTTPTimeout:    30 * time.Second,
			UserAgent:      "newsdigest/1.0 (+https://github.com/pders01/newsdigest)",
			AssumeSorted:   true,
		},
		Gateway: GatewayConfig{
			BaseURL: "https://sctapi.ftqq.com",
			Timeout: 30 * time.Second,
		},
		Digest: DigestConfig{
			TitleLabel: "【每日科技资讯】",
			DateLayout: "2006-01-02",
			Fallback:   "今日暂无更新的科技资讯。",
		},
		Log: LogConfig{
			Level: "info",
		},
		History: HistoryConfig{
			Timeout: 1 * time.Second,
		},
		Schedule: ScheduleConfig{
			Cron:     "0 9 * * *",
			Timezone: "Local",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// DefaultPath returns ~/.config/newsdigest/config.toml.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "newsdigest", "config.toml")
}

func setDefaults(v *viper.Viper, cfg *Config) {
	for key, value := range flatten(cfg) {
		v.SetDefault(key, value)
	}
}

// flatten maps every leaf setting to its dotted viper key. Durations are kept
// as strings so the same map serves both defaults and TOML output.
func flatten(cfg *Config) map[string]any {
	return map[string]any{
		"feed.url":                    cfg.Feed.URL,
		"feed.window":                 cfg.Feed.Window.String(),
		"feed.max_entries":            cfg.Feed.MaxEntries,
		"feed.title_max_length":       cfg.Feed.TitleMaxLength,
		"feed.http_timeout":           cfg.Feed.HTTPTimeout.String(),
		"feed.user_agent":             cfg.Feed.UserAgent,
		"feed.assume_sorted":          cfg.Feed.AssumeSorted,
		"feed.allow_private_hosts":    cfg.Feed.AllowPrivateHosts,
		"gateway.base_url":            cfg.Gateway.BaseURL,
		"gateway.send_key":            cfg.Gateway.SendKey,
		"gateway.timeout":             cfg.Gateway.Timeout.String(),
		"gateway.allow_private_hosts": cfg.Gateway.AllowPrivateHosts,
		"digest.title_label":          cfg.Digest.TitleLabel,
		"digest.date_layout":          cfg.Digest.DateLayout,
		"digest.fallback":             cfg.Digest.Fallback,
		"log.level":                   cfg.Log.Level,
		"log.file":                    cfg.Log.File,
		"history.path":                cfg.History.Path,
		"history.timeout":             cfg.History.Timeout.String(),
		"schedule.cron":               cfg.Schedule.Cron,
		"schedule.timezone":           cfg.Schedule.Timezone,
	}
}

// nest turns dotted keys into section tables.
func nest(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range flat {
		section, name, _ := strings.Cut(key, ".")
		tbl, ok := out[section].(map[string]any)
		if !ok {
			tbl = make(map[string]any)
			out[section] = tbl
		}
		tbl[name] = value
	}
	return out
}

// Load reads configuration from configPath, or from the default locations
// when configPath is empty. Environment variables override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("gateway.send_key", SendKeyEnv, LegacySendKeyEnv, envPrefix+"_GATEWAY_SEND_KEY"); err != nil {
		return nil, fmt.Errorf("binding %s: %w", SendKeyEnv, err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func urlValidator(allowPrivate bool) *validation.URLValidator {
	if allowPrivate {
		return validation.NewPermissiveURLValidator()
	}
	return validation.NewURLValidator()
}

// Validate rejects settings the pipeline cannot run with and normalizes the
// feed and gateway URLs in place (a missing scheme becomes https). A missing
// send key is not an error here: it is reported by the sender so preview
// still works.
func (c *Config) Validate() error {
	var errs []error
	if normalized, err := urlValidator(c.Feed.AllowPrivateHosts).ValidateAndNormalize(c.Feed.URL); err != nil {
		errs = append(errs, fmt.Errorf("feed.url: %w", err))
	} else {
		c.Feed.URL = normalized
	}
	if c.Feed.Window <= 0 {
		errs = append(errs, fmt.Errorf("feed.window must be positive, got %s", c.Feed.Window))
	}
	if c.Feed.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("feed.max_entries must not be negative, got %d", c.Feed.MaxEntries))
	}
	if c.Feed.TitleMaxLength <= 0 {
		errs = append(errs, fmt.Errorf("feed.title_max_length must be positive, got %d", c.Feed.TitleMaxLength))
	}
	if c.Feed.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("feed.http_timeout must be positive, got %s", c.Feed.HTTPTimeout))
	}
	if normalized, err := urlValidator(c.Gateway.AllowPrivateHosts).ValidateAndNormalize(c.Gateway.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("gateway.base_url: %w", err))
	} else {
		c.Gateway.BaseURL = normalized
	}
	if c.Gateway.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("gateway.timeout must be positive, got %s", c.Gateway.Timeout))
	}
	if c.Digest.DateLayout == "" {
		errs = append(errs, errors.New("digest.date_layout must be set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.Gateway.SendKey != "" {
		cp.Gateway.SendKey = "<redacted>"
	}
	return &cp
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.History.Path = expandPath(cfg.History.Path)
	cfg.Log.File = expandPath(cfg.Log.File)
}

// Marshal renders cfg as TOML.
func Marshal(cfg *Config) ([]byte, error) {
	return toml.Marshal(nest(flatten(cfg)))
}

// Save writes cfg as TOML. The send key is never written to disk.
func Save(config *Config, path string) error {
	v := viper.New()

	flat := flatten(config)
	delete(flat, "gateway.send_key")
	for section, values := range nest(flat) {
		v.Set(section, values)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
