// Package config loads statsnap configuration.
//
// Configuration is read from statsnap.toml (or statsnap.yaml / statsnap.yml)
// and then overridden from the environment:
//
//	GITHUB_TOKEN          github.token
//	GA4_PROPERTY_ID       analytics.property_id
//	GA_ACCESS_TOKEN       analytics.access_token
//	BLOG_PATH_PREFIX      analytics.blog_path_prefix
//	STATSNAP_DATA_DIR     store.dir
//	STATSNAP_STORE        store.backend
//	STATSNAP_REDIS_URL    store.redis_url
//	STATSNAP_MONGO_URI    store.mongo_uri
//
// A missing config file is not an error; defaults plus environment apply.
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/statsnap/pkg/errors"
	"github.com/matzehuels/statsnap/pkg/snapshot"
)

// DefaultFiles are searched in order when no config path is given.
var DefaultFiles = []string{"statsnap.toml", "statsnap.yaml", "statsnap.yml"}

// Default values.
const (
	DefaultDockerHubSnapshot = "dockerhub-stats"
	DefaultGitHubSnapshot    = "github-stats"
	DefaultAnalyticsSnapshot = "google-analytics-stats"
	DefaultBlogPathPrefix    = "/blog/"
	DefaultServeAddr         = ":8080"
)

// Duration is a time.Duration written as a string ("500ms", "5m").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ClientConfig tunes the HTTP client of one API. Zero values use the
// client's defaults.
type ClientConfig struct {
	BaseURL     string   `toml:"base_url" yaml:"base_url"`
	MinInterval Duration `toml:"min_interval" yaml:"min_interval"`
	MaxRetries  int      `toml:"max_retries" yaml:"max_retries"`
	CacheTTL    Duration `toml:"cache_ttl" yaml:"cache_ttl"`
}

// DockerHubConfig selects the Docker Hub repositories to track.
type DockerHubConfig struct {
	ClientConfig `toml:"client" yaml:"client"`

	Namespaces []string `toml:"namespaces" yaml:"namespaces"`
	Repos      []string `toml:"repos" yaml:"repos"`
	Snapshot   string   `toml:"snapshot" yaml:"snapshot"`
}

// GitHubConfig selects the GitHub repositories to track.
type GitHubConfig struct {
	ClientConfig `toml:"client" yaml:"client"`

	Token    string   `toml:"token" yaml:"token"`
	Owner    string   `toml:"owner" yaml:"owner"`
	Owners   []string `toml:"owners" yaml:"owners"`
	Repos    []string `toml:"repos" yaml:"repos"`
	Snapshot string   `toml:"snapshot" yaml:"snapshot"`
}

// AnalyticsConfig selects the GA4 property and blog pages to track.
type AnalyticsConfig struct {
	ClientConfig `toml:"client" yaml:"client"`

	PropertyID     string `toml:"property_id" yaml:"property_id"`
	AccessToken    string `toml:"access_token" yaml:"access_token"`
	BlogPathPrefix string `toml:"blog_path_prefix" yaml:"blog_path_prefix"`
	Days           int    `toml:"days" yaml:"days"`
	HistoryLimit   int    `toml:"history_limit" yaml:"history_limit"`
	Snapshot       string `toml:"snapshot" yaml:"snapshot"`
}

// StoreConfig selects where snapshots are kept.
type StoreConfig struct {
	Backend       string `toml:"backend" yaml:"backend"`
	Dir           string `toml:"dir" yaml:"dir"`
	RedisURL      string `toml:"redis_url" yaml:"redis_url"`
	MongoURI      string `toml:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database" yaml:"mongo_database"`
}

// Options converts the store section for [snapshot.Open].
func (s StoreConfig) Options() snapshot.Options {
	return snapshot.Options{
		Backend:       s.Backend,
		Dir:           s.Dir,
		RedisURL:      s.RedisURL,
		MongoURI:      s.MongoURI,
		MongoDatabase: s.MongoDatabase,
	}
}

// ServeConfig configures the read-only snapshot API.
type ServeConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// Config is the statsnap configuration file.
type Config struct {
	Store     StoreConfig     `toml:"store" yaml:"store"`
	DockerHub DockerHubConfig `toml:"dockerhub" yaml:"dockerhub"`
	GitHub    GitHubConfig    `toml:"github" yaml:"github"`
	Analytics AnalyticsConfig `toml:"analytics" yaml:"analytics"`
	Serve     ServeConfig     `toml:"serve" yaml:"serve"`

	// Path is the file the config was read from, if any.
	Path string `toml:"-" yaml:"-"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path, or the first of [DefaultFiles] that exists when path is
// empty, then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is [Load] with an explicit environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		for _, name := range DefaultFiles {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err) && explicit:
			return nil, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
		case err != nil:
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to read config")
		}
		if err := Parse(data, filepath.Ext(path), cfg); err != nil {
			return nil, err
		}
		cfg.Path = path
	}

	cfg.ApplyEnv(getenv)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data into cfg. ext selects the format: ".yaml" and ".yml"
// are YAML, anything else is TOML.
func Parse(data []byte, ext string, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to parse config YAML")
		}
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to parse config TOML")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "unknown config key: %s", undecoded[0])
		}
	}
	return nil
}

// ApplyEnv overrides fields from non-empty environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.GitHub.Token, "GITHUB_TOKEN")
	set(&c.Analytics.PropertyID, "GA4_PROPERTY_ID")
	set(&c.Analytics.AccessToken, "GA_ACCESS_TOKEN")
	set(&c.Analytics.BlogPathPrefix, "BLOG_PATH_PREFIX")
	set(&c.Store.Dir, "STATSNAP_DATA_DIR")
	set(&c.Store.Backend, "STATSNAP_STORE")
	set(&c.Store.RedisURL, "STATSNAP_REDIS_URL")
	set(&c.Store.MongoURI, "STATSNAP_MONGO_URI")
}

// applyDefaults sets default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = snapshot.BackendFile
	}
	if c.Store.Dir == "" {
		c.Store.Dir = snapshot.DefaultDir
	}
	if c.DockerHub.Snapshot == "" {
		c.DockerHub.Snapshot = DefaultDockerHubSnapshot
	}
	if c.GitHub.Snapshot == "" {
		c.GitHub.Snapshot = DefaultGitHubSnapshot
	}
	if c.Analytics.Snapshot == "" {
		c.Analytics.Snapshot = DefaultAnalyticsSnapshot
	}
	if c.Analytics.BlogPathPrefix == "" {
		c.Analytics.BlogPathPrefix = DefaultBlogPathPrefix
	}
	if c.Analytics.HistoryLimit == 0 {
		c.Analytics.HistoryLimit = snapshot.DefaultHistoryLimit
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultServeAddr
	}
}

// Validate checks config for valid values.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case snapshot.BackendFile:
	case snapshot.BackendRedis:
		if c.Store.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "store.redis_url is required for the redis backend")
		}
	case snapshot.BackendMongo:
		if c.Store.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "store.mongo_uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store.backend %q (want file, redis or mongo)", c.Store.Backend)
	}

	for _, name := range []string{c.DockerHub.Snapshot, c.GitHub.Snapshot, c.Analytics.Snapshot} {
		if err := errors.ValidateName(name); err != nil {
			return err
		}
	}
	for _, ns := range c.DockerHub.Namespaces {
		if err := errors.ValidateOwner(ns); err != nil {
			return err
		}
	}
	for _, owner := range append([]string{c.GitHub.Owner}, c.GitHub.Owners...) {
		if owner == "" {
			continue
		}
		if err := errors.ValidateOwner(owner); err != nil {
			return err
		}
	}
	for _, repo := range append(append([]string(nil), c.DockerHub.Repos...), c.GitHub.Repos...) {
		if err := errors.ValidateRepo(repo); err != nil {
			return err
		}
	}
	for _, client := range []ClientConfig{c.DockerHub.ClientConfig, c.GitHub.ClientConfig, c.Analytics.ClientConfig} {
		if client.BaseURL != "" {
			if err := errors.ValidateURL(client.BaseURL); err != nil {
				return err
			}
		}
		if client.MinInterval < 0 || client.CacheTTL < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "durations cannot be negative")
		}
	}
	if err := errors.ValidatePathPrefix(c.Analytics.BlogPathPrefix); err != nil {
		return err
	}
	if c.Analytics.Days < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "analytics.days cannot be negative")
	}
	return nil
}
