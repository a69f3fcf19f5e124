// Package config loads phraseclip settings from YAML and the environment.
//
// Values are resolved in order: built-in defaults, then the YAML file (if
// present), then PHRASECLIP_* environment variables. The result is checked by
// [Validate], which reports every problem at once.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/phraseclip/internal/storage"
)

// Config is the root configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    storage.Config   `yaml:"storage"`
	Search     SearchConfig     `yaml:"search"`
	Media      MediaConfig      `yaml:"media"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	APIPrefix   string   `yaml:"api_prefix"`
	FrontendDir string   `yaml:"frontend_dir"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// SearchConfig tunes the query cache. The cache is off by default; enable it
// only when no other process writes to the same storage.
type SearchConfig struct {
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// MediaConfig configures clip cutting
type MediaConfig struct {
	FFmpegPath      string        `yaml:"ffmpeg_path"`
	VideoPath       string        `yaml:"video_path"`
	ClipsDir        string        `yaml:"clips_dir"`
	MetadataPath    string        `yaml:"metadata_path"`
	Padding         time.Duration `yaml:"padding"`
	MaxClipDuration time.Duration `yaml:"max_clip_duration"`
	MaxClips        int           `yaml:"max_clips"`
	Workers         int           `yaml:"workers"`
	Width           int           `yaml:"width"`
}

// TranscribeConfig configures the speech-to-text tool
type TranscribeConfig struct {
	WhisperPath string `yaml:"whisper_path"`
	Model       string `yaml:"model"`
	Language    string `yaml:"language"`
	Device      string `yaml:"device"`
	FP16        bool   `yaml:"fp16"`
	Threads     int    `yaml:"threads"`
	OutputDir   string `yaml:"output_dir"`
}

// LogConfig configures the logger
type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":3000",
			APIPrefix:   "/api",
			CORSOrigins: []string{"*"},
		},
		Storage: storage.Config{
			Driver: storage.DriverSQLite,
			Path:   "phrases.db",
		},
		Search: SearchConfig{
			CacheSize: 0, // another process may rebuild the corpus underneath a cache
			CacheTTL:  10 * time.Minute,
		},
		Media: MediaConfig{
			FFmpegPath:      "ffmpeg",
			ClipsDir:        "clips",
			MetadataPath:    "clips-metadata.json",
			Padding:         2 * time.Second,
			MaxClipDuration: 9 * time.Second,
			Workers:         1,
			Width:           640,
		},
		Transcribe: TranscribeConfig{
			WhisperPath: "whisper",
			Model:       "large",
			Language:    "Turkish",
			OutputDir:   ".",
		},
		Log: LogConfig{
			Mode:  "dev",
			Level: "info",
		},
	}
}

// Load reads path over the defaults, applies the environment and validates.
// A missing file is not an error when optional is true.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := decode(f, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && optional:
	default:
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}

	ApplyEnv(cfg, os.LookupEnv)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the
// result. The environment is not consulted.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg from PHRASECLIP_* variables found by lookup
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("PHRASECLIP_DB_PATH"); ok && v != "" {
		cfg.Storage.Path = v
	}
	if v, ok := lookup("PHRASECLIP_DB_DRIVER"); ok && v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := lookup("PHRASECLIP_DB_DSN"); ok && v != "" {
		cfg.Storage.DSN = v
	}
	if v, ok := lookup("PHRASECLIP_ADDR"); ok && v != "" {
		cfg.Server.Addr = v
	}
	if v, ok := lookup("PHRASECLIP_LOG_MODE"); ok && v != "" {
		cfg.Log.Mode = strings.ToLower(v)
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if cfg.Server.APIPrefix != "" && !strings.HasPrefix(cfg.Server.APIPrefix, "/") {
		errs = append(errs, fmt.Errorf("server.api_prefix %q must start with /", cfg.Server.APIPrefix))
	}

	switch cfg.Storage.Driver {
	case storage.DriverSQLite:
		if cfg.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the sqlite driver"))
		}
	case storage.DriverPostgres:
		if cfg.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is invalid; valid values: sqlite, postgres", cfg.Storage.Driver))
	}

	if cfg.Search.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("search.cache_size %d must not be negative", cfg.Search.CacheSize))
	}
	if cfg.Search.CacheSize > 0 && cfg.Search.CacheTTL <= 0 {
		errs = append(errs, errors.New("search.cache_ttl must be positive when the cache is enabled"))
	}

	if cfg.Media.Padding < 0 {
		errs = append(errs, errors.New("media.padding must not be negative"))
	}
	if cfg.Media.MaxClipDuration <= 0 {
		errs = append(errs, errors.New("media.max_clip_duration must be positive"))
	}
	if cfg.Media.MaxClips < 0 {
		errs = append(errs, errors.New("media.max_clips must not be negative"))
	}
	if cfg.Media.Workers < 1 {
		errs = append(errs, fmt.Errorf("media.workers %d must be at least 1", cfg.Media.Workers))
	}
	if cfg.Media.Width < 0 {
		errs = append(errs, errors.New("media.width must not be negative"))
	}

	if cfg.Transcribe.Threads < 0 {
		errs = append(errs, errors.New("transcribe.threads must not be negative"))
	}

	switch cfg.Log.Mode {
	case "dev", "development", "prod", "production":
	default:
		errs = append(errs, fmt.Errorf("log.mode %q is invalid; valid values: dev, prod", cfg.Log.Mode))
	}
	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", cfg.Log.Level))
	}

	return errors.Join(errs...)
}
