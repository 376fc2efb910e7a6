// Package config loads minitodo settings. Sources are applied in order, each
// overriding the previous one:
//
//  1. defaults
//  2. TOML file (-config, MINITODO_CONFIG, or ./minitodo.toml when present)
//  3. environment (MINITODO_*, plus LOG_LEVEL)
//  4. command-line flags
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	ModeWeb = "web"
	ModeTUI = "tui"

	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"

	DefaultConfigFile = "minitodo.toml"
	DefaultAddr       = ":8080"
)

type Config struct {
	Mode     string `toml:"mode"`
	Addr     string `toml:"addr"`
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`

	Storage string `toml:"storage"`
	DataDir string `toml:"data_dir"`

	AuthMode    string `toml:"auth_mode"`
	APIKey      string `toml:"api_key"`
	BearerToken string `toml:"bearer_token"`

	RateLimitRPS   float64 `toml:"rate_limit_rps"`
	RateLimitBurst int     `toml:"rate_limit_burst"`

	TraceExporter string `toml:"trace_exporter"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`

	// ConfigFile is the TOML file that was applied, if any.
	ConfigFile string `toml:"-"`
}

func Defaults() *Config {
	return &Config{
		Mode:           ModeWeb,
		Addr:           DefaultAddr,
		LogLevel:       "info",
		Storage:        StorageFile,
		DataDir:        defaultDataDir(),
		AuthMode:       "none",
		RateLimitRPS:   0,
		RateLimitBurst: 10,
		TraceExporter:  "none",
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "minitodo")
	}
	return "data"
}

// Load builds a Config from all sources. fs receives the flag definitions;
// args are the command-line arguments without the program name.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	flags := defineFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := Defaults()

	path, explicit := *flags.configFile, *flags.configFile != ""
	if !explicit {
		if env := os.Getenv("MINITODO_CONFIG"); env != "" {
			path, explicit = env, true
		} else {
			path = DefaultConfigFile
		}
	}
	if err := loadFile(cfg, path, explicit); err != nil {
		return nil, err
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	flags.apply(fs, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile decodes path into cfg. A missing file is only an error when the
// path was asked for explicitly.
func loadFile(cfg *Config, path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("loading config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config file %s: unknown keys %v", path, undecoded)
	}
	cfg.ConfigFile = path
	return nil
}

func loadFromEnv(cfg *Config) error {
	// Order matters: MINITODO_LOG_LEVEL overrides the plain LOG_LEVEL.
	str := []struct {
		key string
		dst *string
	}{
		{"MINITODO_MODE", &cfg.Mode},
		{"MINITODO_ADDR", &cfg.Addr},
		{"LOG_LEVEL", &cfg.LogLevel},
		{"MINITODO_LOG_LEVEL", &cfg.LogLevel},
		{"MINITODO_LOG_FILE", &cfg.LogFile},
		{"MINITODO_STORAGE", &cfg.Storage},
		{"MINITODO_DATA_DIR", &cfg.DataDir},
		{"MINITODO_AUTH_MODE", &cfg.AuthMode},
		{"MINITODO_API_KEY", &cfg.APIKey},
		{"MINITODO_BEARER_TOKEN", &cfg.BearerToken},
		{"MINITODO_TRACE_EXPORTER", &cfg.TraceExporter},
		{"MINITODO_OTLP_ENDPOINT", &cfg.OTLPEndpoint},
	}
	for _, e := range str {
		if v := strings.TrimSpace(os.Getenv(e.key)); v != "" {
			*e.dst = v
		}
	}

	if v := strings.TrimSpace(os.Getenv("MINITODO_RATE_LIMIT_RPS")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MINITODO_RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = f
	}
	if v := strings.TrimSpace(os.Getenv("MINITODO_RATE_LIMIT_BURST")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MINITODO_RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = n
	}
	return nil
}

// Validate rejects unknown enum values and incomplete auth settings.
func (c *Config) Validate() error {
	c.Mode = strings.ToLower(c.Mode)
	c.Storage = strings.ToLower(c.Storage)
	c.AuthMode = strings.ToLower(c.AuthMode)
	c.TraceExporter = strings.ToLower(c.TraceExporter)

	var errs []error
	switch c.Mode {
	case ModeWeb, ModeTUI:
	default:
		errs = append(errs, fmt.Errorf("mode must be %q or %q, got %q", ModeWeb, ModeTUI, c.Mode))
	}
	switch c.Storage {
	case StorageFile, StorageSQLite:
		if strings.TrimSpace(c.DataDir) == "" {
			errs = append(errs, errors.New("data_dir is required for file and sqlite storage"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", c.Storage))
	}
	switch c.AuthMode {
	case "", "none":
	case "apikey":
		if c.APIKey == "" {
			errs = append(errs, errors.New("api_key is required when auth_mode=apikey"))
		}
	case "bearer":
		if c.BearerToken == "" {
			errs = append(errs, errors.New("bearer_token is required when auth_mode=bearer"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown auth_mode %q", c.AuthMode))
	}
	switch c.TraceExporter {
	case "", "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("unknown trace_exporter %q", c.TraceExporter))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, errors.New("rate_limit_rps must not be negative"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to a slog level; unknown names mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ResolvedLogFile is where logs go in TUI mode, where stdout belongs to the
// terminal UI.
func (c *Config) ResolvedLogFile() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	dir := c.DataDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "minitodo.log")
}

// SQLitePath is the database file used by sqlite storage.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "minitodo.db")
}
