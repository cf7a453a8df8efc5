package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	envPrefix  = "BP"
	// DirName is the per-user directory under $HOME holding config and storage.
	DirName = ".bobiplan"
)

const (
	BackendTOML   = "toml"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

const (
	DrainRetainFailed = "retain_failed"
	DrainClearAll     = "clear_all"
)

type Config struct {
	Dir      string         `mapstructure:"-"`
	API      APIConfig      `mapstructure:"api"`
	Identity IdentityConfig `mapstructure:"identity"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Log      LogConfig      `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	HealthPath    string        `mapstructure:"health_path"`
}

type IdentityConfig struct {
	DefaultMemberID int `mapstructure:"default_member_id"`
}

type CacheConfig struct {
	Freshness time.Duration `mapstructure:"freshness"`
}

type QueueConfig struct {
	DrainPolicy string `mapstructure:"drain_policy"`
	MaxAttempts int    `mapstructure:"max_attempts"`
}

type StorageConfig struct {
	Backend        string `mapstructure:"backend"`
	Path           string `mapstructure:"path"`
	FallbackMemory bool   `mapstructure:"fallback_memory"`
}

type MonitorConfig struct {
	Schedule     string        `mapstructure:"schedule"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads ~/.bobiplan/config.toml when present and layers BP_* environment
// variables on top, e.g. BP_API_BASE_URL for api.base_url.
func Load(cfg *viper.Viper) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(homeDir, DirName)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(dir)
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	setDefaults(cfg)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var out Config
	if err := cfg.Unmarshal(&out); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	out.Dir = dir

	if out.Storage.Path == "" {
		out.Storage.Path = defaultStoragePath(dir, out.Storage.Backend)
	}
	if out.Storage.Path != "" {
		absPath, err := filepath.Abs(out.Storage.Path)
		if err != nil {
			return Config{}, fmt.Errorf("resolve storage path: %w", err)
		}
		out.Storage.Path = filepath.Clean(absPath)
	}

	if err := out.Validate(); err != nil {
		return Config{}, err
	}

	return out, nil
}

func setDefaults(cfg *viper.Viper) {
	cfg.SetDefault("api.base_url", "http://bobeki.anglezko.eu/api")
	cfg.SetDefault("api.timeout", 10*time.Second)
	cfg.SetDefault("api.retry_attempts", 3)
	cfg.SetDefault("api.health_path", "/health")
	cfg.SetDefault("identity.default_member_id", 1)
	cfg.SetDefault("cache.freshness", 30*time.Minute)
	cfg.SetDefault("queue.drain_policy", DrainRetainFailed)
	cfg.SetDefault("queue.max_attempts", 5)
	cfg.SetDefault("storage.backend", BackendTOML)
	cfg.SetDefault("storage.path", "")
	cfg.SetDefault("storage.fallback_memory", true)
	cfg.SetDefault("monitor.schedule", "@every 30s")
	cfg.SetDefault("monitor.probe_timeout", 3*time.Second)
	cfg.SetDefault("log.level", "info")
	cfg.SetDefault("log.format", "console")
}

func defaultStoragePath(dir, backend string) string {
	switch backend {
	case BackendTOML:
		return filepath.Join(dir, "storage.toml")
	case BackendFile:
		return filepath.Join(dir, "kv")
	case BackendSQLite:
		return filepath.Join(dir, "bobiplan.db")
	default:
		return ""
	}
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, errors.New("api.base_url is empty"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout))
	}
	if c.API.RetryAttempts < 0 {
		errs = append(errs, fmt.Errorf("api.retry_attempts must not be negative, got %d", c.API.RetryAttempts))
	}
	if c.Identity.DefaultMemberID <= 0 {
		errs = append(errs, fmt.Errorf("identity.default_member_id must be positive, got %d", c.Identity.DefaultMemberID))
	}
	if c.Cache.Freshness <= 0 {
		errs = append(errs, fmt.Errorf("cache.freshness must be positive, got %s", c.Cache.Freshness))
	}

	switch c.Queue.DrainPolicy {
	case DrainRetainFailed, DrainClearAll:
	default:
		errs = append(errs, fmt.Errorf("queue.drain_policy %q is not one of %s, %s", c.Queue.DrainPolicy, DrainRetainFailed, DrainClearAll))
	}
	if c.Queue.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("queue.max_attempts must not be negative, got %d", c.Queue.MaxAttempts))
	}

	switch c.Storage.Backend {
	case BackendTOML, BackendFile, BackendSQLite, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend))
	}

	if _, err := cron.ParseStandard(c.Monitor.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("monitor.schedule %q: %w", c.Monitor.Schedule, err))
	}

	return errors.Join(errs...)
}
