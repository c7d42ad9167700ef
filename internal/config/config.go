package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"viewengine/internal/domain"
)

type Config struct {
	DBPath         string `mapstructure:"db_path"`
	ThemeName      string `mapstructure:"theme_name"`
	OwnerID        string `mapstructure:"owner_id"`
	ModulesDir     string `mapstructure:"modules_dir"`
	LogLevel       string `mapstructure:"log_level"`
	LogDevelopment bool   `mapstructure:"log_development"`

	MaxFilterGroups       int `mapstructure:"max_filter_groups"`
	MaxConditionsPerGroup int `mapstructure:"max_conditions_per_group"`
	DebounceMS            int `mapstructure:"debounce_ms"`
	DefaultPageSize       int `mapstructure:"default_page_size"`
	MaxPageSize           int `mapstructure:"max_page_size"`
	CountTTLSeconds       int `mapstructure:"count_ttl_seconds"`
	CountRefreshPerSecond int `mapstructure:"count_refresh_per_second"`
}

const envPrefix = "VIEWENGINE"

var (
	configDir  string
	configFile string
)

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Sprintf("failed to get home directory: %v", err))
	}

	configDir = filepath.Join(homeDir, ".viewengine")
	configFile = filepath.Join(configDir, "config.yaml")
}

func GetConfigDir() string {
	return configDir
}

func GetConfigFile() string {
	return configFile
}

func ConfigExists() bool {
	_, err := os.Stat(configFile)
	return err == nil
}

func EnsureConfigDir() error {
	return os.MkdirAll(configDir, 0755)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := GetDefaultConfig()
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("theme_name", d.ThemeName)
	v.SetDefault("owner_id", d.OwnerID)
	v.SetDefault("modules_dir", d.ModulesDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_development", d.LogDevelopment)
	v.SetDefault("max_filter_groups", d.MaxFilterGroups)
	v.SetDefault("max_conditions_per_group", d.MaxConditionsPerGroup)
	v.SetDefault("debounce_ms", d.DebounceMS)
	v.SetDefault("default_page_size", d.DefaultPageSize)
	v.SetDefault("max_page_size", d.MaxPageSize)
	v.SetDefault("count_ttl_seconds", d.CountTTLSeconds)
	v.SetDefault("count_refresh_per_second", d.CountRefreshPerSecond)
	return v
}

// loads config from file, then applies VIEWENGINE_* environment overrides
func LoadConfig() (*Config, error) {
	if err := EnsureConfigDir(); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := newViper()

	if ConfigExists() {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(configDir, "views.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// saves config to file
func SaveConfig(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("db_path", cfg.DBPath)
	v.Set("theme_name", cfg.ThemeName)
	v.Set("owner_id", cfg.OwnerID)
	v.Set("modules_dir", cfg.ModulesDir)
	v.Set("log_level", cfg.LogLevel)
	v.Set("log_development", cfg.LogDevelopment)
	v.Set("max_filter_groups", cfg.MaxFilterGroups)
	v.Set("max_conditions_per_group", cfg.MaxConditionsPerGroup)
	v.Set("debounce_ms", cfg.DebounceMS)
	v.Set("default_page_size", cfg.DefaultPageSize)
	v.Set("max_page_size", cfg.MaxPageSize)
	v.Set("count_ttl_seconds", cfg.CountTTLSeconds)
	v.Set("count_refresh_per_second", cfg.CountRefreshPerSecond)

	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// returns default config
func GetDefaultConfig() *Config {
	limits := domain.DefaultLimits()
	return &Config{
		DBPath:                filepath.Join(configDir, "views.db"),
		ThemeName:             "",
		OwnerID:               "local",
		LogLevel:              "warn",
		MaxFilterGroups:       limits.MaxGroups,
		MaxConditionsPerGroup: limits.MaxConditionsPerGroup,
		DebounceMS:            300,
		DefaultPageSize:       limits.DefaultPageSize,
		MaxPageSize:           limits.MaxPageSize,
		CountTTLSeconds:       300,
		CountRefreshPerSecond: 5,
	}
}

func (c *Config) Validate() error {
	if c.MaxFilterGroups < 1 {
		return fmt.Errorf("max_filter_groups must be at least 1, got %d", c.MaxFilterGroups)
	}
	if c.MaxConditionsPerGroup < 1 {
		return fmt.Errorf("max_conditions_per_group must be at least 1, got %d", c.MaxConditionsPerGroup)
	}
	if c.DefaultPageSize < 1 || c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default_page_size must be between 1 and max_page_size (%d), got %d", c.MaxPageSize, c.DefaultPageSize)
	}
	if c.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms cannot be negative")
	}
	return nil
}

// engine ceilings derived from config
func (c *Config) Limits() domain.Limits {
	return domain.Limits{
		MaxGroups:             c.MaxFilterGroups,
		MaxConditionsPerGroup: c.MaxConditionsPerGroup,
		DefaultPageSize:       c.DefaultPageSize,
		MaxPageSize:           c.MaxPageSize,
	}
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

func (c *Config) CountTTL() time.Duration {
	return time.Duration(c.CountTTLSeconds) * time.Second
}

// updates theme in config file
func UpdateTheme(themeName string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.ThemeName = themeName
	return SaveConfig(cfg)
}
