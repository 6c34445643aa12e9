package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	StoreYAML    = "yaml"
	StoreSQLite  = "sqlite"
	StoreMariaDB = "mariadb"

	// DefaultConfigName is the name the settings document is stored under.
	DefaultConfigName = "featurepolicy.settings"
)

// Config holds the application configuration
type Config struct {
	Store        string `mapstructure:"store"`         // yaml, sqlite or mariadb
	SettingsFile string `mapstructure:"settings_file"` // yaml store
	SQLitePath   string `mapstructure:"sqlite_path"`   // sqlite store
	DSN          string `mapstructure:"dsn"`           // mariadb store
	ConfigName   string `mapstructure:"config_name"`
	LogLevel     string `mapstructure:"log_level"`
	LogFile      string `mapstructure:"log_file"`
}

// New returns a viper instance with defaults, the optional fpadmin.yaml file
// and FPADMIN_* environment variables applied. An empty path searches the
// working directory and ~/.config/fpadmin.
func New(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("store", StoreYAML)
	v.SetDefault("settings_file", DefaultConfigName+".yml")
	v.SetDefault("sqlite_path", filepath.Join(getHomeDir(), ".config", "fpadmin", "fpadmin.db"))
	v.SetDefault("dsn", "")
	v.SetDefault("config_name", DefaultConfigName)
	v.SetDefault("log_level", "INFO")
	v.SetDefault("log_file", "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fpadmin")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(getHomeDir(), ".config", "fpadmin"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The config file is optional unless it was named explicitly.
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("FPADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Load unmarshals v and checks the store selection.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.SettingsFile = expandPath(cfg.SettingsFile)
	cfg.SQLitePath = expandPath(cfg.SQLitePath)
	cfg.LogFile = expandPath(cfg.LogFile)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreYAML:
		if c.SettingsFile == "" {
			return fmt.Errorf("settings_file must be set for the %s store", c.Store)
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path must be set for the %s store", c.Store)
		}
	case StoreMariaDB:
		if c.DSN == "" {
			return fmt.Errorf("dsn must be set for the %s store", c.Store)
		}
	default:
		return fmt.Errorf("unknown store: %q", c.Store)
	}
	if strings.TrimSpace(c.ConfigName) == "" {
		return fmt.Errorf("config_name must not be empty")
	}
	return nil
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		return filepath.Join(getHomeDir(), path[1:])
	}
	return path
}
