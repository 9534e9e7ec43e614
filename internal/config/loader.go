package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configDir  = ".sitewisedb"
	configFile = "config"
	configType = "yaml"
	envPrefix  = "SITEWISEDB"
	envFile    = ".env"
)

// Load reads the configuration from ~/.sitewisedb/config.yaml.
// Returns a config with defaults applied if the file does not exist.
func Load() (*Config, error) {
	dir, err := configDirPath()
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}
	return LoadFrom(dir)
}

// LoadFrom reads the configuration from dir. A .env file in the working
// directory is applied first so SITEWISEDB_* variables can override the file.
func LoadFrom(dir string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := newViper(dir)

	cfg := &Config{}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Driver.Validate(); err != nil {
		return nil, fmt.Errorf("driver settings: %w", err)
	}

	return cfg, nil
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(configFile)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	d := DefaultSettings()
	v.SetDefault("preferences.theme", "default")
	v.SetDefault("driver.database_as_schema", d.DatabaseAsSchema)
	v.SetDefault("driver.ansi_string_only", d.AnsiStringOnly)
	v.SetDefault("driver.metadata_id", d.MetadataID)
	v.SetDefault("driver.odbc_version", d.ODBCVersion)
	v.SetDefault("driver.prefetch", d.Prefetch)
	v.SetDefault("driver.page_size", d.PageSize)
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.path", filepath.Join(dir, "driver.log"))
	v.SetDefault("logging.format", "text")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl_seconds", 300)
	return v
}

// Save writes the configuration to ~/.sitewisedb/config.yaml.
func Save(cfg *Config) error {
	dir, err := configDirPath()
	if err != nil {
		return fmt.Errorf("config dir: %w", err)
	}
	return SaveTo(dir, cfg)
}

// SaveTo writes the configuration into dir.
func SaveTo(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType(configType)
	v.Set("connections", cfg.Connections)
	v.Set("preferences", cfg.Preferences)
	v.Set("driver", cfg.Driver)
	v.Set("logging", cfg.Logging)
	v.Set("cache", cfg.Cache)

	path := filepath.Join(dir, configFile+"."+configType)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SaveConnection records conn in cfg, stores its password in the OS keyring
// and persists the config file.
func SaveConnection(cfg *Config, conn Connection) error {
	if conn.Password != "" {
		if err := SavePassword(conn.Name, conn.Password); err != nil {
			return err
		}
	}
	if cfg.HasConnection(conn.Name) {
		return nil
	}
	cfg.AddConnection(conn)
	return Save(cfg)
}

// DefaultConnection returns the default connection from config, or the first one.
func DefaultConnection(cfg *Config) *Connection {
	if len(cfg.Connections) == 0 {
		return nil
	}

	if cfg.Preferences.DefaultConnection != "" {
		for i := range cfg.Connections {
			if cfg.Connections[i].Name == cfg.Preferences.DefaultConnection {
				return &cfg.Connections[i]
			}
		}
	}

	return &cfg.Connections[0]
}

// Dir returns the directory holding the config file and driver log.
func Dir() (string, error) {
	return configDirPath()
}

func configDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}
