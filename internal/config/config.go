package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Config represents the application configuration.
type Config struct {
	Connections []Connection `mapstructure:"connections" yaml:"connections"`
	Preferences Preferences  `mapstructure:"preferences" yaml:"preferences"`
	Driver      Settings     `mapstructure:"driver" yaml:"driver"`
	Logging     Logging      `mapstructure:"logging" yaml:"logging"`
	Cache       Cache        `mapstructure:"cache" yaml:"cache"`
}

// Settings holds the driver modes threaded into every query and descriptor.
type Settings struct {
	// DatabaseAsSchema reports the backend database level as a schema instead of a catalog.
	DatabaseAsSchema bool `mapstructure:"database_as_schema" yaml:"database_as_schema"`
	// AnsiStringOnly reports strings as SQL_VARCHAR rather than SQL_WVARCHAR.
	AnsiStringOnly bool `mapstructure:"ansi_string_only" yaml:"ansi_string_only"`
	// MetadataID treats catalog function arguments as identifiers instead of patterns.
	MetadataID  bool `mapstructure:"metadata_id" yaml:"metadata_id"`
	ODBCVersion int  `mapstructure:"odbc_version" yaml:"odbc_version"`
	// Prefetch fetches the next result page in the background.
	Prefetch bool `mapstructure:"prefetch" yaml:"prefetch"`
	PageSize int  `mapstructure:"page_size" yaml:"page_size"`
}

// Logging configures the driver log.
type Logging struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Path   string `mapstructure:"path" yaml:"path"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Cache configures the introspection cache. An empty RedisAddr disables it.
type Cache struct {
	RedisAddr  string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisDB    int    `mapstructure:"redis_db" yaml:"redis_db"`
	TTLSeconds int    `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
}

// Connection represents a saved backend connection profile.
type Connection struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Driver   string `mapstructure:"driver" yaml:"driver"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Database string `mapstructure:"database" yaml:"database"`
	Username string `mapstructure:"username" yaml:"username"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`

	// Password is never persisted to the config file; see SavePassword.
	Password string `mapstructure:"-" yaml:"-"`
}

// Preferences holds user preferences.
type Preferences struct {
	Theme             string `mapstructure:"theme" yaml:"theme"`
	DefaultConnection string `mapstructure:"default_connection" yaml:"default_connection"`
}

// DefaultSettings returns the driver modes used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		DatabaseAsSchema: true,
		AnsiStringOnly:   true,
		ODBCVersion:      3,
		Prefetch:         true,
		PageSize:         1000,
	}
}

// Validate reports settings the driver cannot run with.
func (s Settings) Validate() error {
	if s.ODBCVersion != 2 && s.ODBCVersion != 3 {
		return fmt.Errorf("odbc_version must be 2 or 3, got %d", s.ODBCVersion)
	}
	if s.PageSize < 0 {
		return fmt.Errorf("page_size must not be negative, got %d", s.PageSize)
	}
	return nil
}

// DSN builds a PostgreSQL connection string from the connection profile.
func (c Connection) DSN() string {
	dsn := "postgresql://"
	if c.Username != "" {
		dsn += url.PathEscape(c.Username)
		if c.Password != "" {
			dsn += ":" + url.PathEscape(c.Password)
		}
		dsn += "@"
	}
	dsn += c.Host
	if c.Port > 0 {
		dsn += ":" + strconv.Itoa(c.Port)
	}
	dsn += "/" + c.Database
	if c.SSLMode != "" {
		dsn += "?sslmode=" + c.SSLMode
	}
	return dsn
}

// DisplayString returns a human-readable summary of the connection.
func (c Connection) DisplayString() string {
	s := c.Host
	if c.Port > 0 {
		s += ":" + strconv.Itoa(c.Port)
	}
	s += "/" + c.Database
	if c.Username != "" {
		s = c.Username + "@" + s
	}
	return s
}

// ParseDSN parses a PostgreSQL connection string into a Connection.
func ParseDSN(dsn string) (Connection, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return Connection{}, fmt.Errorf("invalid DSN: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return Connection{}, fmt.Errorf("invalid DSN: unsupported scheme %q", u.Scheme)
	}

	conn := Connection{
		Driver:   "postgres",
		Host:     u.Hostname(),
		Database: strings.TrimPrefix(u.Path, "/"),
		SSLMode:  u.Query().Get("sslmode"),
	}

	if u.User != nil {
		conn.Username = u.User.Username()
		if p, ok := u.User.Password(); ok {
			conn.Password = p
		}
	}

	if portStr := u.Port(); portStr != "" {
		conn.Port, _ = strconv.Atoi(portStr)
	}
	if conn.Port == 0 {
		conn.Port = 5432
	}

	// Auto-generate a name
	conn.Name = fmt.Sprintf("postgres-%s-%d-%s", conn.Host, conn.Port, conn.Database)

	return conn, nil
}

// HasConnection checks if a connection with the given name already exists.
func (cfg *Config) HasConnection(name string) bool {
	for _, c := range cfg.Connections {
		if c.Name == name {
			return true
		}
	}
	return false
}

// AddConnection appends a connection if it doesn't already exist.
func (cfg *Config) AddConnection(conn Connection) {
	if !cfg.HasConnection(conn.Name) {
		conn.Password = ""
		cfg.Connections = append(cfg.Connections, conn)
	}
}
