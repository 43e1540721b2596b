package folio

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type SQLConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Path     string
	Options  map[string]string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func NewSQLConfig() *SQLConfig {
	return &SQLConfig{
		Driver:          DriverPostgres,
		Host:            "localhost",
		Port:            5432,
		Options:         make(map[string]string),
		MaxOpenConns:    25,
		MaxIdleConns:    25,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func (c *SQLConfig) WithDriver(driver string) *SQLConfig {
	c.Driver = driver
	return c
}

// WithURL sets a full connection URL, which takes precedence over the
// host/credential fields when building the DSN.
func (c *SQLConfig) WithURL(url string) *SQLConfig {
	c.URL = url
	return c
}

func (c *SQLConfig) WithCredentials(username, password string) *SQLConfig {
	c.Username = username
	c.Password = password
	return c
}

func (c *SQLConfig) WithHost(host string, port int) *SQLConfig {
	c.Host = host
	c.Port = port
	return c
}

func (c *SQLConfig) WithDatabase(database string) *SQLConfig {
	c.Database = database
	return c
}

// WithPath sets the database file used by the sqlite3 driver.
func (c *SQLConfig) WithPath(path string) *SQLConfig {
	c.Path = path
	return c
}

func (c *SQLConfig) WithOption(key, value string) *SQLConfig {
	c.Options[key] = value
	return c
}

func (c *SQLConfig) WithPool(maxOpen, maxIdle int, lifetime time.Duration) *SQLConfig {
	c.MaxOpenConns = maxOpen
	c.MaxIdleConns = maxIdle
	c.ConnMaxLifetime = lifetime
	return c
}

func (c *SQLConfig) BuildDSN() string {
	switch c.Driver {
	case DriverPostgres:
		if c.URL != "" {
			return c.URL
		}
		query := url.Values{}
		query.Set("sslmode", "disable")
		for key, value := range c.Options {
			query.Set(key, value)
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.Username, c.Password),
			Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
			Path:     "/" + c.Database,
			RawQuery: query.Encode(),
		}
		return u.String()
	case DriverSQLite:
		query := url.Values{}
		query.Set("_foreign_keys", "on")
		query.Set("_busy_timeout", "5000")
		query.Set("_journal_mode", "WAL")
		query.Set("_txlock", "immediate")
		for key, value := range c.Options {
			query.Set(key, value)
		}
		return "file:" + c.Path + "?" + query.Encode()
	default:
		return ""
	}
}

func (c *SQLConfig) Connect() (*sqlx.DB, error) {
	if c.Driver == DriverSQLite && c.Path != "" {
		if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open(c.Driver, c.BuildDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	db.SetConnMaxLifetime(c.ConnMaxLifetime)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
