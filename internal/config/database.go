// AngelaMos | 2026
// database.go

package config

import (
	"fmt"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	URL             string        `koanf:"url"`
	SQLiteFile      string        `koanf:"sqlite_file"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

// DatabaseSource is a closed set of supported backends. Only this package
// can add variants; the rest of the service sees a driver name and a DSN.
type DatabaseSource interface {
	DriverName() string
	DSN() string
	Dialect() string
	isDatabaseSource()
}

type PostgresSource struct {
	URL string
}

func (PostgresSource) DriverName() string { return "pgx" }
func (s PostgresSource) DSN() string      { return s.URL }
func (PostgresSource) Dialect() string    { return DriverPostgres }
func (PostgresSource) isDatabaseSource()  {}

type SQLiteSource struct {
	File string
}

func (SQLiteSource) DriverName() string { return "sqlite" }

func (s SQLiteSource) DSN() string {
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		s.File,
	)
}

func (SQLiteSource) Dialect() string   { return DriverSQLite }
func (SQLiteSource) isDatabaseSource() {}

func (d DatabaseConfig) Source() (DatabaseSource, error) {
	switch d.Driver {
	case DriverPostgres, "postgresql":
		if d.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for postgres")
		}
		return PostgresSource{URL: d.URL}, nil
	case DriverSQLite:
		if d.SQLiteFile == "" {
			return nil, fmt.Errorf("database.sqlite_file is required for sqlite")
		}
		return SQLiteSource{File: d.SQLiteFile}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", d.Driver)
	}
}
