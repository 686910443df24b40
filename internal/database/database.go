// Package database opens GORM connections and provides generic persistence helpers.
package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ErrUnsupportedDriver indicates a database URL with an unknown scheme.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Database wraps a GORM connection and remembers its dialect.
type Database struct {
	db      *gorm.DB
	dialect string
}

// NewDatabase opens a connection for a sqlite:/// or postgres:// URL.
func NewDatabase(ctx context.Context, url string) (Database, error) {
	dialector, err := parseDialector(url)
	if err != nil {
		return Database{}, fmt.Errorf("parse database url: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   slogGormLogger{},
		DisableForeignKeyConstraintWhenMigrating: false,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return Database{}, fmt.Errorf("open database: %w", err)
	}

	d := Database{db: db, dialect: dialector.Name()}

	if d.IsSQLite() {
		// SQLite allows a single writer; serialising connections avoids SQLITE_BUSY.
		if err := d.ConfigurePool(1, 1, 0); err != nil {
			return Database{}, err
		}
		if err := db.WithContext(ctx).Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return Database{}, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	return d, nil
}

func parseDialector(url string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(url, "sqlite:///"):
		path := strings.TrimPrefix(url, "sqlite:///")
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		return sqlite.Open(path), nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.Open(url), nil
	default:
		return nil, ErrUnsupportedDriver
	}
}

// Session returns a GORM session bound to ctx.
func (d Database) Session(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}

// GORM returns the underlying connection.
func (d Database) GORM() *gorm.DB {
	return d.db
}

// IsSQLite reports whether the connection uses SQLite.
func (d Database) IsSQLite() bool { return d.dialect == "sqlite" }

// IsPostgres reports whether the connection uses PostgreSQL.
func (d Database) IsPostgres() bool { return d.dialect == "postgres" }

// ConfigurePool sets connection pool limits. A zero lifetime means connections are reused forever.
func (d Database) ConfigurePool(maxOpen, maxIdle int, lifetime time.Duration) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	return nil
}

// Close closes the underlying connection pool.
func (d Database) Close() error {
	if d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Close()
}
