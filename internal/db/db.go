package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/smartstore/internal/models"
)

// Connect opens a gorm connection for the given DSN. Postgres is the
// production datastore; sqlite DSNs (file: or a .db path) are accepted so
// tests and local runs need no server.
func Connect(dsn string) (*gorm.DB, error) {
	dsn = NormalizeDSN(dsn)
	var dial gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"), dsn == ":memory:":
		dial = sqlite.Open(dsn)
	default:
		dial = postgres.Open(dsn)
	}
	conn, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return conn, nil
}

// ConnectAndMigrate opens the connection and brings the schema up to date.
func ConnectAndMigrate(dsn string) (*gorm.DB, error) {
	conn, err := Connect(dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}
