package store

import (
	"fmt"

	config "github.com/mwantia/goforms/internal/config/server"
)

// Open creates the store selected by metadata.type. The returned store is
// not connected yet.
func Open(cfg config.MetadataServerConfig) (*GormStore, error) {
	switch cfg.Type {
	case config.MetadataTypeSQLite, "":
		return NewSQLiteStore(SQLiteConfig{
			Path: cfg.SQLite.Path,
		})
	case config.MetadataTypePostgres:
		return NewPostgresStore(PostgresConfig{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
		})
	default:
		return nil, fmt.Errorf("unsupported metadata type '%s'", cfg.Type)
	}
}
