package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	_ "modernc.org/sqlite"

	"github.com/riskibarqy/facr-ledger/internal/config"
	"github.com/riskibarqy/facr-ledger/internal/platform/logging"
	"github.com/riskibarqy/facr-ledger/internal/platform/migration"
)

// OpenDB opens the configured store with query tracing, applying the
// embedded migrations first when DB_AUTO_MIGRATE is set.
func OpenDB(ctx context.Context, cfg config.Config, logger *logging.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = logging.Default()
	}

	dsn, dbName := dataSource(cfg)
	if cfg.DBAutoMigrate {
		if err := migration.Up(cfg.DBDriver, dsn); err != nil {
			return nil, fmt.Errorf("migrate %s database: %w", cfg.DBDriver, err)
		}
	}

	db, err := otelsqlx.Open(cfg.DBDriver, dsn,
		otelsql.WithDBName(dbName),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	if cfg.DBDriver == config.DBDriverSQLite {
		// One writer at a time; concurrent sqlite writers only produce
		// SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.DBDriver, err)
	}

	logger.InfoContext(ctx, "database ready", "driver", cfg.DBDriver, "db", dbName, "auto_migrate", cfg.DBAutoMigrate)
	return db, nil
}

func dataSource(cfg config.Config) (dsn, name string) {
	if cfg.DBDriver == config.DBDriverSQLite {
		return sqliteDSN(cfg.DBURL), sqliteNameFromDSN(cfg.DBURL)
	}
	return normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary), dbNameFromURL(cfg.DBURL)
}

// MigrationDSN is the data source the migrator should use for cfg.
func MigrationDSN(cfg config.Config) string {
	dsn, _ := dataSource(cfg)
	return dsn
}
