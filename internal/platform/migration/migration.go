// Package migration applies the embedded schema to a postgres or sqlite
// database with golang-migrate.
package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/riskibarqy/facr-ledger/db"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open returns a migrator bound to its own connection pool. Closing the
// migrator closes that pool.
func Open(driver, dsn string) (*migrate.Migrate, error) {
	sourcePath, err := sourcePath(driver)
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(db.Migrations, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations %s: %w", sourcePath, err)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		_ = source.Close()
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	target, err := databaseDriver(driver, conn)
	if err != nil {
		_ = source.Close()
		_ = conn.Close()
		return nil, err
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, target)
	if err != nil {
		_ = source.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func Up(driver, dsn string) (err error) {
	m, err := Open(driver, dsn)
	if err != nil {
		return err
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func sourcePath(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return "migrations/postgres", nil
	case DriverSQLite:
		return "migrations/sqlite", nil
	default:
		return "", fmt.Errorf("unsupported migration driver %q", driver)
	}
}

func databaseDriver(driver string, conn *sql.DB) (database.Driver, error) {
	var (
		target database.Driver
		err    error
	)
	switch driver {
	case DriverPostgres:
		target, err = postgres.WithInstance(conn, &postgres.Config{})
	case DriverSQLite:
		target, err = sqlite.WithInstance(conn, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported migration driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s migration driver: %w", driver, err)
	}
	return target, nil
}
