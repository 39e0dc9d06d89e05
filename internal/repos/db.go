package repos

import (
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// OpenDB connects, pings and ensures the schema exists.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		driver = DriverSQLite
	}
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("repos: unsupported driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer at a time; also keeps ":memory:" databases on one connection
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS objects(
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  collection TEXT NOT NULL,
  scope TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_objects_kind ON objects(collection, scope, created_at)`,
		`CREATE TABLE IF NOT EXISTS sessions(
  k TEXT PRIMARY KEY,
  v BLOB NOT NULL,
  expires_at INTEGER NOT NULL DEFAULT 0
)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS objects(
  seq BIGINT AUTO_INCREMENT PRIMARY KEY,
  id VARCHAR(64) NOT NULL UNIQUE,
  collection VARCHAR(32) NOT NULL,
  scope VARCHAR(191) NOT NULL DEFAULT '',
  data LONGTEXT NOT NULL,
  created_at VARCHAR(40) NOT NULL,
  updated_at VARCHAR(40) NOT NULL,
  INDEX idx_objects_kind (collection, scope, created_at)
)`,
		`CREATE TABLE IF NOT EXISTS sessions(
  k VARCHAR(191) PRIMARY KEY,
  v LONGBLOB NOT NULL,
  expires_at BIGINT NOT NULL DEFAULT 0
)`,
	},
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS objects(
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL UNIQUE,
  collection TEXT NOT NULL,
  scope TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_objects_kind ON objects(collection, scope, created_at)`,
		`CREATE TABLE IF NOT EXISTS sessions(
  k TEXT PRIMARY KEY,
  v BYTEA NOT NULL,
  expires_at BIGINT NOT NULL DEFAULT 0
)`,
	},
}

// mysql rejects multi-statement Exec by default, so each statement runs alone.
func ensureSchema(db *sqlx.DB) error {
	for _, stmt := range schemas[db.DriverName()] {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("repos: ensure schema: %w", err)
		}
	}
	return nil
}
