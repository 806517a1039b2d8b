package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"medianav/logging"

	_ "modernc.org/sqlite"
)

// Config holds database configuration
type Config struct {
	Path            string        `env:"DB_PATH" envDefault:"./medianav.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"15m"`
	BusyTimeoutMs   int           `env:"DB_BUSY_TIMEOUT_MS" envDefault:"5000"`
	EnableWAL       bool          `env:"DB_ENABLE_WAL" envDefault:"true"`
}

// Database keeps a read pool and a single serialized write connection over
// the same SQLite file.
type Database struct {
	readDB  *sql.DB
	writeDB *sql.DB
	config  Config
	logger  *logging.Logger
}

// New opens the database and applies pending migrations.
func New(ctx context.Context, config Config, logger *logging.Logger) (*Database, error) {
	if logger == nil {
		logger = logging.Default()
	}
	dsn := buildDSN(config)
	existed := fileHasData(config.Path)

	logger.Database("Opening database connections",
		"path", config.Path,
		"exists", existed,
		"read_max_open_conns", config.MaxOpenConns)

	readDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open read database: %w", err)
	}
	readDB.SetMaxOpenConns(config.MaxOpenConns)
	readDB.SetMaxIdleConns(config.MaxIdleConns)
	readDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	readDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	writeDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		readDB.Close()
		return nil, fmt.Errorf("failed to open write database: %w", err)
	}
	// A single connection serializes writers instead of racing on SQLITE_BUSY.
	writeDB.SetMaxOpenConns(1)
	writeDB.SetMaxIdleConns(1)
	writeDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	d := &Database{readDB: readDB, writeDB: writeDB, config: config, logger: logger}

	if err := d.ping(ctx); err != nil {
		d.closeAll()
		return nil, err
	}
	if err := d.runMigrations(ctx); err != nil {
		d.closeAll()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	logger.Database("Database ready", "path", config.Path, "existed", existed, "wal_mode", config.EnableWAL)
	return d, nil
}

// buildDSN sets connection pragmas through the modernc driver's _pragma
// parameters so every pooled connection gets them.
func buildDSN(config Config) string {
	pragmas := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", config.BusyTimeoutMs),
		"_pragma=foreign_keys(1)",
		"_pragma=synchronous(normal)",
		"_pragma=temp_store(memory)",
	}
	if config.EnableWAL {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	return fmt.Sprintf("file:%s?%s", config.Path, strings.Join(pragmas, "&"))
}

func (d *Database) ping(ctx context.Context) error {
	if err := d.readDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping read database: %w", err)
	}
	if err := d.writeDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping write database: %w", err)
	}
	return nil
}

// ReadDB returns the read connection pool
func (d *Database) ReadDB() *sql.DB {
	return d.readDB
}

// WriteDB returns the serialized write connection
func (d *Database) WriteDB() *sql.DB {
	return d.writeDB
}

// WithTx runs fn inside a write transaction, rolling back on error.
func (d *Database) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			d.logger.Error("Failed to rollback transaction", "error", rollbackErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Health pings both connections and reports pool statistics.
func (d *Database) Health(ctx context.Context) (map[string]any, error) {
	if err := d.ping(ctx); err != nil {
		return nil, err
	}
	return map[string]any{
		"read_pool":  poolStats(d.readDB.Stats(), d.config.MaxOpenConns),
		"write_pool": poolStats(d.writeDB.Stats(), 1),
	}, nil
}

func poolStats(s sql.DBStats, maxOpen int) map[string]any {
	return map[string]any{
		"open_connections": s.OpenConnections,
		"in_use":           s.InUse,
		"idle":             s.Idle,
		"wait_count":       s.WaitCount,
		"wait_duration":    s.WaitDuration.String(),
		"max_open_conns":   maxOpen,
	}
}

// Close checkpoints the WAL and closes both connections.
func (d *Database) Close() error {
	d.logger.Database("Closing database connections")

	if d.config.EnableWAL {
		if _, err := d.writeDB.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
			d.logger.Warn("failed to checkpoint WAL", "error", err)
		}
	}
	return d.closeAll()
}

func (d *Database) closeAll() error {
	var errs []error
	if err := d.readDB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("read connection: %w", err))
	}
	if err := d.writeDB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("write connection: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close connections: %v", errs)
	}
	return nil
}

func fileHasData(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.Size() > 0
}
