package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/wiremsg-server/internal/store"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// sqliteDriverName is the go-sqlite3 driver with connection hooks applied.
const sqliteDriverName = "sqlite3_wiremsg"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// The built-in lower() folds ASCII only.
			return conn.RegisterFunc("lower", unicodeLower, true)
		},
	})
}

func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		return strings.ToLower(string(s))
	default:
		return v
	}
}

// SQLStore implements store.Store over database/sql for SQLite and PostgreSQL.
// Queries are written with '?' placeholders and rebound for PostgreSQL.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// New opens a store for the given driver.
// For SQLite dsn is a file path (or ":memory:"), for pgx a libpq-style connection string.
func New(driver, dsn string) (*SQLStore, error) {
	return NewWithSetup(driver, dsn, nil)
}

// NewWithSetup opens a store and runs a setup function before the first ping.
// Useful for tests to apply schema or seed rows.
func NewWithSetup(driver, dsn string, setup func(*sql.DB) error) (*SQLStore, error) {
	db, err := open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return &SQLStore{db: db, driver: driver}, nil
}

func open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite:
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		db, err := sql.Open(sqliteDriverName, dsn+sep+"_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite works best with single connection; it also keeps ":memory:" databases alive.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return db, nil
	case DriverPostgres:
		db, err := sql.Open(DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Driver reports the database/sql driver name the store was opened with.
func (s *SQLStore) Driver() string {
	return s.driver
}

// rebind rewrites '?' placeholders into PostgreSQL's positional form.
func (s *SQLStore) rebind(query string) string {
	return rebind(s.driver, query)
}

func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isUniqueViolation recognizes unique-constraint failures from either driver.
func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// likePattern builds a case-insensitive substring pattern for LIKE ... ESCAPE '\'.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Ensure SQLStore implements store.Store
var _ store.Store = (*SQLStore)(nil)
