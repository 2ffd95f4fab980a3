package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/trezcool/ecole/core"
	filedb "github.com/trezcool/ecole/storage/database/file"
	inmemdb "github.com/trezcool/ecole/storage/database/inmem"
	"github.com/trezcool/ecole/storage/database/migrations"
	sqlxdb "github.com/trezcool/ecole/storage/database/sqlx"
)

var gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
	return goose.RunFS(command, db, migrations.FS, ".", args...)
} // mockable

func open(dbName string, admin bool, conf *core.Config) (*sql.DB, error) {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sql.Open(conf.Database.Engine, u.String())
}

func Open(conf *core.Config) (*sql.DB, error) {
	return open(conf.Database.Name, false, conf)
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sql.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// exists runs a `SELECT true ... WHERE x = $1` query.
func exists(ctx context.Context, db *sql.DB, query, arg string) (bool, error) {
	var found bool
	err := db.QueryRowContext(ctx, query, arg).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return found, err
}

func createAppUser(ctx context.Context, db *sql.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}
	found, err := exists(ctx, db, "SELECT true FROM pg_roles WHERE rolname = $1", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if found {
		return nil
	}
	// identifiers and passwords cannot be bound as parameters
	q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD %s",
		pq.QuoteIdentifier(conf.Database.User), pq.QuoteLiteral(conf.Database.Password))
	_, err = db.ExecContext(ctx, q)
	return errors.Wrap(err, "creating app user")
}

func createDB(ctx context.Context, db *sql.DB, conf *core.Config) error {
	found, err := exists(ctx, db, "SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if found {
		return nil
	}
	_, err = db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(conf.Database.Name))
	return errors.Wrap(err, "creating database")
}

// CreateIfNotExist creates the app user (as admin) then the app database (as the app user).
func CreateIfNotExist(ctx context.Context, conf *core.Config) error {
	admin, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = admin.Close() }()
	if err = ping(ctx, admin); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(ctx, admin, conf); err != nil {
		return err
	}

	db, err := open("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()
	return createDB(ctx, db, conf)
}

// Migrate runs a goose command ("up", "down", "status", ...) over the embedded migrations.
func Migrate(db *sql.DB, command string, args ...string) error {
	if err := gooseRunFunc(command, db, args...); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// OpenKV opens the key-value store selected by conf.Storage.Engine.
// The postgres engine creates the database if needed and migrates it.
func OpenKV(ctx context.Context, conf *core.Config) (core.KVStore, error) {
	switch conf.Storage.Engine {
	case core.StorageMemory:
		return inmemdb.Open(), nil
	case core.StorageFile, "":
		return filedb.Open(conf.Storage.Dir)
	case core.StoragePostgres:
		if err := CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}
		db, err := Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		if err := ping(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := Migrate(db, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return sqlxdb.New(db), nil
	default:
		return nil, errors.Errorf("unknown storage engine %q", conf.Storage.Engine)
	}
}
