// Package dictsource ships reference SQL-backed Dictionary implementations,
// one per supported engine, selected by DSN scheme. They exist to exercise
// the dictionary.Dictionary interface against a real backing store and to
// seed integration tests; the lattice/search/filter core never imports this
// package, and nothing here sits on the hot conversion path.
//
// DSN-driven driver selection, sql.Open/Ping, and connection-pool sizing
// follow the same DBManager.Connect shape used for security-scan
// connections elsewhere in this toolchain, repurposed here for dictionary
// token lookups.
package dictsource

import (
	"context"
	"database/sql"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"kanaconv/internal/dictionary"
)

// placeholder names the positional-parameter syntax a driver expects.
type placeholder int

const (
	placeholderQuestion placeholder = iota // MySQL, SQLite: ?
	placeholderDollar                      // PostgreSQL: $1
	placeholderAtP                         // SQL Server: @p1
)

func (p placeholder) arg(n int) string {
	switch p {
	case placeholderDollar:
		return "$" + strconv.Itoa(n)
	case placeholderAtP:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// Source is one SQL-backed dictionary.Dictionary, holding a single table
// of (reading, surface, lid, rid, wcost) rows plus three of the per-token
// flags dictionary.Token carries (spelling correction, suffix dictionary,
// no variants expansion); IsUserDictionary is not stored.
type Source struct {
	db     *sql.DB
	engine string
	ph     placeholder
}

var _ dictionary.Dictionary = (*Source)(nil)

const dictTable = "dict_entries"

// Open parses dsn's scheme to pick a driver (mysql, postgres/postgresql,
// sqlite/sqlite3/file, sqlserver), opens and pings the connection, and
// sizes its pool the way DBManager.Connect does. The caller owns the
// returned Source and must Close it.
func Open(ctx context.Context, dsn string) (*Source, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "dictsource: parse dsn")
	}

	var driver, connDSN string
	ph := placeholderQuestion
	switch strings.ToLower(u.Scheme) {
	case "mysql":
		driver, connDSN = "mysql", strings.TrimPrefix(dsn, "mysql://")
	case "postgres", "postgresql":
		driver, connDSN, ph = "postgres", dsn, placeholderDollar
	case "sqlite", "sqlite3", "file":
		driver, connDSN = "sqlite3", u.Opaque
		if connDSN == "" {
			connDSN = u.Path
		}
	case "sqlserver":
		driver, connDSN, ph = "sqlserver", dsn, placeholderAtP
	default:
		return nil, errors.Errorf("dictsource: unsupported dsn scheme %q", u.Scheme)
	}

	db, err := sql.Open(driver, connDSN)
	if err != nil {
		return nil, errors.Wrapf(err, "dictsource: open %s", driver)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "dictsource: ping %s", driver)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Source{db: db, engine: driver, ph: ph}, nil
}

// Close releases the underlying connection pool.
func (s *Source) Close() error { return s.db.Close() }

// Engine reports the driver name this Source was opened with ("mysql",
// "postgres", "sqlite3", or "sqlserver").
func (s *Source) Engine() string { return s.engine }

// LoadAll opens every dsn concurrently (one dictionary source rarely
// blocks on another) and returns the Sources in dsns order. If any open
// fails, every Source opened so far is closed and the first error is
// returned. golang.org/x/sync/errgroup collapses the fan-out/fan-in into
// one Wait.
func LoadAll(ctx context.Context, dsns []string) ([]*Source, error) {
	sources := make([]*Source, len(dsns))
	g, gctx := errgroup.WithContext(ctx)
	for i, dsn := range dsns {
		i, dsn := i, dsn
		g.Go(func() error {
			src, err := Open(gctx, dsn)
			if err != nil {
				return err
			}
			sources[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, s := range sources {
			if s != nil {
				s.Close()
			}
		}
		return nil, err
	}
	return sources, nil
}
