// Package migrations embeds the SQL migration files so they can be used
// by the goose programmatic API in tests, the migrate command and server
// bootstrap. Each supported database has its own directory.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Postgres holds the Postgres migrations, rooted at their directory.
var Postgres = mustSub("postgres")

// SQLite holds the SQLite migrations, rooted at their directory.
var SQLite = mustSub("sqlite")

// ForDriver returns the goose dialect and migration set for a DB_DRIVER value.
func ForDriver(driver string) (goose.Dialect, fs.FS, error) {
	switch driver {
	case "postgres":
		return goose.DialectPostgres, Postgres, nil
	case "sqlite":
		return goose.DialectSQLite3, SQLite, nil
	default:
		return "", nil, fmt.Errorf("migrations: unknown driver %q", driver)
	}
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
