package sqliteutil

import (
	"database/sql"
	"net/url"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// OpenDB opens the database at `path` and applies the schema. `path`
// is either a local sqlite file (":memory:" works) or a libsql:// /
// https:// url of a remote replica.
func OpenDB(schema, path string) (*sql.DB, error) {
	driver := driverFor(path)
	database, err := sql.Open(driver, path)
	if err != nil {
		return nil, err
	}

	// every pooled connection gets an independent view of the database
	// under modernc sqlite, a second connection to :memory: starts out
	// empty. a single connection keeps the pool coherent and
	// serializes writers.
	database.SetMaxOpenConns(1)

	if driver == "sqlite" && path != ":memory:" {
		_, err = database.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			database.Close()
			return nil, err
		}
	}

	_, err = database.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		database.Close()
		return nil, err
	}
	return database, nil
}

func driverFor(path string) string {
	u, err := url.Parse(path)
	if err != nil {
		return "sqlite"
	}
	switch u.Scheme {
	case "libsql", "https", "wss", "http", "ws":
		return "libsql"
	}
	return "sqlite"
}
