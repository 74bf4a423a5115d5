package db

import "database/sql"

// DB wraps the shared sql handle so stores and services take a
// package-local type instead of a bare *sql.DB.
type DB struct {
	*sql.DB
}
