// Package sqlite implements the store interfaces on a local SQLite
// database. The database lives in a single file next to the
// application, which matches the desktop deployment model: no server,
// no credentials, survives restarts.
package sqlite
