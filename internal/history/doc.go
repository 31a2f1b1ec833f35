// Package history records completed analysis runs in a local SQLite
// database so past results stay queryable from the CLI.
package history
