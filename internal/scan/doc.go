// Package scan enumerates candidate audio files below a root directory,
// filtered by a case-insensitive extension allow-list.
//
// Walk order is lexical and symlinked directories are never followed, so a
// scan of the same tree always yields the same list. Unreadable entries are
// logged and skipped; only a missing or non-directory root fails the scan.
package scan
