// Package catalog records capture runs and their saved images in a SQLite
// database under the state directory, for `multicam runs list` and
// `multicam runs show`.
//
// The database carries a schema_version table. A version mismatch is
// reported with ErrSchemaMismatch rather than migrated in place.
package catalog
