// Package layout creates the per-run directory tree:
//
//	<base>/Camera Run <YYYY-MM-DD HHhr MMmin SSs>/Camera <label>/
//
// The tree is created once per run before the first capture round and is
// immutable afterwards. Filesystem access goes through afero so tests can
// substitute memory or read-only filesystems.
package layout
