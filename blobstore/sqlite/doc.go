// Package sqlite provides a single-file BlobStore backed by SQLite.
//
// All blobs live in one table of one database file, which keeps a robot's
// offloaded world state in a single artifact that is easy to copy off the
// device. The driver is the pure-Go modernc.org/sqlite, so no cgo toolchain
// is needed on the target.
package sqlite
