// Package resource bounds the work the world model does against external storage.
//
// A Controller caps how many entities are unloaded concurrently by an eviction
// sweep, throttles the bytes written to or read from a BlobStore, and tracks
// the memory held by cached blobs. A nil *Controller imposes no limits.
package resource
