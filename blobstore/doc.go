// Package blobstore is the external storage behind unloaded annotations,
// keyframe observations and world snapshots.
//
// A BlobStore addresses immutable byte blobs by slash-separated name. Writes
// replace the whole blob atomically; reads go through a Blob handle so remote
// backends can serve ranges.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem (atomic temp-file + rename writes, mmap reads)
//   - MemoryStore: in-process map, for tests and ephemeral worlds
//   - CachingStore: read-through LRU in front of any other store
//   - s3.Store / s3.CommitStore: Amazon S3 (+ DynamoDB for the CURRENT pointer)
//   - minio.Store: MinIO and other S3-compatible services
//   - sqlite.Store: a single SQLite table
//
// Implementations must be safe for concurrent use and must report missing
// blobs with an error satisfying errors.Is(err, ErrNotFound).
package blobstore
