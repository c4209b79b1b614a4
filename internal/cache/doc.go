// Package cache provides a byte-budgeted LRU for whole blobs.
//
// CachingStore keeps recently loaded annotation frames here so that an entity
// evicted and reloaded in quick succession does not pay a second round trip to
// remote storage. Memory is optionally accounted against a resource.Controller.
package cache
