// Package fs abstracts the filesystem calls LocalStore makes.
//
//   - [LocalFS]: production implementation on top of package os
//   - [FaultyFS]: wraps another FileSystem and injects write, sync, close or
//     rename failures for files whose name contains a pattern
//
// Tests use FaultyFS to drive the storage-failure paths of annotation unload
// (the entity must stay resident when its payload cannot be written).
//
// Filesystem calls take no context.Context: local syscalls are not
// interruptible. Slow remote stores go through blobstore, which does.
package fs
