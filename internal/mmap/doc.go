// Package mmap maps blob files read-only into memory.
//
// LocalStore uses it to serve annotation and snapshot reads without an extra
// copy through kernel buffers. Mappings must be closed; Bytes is invalid
// afterwards.
//
// Unix uses mmap(2); Windows uses CreateFileMapping/MapViewOfFile.
package mmap
