// Package codec frames annotation and observation payloads for external storage.
//
// Every payload written to a BlobStore is wrapped in a self-describing frame:
//
//	[type u8][raw-size u32][body...]
//
// The type byte records which compression produced the body, so readers never
// need to know the writer's configuration. Changing the frame layout is a
// breaking change for persisted blobs.
package codec
