// Package entity defines the graph nodes of the world model.
//
// An Entity is a tagged variant over Pose, Calibration and KeyFrame. Every
// entity owns a set of named Annotations, each of which is either Resident
// (payload in memory) or Unloaded (payload persisted under an external path).
// KeyFrames additionally own the raw sensor Observations they were built from.
//
// # Lifecycle
//
// Unload persists every resident payload through a Storage and then releases
// it. Persisting happens for all payloads before anything is released, so a
// storage failure leaves the entity fully resident. Load reverses the process.
// Both are idempotent.
//
// # Record format
//
// Encode writes a manifest of where payloads live, never the payloads:
//
//	[id u64][sec i64][nsec u32][count u32] ([name str][path str]) × count
//
// Integers are little-endian, strings are a u32 length followed by bytes and
// annotations appear in name order. Decode yields an entity whose
// annotations are all Unloaded.
package entity
