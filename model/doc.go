// Package model defines the identifier types shared by every worldmodel package.
//
// # Identity Types
//
//   - EntityID: identifier of a graph node (pose, calibration, keyframe)
//   - FactorID: identifier of a graph edge (observation/constraint)
//
// The two identifier spaces are disjoint and monotonically allocated.
// Identifiers are never reused within a process lifetime. Zero is reserved as
// InvalidID in both spaces.
package model
