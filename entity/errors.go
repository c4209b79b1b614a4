package entity

import "errors"

var (
	// ErrStorage wraps every failure to persist or restore a payload.
	ErrStorage = errors.New("storage failure")

	// ErrNoStorage is returned when a payload must move but no store is configured.
	ErrNoStorage = errors.New("no storage configured")

	// ErrReleased is returned when observations are added to a keyframe whose
	// observation collection has been released.
	ErrReleased = errors.New("observations released")
)
