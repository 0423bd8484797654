package catalog

import "errors"

var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrNameRequired           = errors.New("session name is required")
	ErrInvalidCapacity        = errors.New("capacity must be a positive integer")
	ErrEndNotAfterStart       = errors.New("the end time must be after the start time")
	ErrPastSession            = errors.New("session date and time cannot be in the past")
	ErrOverlappingSession     = errors.New("a session with this name and date already exists at an overlapping time")
	ErrCapacityBelowOccupancy = errors.New("capacity cannot be reduced below the current number of reserved spots")
)
