package services

import "errors"

// Scheduling failures are sentinel errors so controllers can map them to the
// right status code and machine tag ("skill" vs "conflict").
var (
	// ErrSkillMismatch: the assigned master is not qualified for the deal's
	// service and the unskilled override was not set.
	ErrSkillMismatch = errors.New("master is not qualified for this service")

	// ErrSchedulingConflict: the requested interval overlaps another booking
	// of the same master.
	ErrSchedulingConflict = errors.New("the time slot is already taken")
)

// NotFoundError marks a missing referenced record (deal, service, master,
// resource, client or booking).
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// ValidationError marks malformed or missing input caught before any write.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
