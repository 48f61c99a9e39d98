package attendance

import "errors"

// Attendance domain errors
var (
	// Workflow violations
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrNotCheckedIn      = errors.New("please check in first")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
	ErrOnApprovedLeave   = errors.New("cannot check in on a day covered by approved leave")

	// Storage
	ErrRecordNotFound = errors.New("attendance record not found")
	ErrConflict       = errors.New("attendance record already exists for this day")
	ErrTransient      = errors.New("attendance is being updated concurrently, please retry")

	ErrEmployeeIDRequired = errors.New("employee id is required")
)
