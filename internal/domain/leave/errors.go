package leave

import "errors"

var (
	ErrLeaveRequestNotFound = errors.New("leave request not found")
	ErrInvalidRange         = errors.New("invalid leave range: start must not be in the past and end must not precede start")
	ErrNotPending           = errors.New("leave request is not pending")
	ErrInvalidOutcome       = errors.New("leave decision must be approved or rejected")
	ErrLeaveNotApproved     = errors.New("attendance can only be written for an approved leave")
	ErrForbidden            = errors.New("not allowed to view this leave request")
)
