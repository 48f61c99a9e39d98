package report

import "errors"

var (
	ErrInvalidMonth     = errors.New("month must be between 1 and 12")
	ErrInvalidYear      = errors.New("year must be a valid year")
	ErrInvalidDateRange = errors.New("end date must not be before start date")
	ErrRangeTooLarge    = errors.New("date range must not exceed 366 days")
)
