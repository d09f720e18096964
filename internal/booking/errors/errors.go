package errors

import "errors"

var (
	ErrSubmissionInFlight = errors.New("a reservation is already being submitted")

	ErrDraftNotReady = errors.New("booking draft is not ready for submission")

	ErrInvalidTimeRange = errors.New("end time must be after start time")
)
