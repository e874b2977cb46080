package errors

import "errors"

var (
	ErrPollIDRequired       = errors.New("Poll Id is required")
	ErrVersionRequired      = errors.New("Poll Version is required")
	ErrRecurrenceRequired   = errors.New("Poll Recurrence is required")
	ErrQuestionIDRequired   = errors.New("question id is required")
	ErrAnswerRequired       = errors.New("answer value is required")
	ErrVoterRequired        = errors.New("voter email is required")
	ErrAnswerReportNotFound = errors.New("answer report not found")
	ErrOverviewNotFound     = errors.New("no overview report exists for this recurrence")
	ErrInvalidStatus        = errors.New("unknown voting status")
)
