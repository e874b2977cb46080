package errors

import "errors"

var (
	ErrPollIDRequired         = errors.New("Poll Id is required")
	ErrPollNotFound           = errors.New("poll not found")
	ErrVersionNotFound        = errors.New("poll version not found")
	ErrReleaseNotFound        = errors.New("poll release not found")
	ErrInvalidSequenceNumber  = errors.New("sequence number must be a positive integer")
	ErrQuestionSetUnavailable = errors.New("question set not yet available")
	ErrEmptyQuestionSet       = errors.New("poll has no questions to snapshot")
	ErrSequenceConflict       = errors.New("snapshot sequence already taken")
	ErrPollClosed             = errors.New("poll is closed")
)
