package errors

import "errors"

var (
	ErrPollIDRequired     = errors.New("Poll Id is required")
	ErrVersionRequired    = errors.New("poll version is required")
	ErrWindowRequired     = errors.New("recurrence window is required")
	ErrVoterRequired      = errors.New("voter email is required")
	ErrQuestionIDRequired = errors.New("question id is required")
	ErrInvalidStatus      = errors.New("unknown voting status")
	ErrStatusRegression   = errors.New("voting status can only move forward")
	ErrAlreadySubmitted   = errors.New("response already submitted for this recurrence")
)
