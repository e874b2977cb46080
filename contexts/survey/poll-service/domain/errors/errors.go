package errors

import "errors"

var (
	ErrPollIDRequired       = errors.New("Poll Id is required")
	ErrPollNotFound         = errors.New("poll not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrEditFieldsRequired   = errors.New("title or description is required")
	ErrTitleBlank           = errors.New("Title cannot be blanked")
	ErrCreatorRequired      = errors.New("creator email is required")
	ErrInvalidRecurrence    = errors.New("invalid recurrence type")
	ErrInvalidQuestionInput = errors.New("invalid question input")
	ErrQuestionSetReleased  = errors.New("question set is covered by a release; take a new version before editing")
)
