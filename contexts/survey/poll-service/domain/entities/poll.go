package entities

import (
	"time"

	"pollsmith/internal/shared/recurrence"
)

type PollStatus string

const (
	PollStatusIdle       PollStatus = "IDLE"
	PollStatusInProgress PollStatus = "IN PROGRESS"
	PollStatusClosed     PollStatus = "CLOSED"
)

type QuestionType string

const (
	QuestionTypeMultiple QuestionType = "MULTIPLE"
	QuestionTypeCheckbox QuestionType = "CHECKBOX"
	QuestionTypeTextBox  QuestionType = "TEXT_BOX"
)

// Question belongs to a poll's live set. The identifier stays stable across
// edits and is only retired when the question is deleted.
type Question struct {
	QuestionID string
	Type       QuestionType
	Content    string
	Required   bool
	Options    []string
	Position   int
}

// Poll is the mutable authoring aggregate. Versions and releases copy its
// question set out; the poll itself stays editable until released.
type Poll struct {
	PollID          string
	CreatorEmail    string
	Title           string
	Description     string
	Status          PollStatus
	Recurrence      recurrence.Type
	Questions       []Question
	LastVersionedAt *time.Time
	LastReleasedAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LiveSetMutable reports whether the live question set may still change.
// Once a release covers the current set, mutation stays blocked until a newer
// version supersedes that release.
func (p Poll) LiveSetMutable() bool {
	if p.LastReleasedAt == nil {
		return true
	}
	return p.LastVersionedAt != nil && p.LastVersionedAt.After(*p.LastReleasedAt)
}

// FindQuestion returns the index of the question or -1.
func (p Poll) FindQuestion(questionID string) int {
	for i, question := range p.Questions {
		if question.QuestionID == questionID {
			return i
		}
	}
	return -1
}
