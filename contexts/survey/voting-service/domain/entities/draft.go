package entities

import (
	"encoding/json"
	"strings"
	"time"

	domainerrors "pollsmith/contexts/survey/voting-service/domain/errors"
	"pollsmith/internal/shared/keycodec"
	"pollsmith/internal/shared/recurrence"
)

// VotingStatus tracks one voter's participation in one recurrence window.
// Transitions only move forward; SUBMITTED is terminal.
type VotingStatus string

const (
	StatusNotStarted VotingStatus = "NOT_STARTED"
	StatusInProgress VotingStatus = "IN_PROGRESS"
	StatusSubmitted  VotingStatus = "SUBMITTED"
)

func (s VotingStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusSubmitted:
		return true
	}
	return false
}

func (s VotingStatus) rank() int {
	switch s {
	case StatusInProgress:
		return 1
	case StatusSubmitted:
		return 2
	}
	return 0
}

// CanAdvanceTo reports whether moving to next keeps the state machine
// forward-only. Writing the same status again is allowed.
func (s VotingStatus) CanAdvanceTo(next VotingStatus) bool {
	return next.rank() >= s.rank()
}

// ResponseKey is the 5-tuple (minus question) every voting record hangs off:
// poll, version, recurrence window, voter. Records for different windows or
// voters never share a key.
type ResponseKey struct {
	PollID     string
	Version    int64
	Window     recurrence.Window
	VoterEmail string
}

func (k ResponseKey) Validate() error {
	if strings.TrimSpace(k.PollID) == "" {
		return domainerrors.ErrPollIDRequired
	}
	if k.Version <= 0 {
		return domainerrors.ErrVersionRequired
	}
	if err := k.Window.Validate(); err != nil {
		return domainerrors.ErrWindowRequired
	}
	if strings.TrimSpace(k.VoterEmail) == "" {
		return domainerrors.ErrVoterRequired
	}
	return nil
}

// PartitionKey groups all records of one poll version for range scans.
func (k ResponseKey) PartitionKey() (string, error) {
	encoded, err := keycodec.EncodeSequence(k.Version)
	if err != nil {
		return "", err
	}
	return keycodec.Join(strings.TrimSpace(k.PollID), encoded), nil
}

// SortKey orders records by recurrence window, then voter. The email is
// escaped so it cannot carry the segment separator into the key.
func (k ResponseKey) SortKey() string {
	return keycodec.Join(k.Window.Key(), keycodec.EscapeSegment(strings.TrimSpace(k.VoterEmail)))
}

// Draft is a voter's overwritable partial response for one window. The
// content blob is client-owned and passes through untouched.
type Draft struct {
	Key       ResponseKey
	Content   json.RawMessage
	UpdatedAt time.Time
}

// DraftAnswer is the per-question slice of a draft. Checkbox questions carry
// several selected options; free-text questions carry FreeText only.
type DraftAnswer struct {
	Key             ResponseKey
	QuestionID      string
	SelectedOptions []string
	FreeText        string
	UpdatedAt       time.Time
}

// Values flattens the answer into the list of answer values submission
// aggregates over.
func (a DraftAnswer) Values() []string {
	if len(a.SelectedOptions) > 0 {
		return a.SelectedOptions
	}
	if strings.TrimSpace(a.FreeText) != "" {
		return []string{strings.TrimSpace(a.FreeText)}
	}
	return nil
}

type VoterStatus struct {
	Key       ResponseKey
	Status    VotingStatus
	UpdatedAt time.Time
}
