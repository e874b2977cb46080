package entities

import (
	"strings"
	"time"

	domainerrors "pollsmith/contexts/survey/report-service/domain/errors"
	"pollsmith/internal/shared/keycodec"
	"pollsmith/internal/shared/recurrence"
)

// RecurrenceKey addresses one recurrence window of one poll version. Every
// report record in this service hangs off this triple.
type RecurrenceKey struct {
	PollID  string
	Version int64
	Window  recurrence.Window
}

func (k RecurrenceKey) Validate() error {
	if strings.TrimSpace(k.PollID) == "" {
		return domainerrors.ErrPollIDRequired
	}
	if k.Version <= 0 {
		return domainerrors.ErrVersionRequired
	}
	if err := k.Window.Validate(); err != nil {
		return domainerrors.ErrRecurrenceRequired
	}
	return nil
}

// PartitionKey groups all report rows of one poll version.
func (k RecurrenceKey) PartitionKey() (string, error) {
	encoded, err := keycodec.EncodeSequence(k.Version)
	if err != nil {
		return "", err
	}
	return keycodec.Join(strings.TrimSpace(k.PollID), encoded), nil
}

// SortPrefix is the window segment every sort key under this recurrence
// starts with.
func (k RecurrenceKey) SortPrefix() string {
	return k.Window.Key()
}

// AnswerKey addresses one answer value of one question within a recurrence.
type AnswerKey struct {
	RecurrenceKey
	QuestionID string
	Answer     string
}

func (k AnswerKey) Validate() error {
	if err := k.RecurrenceKey.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(k.QuestionID) == "" {
		return domainerrors.ErrQuestionIDRequired
	}
	if strings.TrimSpace(k.Answer) == "" {
		return domainerrors.ErrAnswerRequired
	}
	return nil
}

// SortKey orders answer counters by window, question, answer. Question ids
// and answer text are caller-supplied, so both are escaped; free text with a
// separator in it must not collide with a neighboring key.
func (k AnswerKey) SortKey() string {
	return keycodec.Join(
		k.Window.Key(),
		keycodec.EscapeSegment(strings.TrimSpace(k.QuestionID)),
		keycodec.EscapeSegment(strings.TrimSpace(k.Answer)),
	)
}

// AnswerReport is the aggregated counter for one answer value. Only the
// aggregation engine mutates it.
type AnswerReport struct {
	Key       AnswerKey
	Count     int64
	UpdatedAt time.Time
}

// VoterReport attributes one voter to one answer they chose. Its presence is
// the fencing token proving the matching counter increment was applied.
type VoterReport struct {
	Key        AnswerKey
	VoterEmail string
	CreatedAt  time.Time
}

func (v VoterReport) Validate() error {
	if err := v.Key.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(v.VoterEmail) == "" {
		return domainerrors.ErrVoterRequired
	}
	return nil
}

// SortKey extends the answer sort key with the voter, so voters of one
// answer are a contiguous range.
func (v VoterReport) SortKey() string {
	return keycodec.Join(v.Key.SortKey(), keycodec.EscapeSegment(strings.TrimSpace(v.VoterEmail)))
}

// ResponseAnswer is one answered question of a finalized response. Checkbox
// questions carry several values.
type ResponseAnswer struct {
	QuestionID string
	Values     []string
}

type AnswerTally struct {
	Answer string
	Count  int64
}

type QuestionTally struct {
	QuestionID string
	TotalVotes int64
	Answers    []AnswerTally
}

// OverviewReport is the per-recurrence aggregate across all questions.
type OverviewReport struct {
	PollID    string
	Version   int64
	Window    recurrence.Window
	Questions []QuestionTally
}

type AnswerDetail struct {
	Answer string
	Count  int64
	Voters []string
}

type QuestionDetail struct {
	QuestionID string
	Answers    []AnswerDetail
}

// DetailReport is the per-recurrence breakdown with voter attribution.
type DetailReport struct {
	PollID    string
	Version   int64
	Window    recurrence.Window
	Questions []QuestionDetail
}
