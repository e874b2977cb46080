package entities

import (
	"time"

	"pollsmith/internal/shared/keycodec"
	"pollsmith/internal/shared/recurrence"
)

// SnapshotKind distinguishes the two independent sequence families a poll
// carries. Version and release numbers never share a counter.
type SnapshotKind string

const (
	KindVersion SnapshotKind = "VERSION"
	KindRelease SnapshotKind = "RELEASE"
)

// Question is the denormalized copy frozen into a snapshot. It mirrors the
// live question shape at freeze time and never changes afterwards.
type Question struct {
	QuestionID string
	Type       string
	Content    string
	Required   bool
	Options    []string
	Position   int
}

// PollInfo is the slice of the poll aggregate the packager needs: the live
// question set plus the marks that gate live-set mutation.
type PollInfo struct {
	PollID          string
	Status          string
	Recurrence      recurrence.Type
	Questions       []Question
	LastVersionedAt *time.Time
	LastReleasedAt  *time.Time
}

// Version is an immutable snapshot header. The question copy is stored
// separately; a header whose copy has not landed yet reads as absent.
type Version struct {
	PollID    string
	Number    int64
	CreatedAt time.Time
}

// Release is an immutable deployment header. Respondents vote against
// releases, not versions.
type Release struct {
	PollID    string
	Number    int64
	CreatedAt time.Time
}

// QuestionSet is the frozen question copy for one snapshot header.
type QuestionSet struct {
	PollID    string
	Kind      SnapshotKind
	Number    int64
	Questions []Question
	CreatedAt time.Time
}

// SortKey renders the range-scannable key for a snapshot record. The encoded
// number keeps lexicographic order aligned with numeric order, so "latest" is
// a reverse scan over one kind prefix.
func SortKey(kind SnapshotKind, number int64) (string, error) {
	encoded, err := keycodec.EncodeSequence(number)
	if err != nil {
		return "", err
	}
	return keycodec.Join(string(kind), encoded), nil
}
