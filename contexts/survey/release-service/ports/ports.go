package ports

import (
	"context"
	"time"

	"pollsmith/contexts/survey/release-service/domain/entities"
)

// SnapshotRepository persists the append-only version/release history. Header
// and question-set writes are separate operations and are never updated in
// place.
type SnapshotRepository interface {
	SaveVersion(ctx context.Context, version entities.Version) error
	SaveRelease(ctx context.Context, release entities.Release) error
	SaveQuestionSet(ctx context.Context, set entities.QuestionSet) error
	MaxSequence(ctx context.Context, pollID string, kind entities.SnapshotKind) (int64, error)
	LatestVersion(ctx context.Context, pollID string) (entities.Version, error)
	LatestRelease(ctx context.Context, pollID string) (entities.Release, error)
	ListVersions(ctx context.Context, pollID string) ([]entities.Version, error)
	ListReleases(ctx context.Context, pollID string) ([]entities.Release, error)
	GetQuestionSet(ctx context.Context, pollID string, kind entities.SnapshotKind, number int64) (entities.QuestionSet, error)
}

// PollSource exposes the poll aggregate to the packager: reading the live
// question set and stamping the marks that gate live-set mutation.
type PollSource interface {
	GetPoll(ctx context.Context, pollID string) (entities.PollInfo, error)
	MarkVersioned(ctx context.Context, pollID string, at time.Time) error
	MarkReleased(ctx context.Context, pollID string, at time.Time) error
}

type Clock interface {
	Now() time.Time
}
