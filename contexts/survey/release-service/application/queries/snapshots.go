package queries

import (
	"context"
	"strings"

	"pollsmith/contexts/survey/release-service/domain/entities"
	domainerrors "pollsmith/contexts/survey/release-service/domain/errors"
	"pollsmith/contexts/survey/release-service/ports"
)

type SnapshotQueryUseCase struct {
	Snapshots ports.SnapshotRepository
}

func (uc SnapshotQueryUseCase) LatestVersion(ctx context.Context, pollID string) (entities.Version, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return entities.Version{}, domainerrors.ErrPollIDRequired
	}
	return uc.Snapshots.LatestVersion(ctx, pollID)
}

func (uc SnapshotQueryUseCase) LatestRelease(ctx context.Context, pollID string) (entities.Release, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return entities.Release{}, domainerrors.ErrPollIDRequired
	}
	return uc.Snapshots.LatestRelease(ctx, pollID)
}

func (uc SnapshotQueryUseCase) Versions(ctx context.Context, pollID string) ([]entities.Version, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return nil, domainerrors.ErrPollIDRequired
	}
	return uc.Snapshots.ListVersions(ctx, pollID)
}

func (uc SnapshotQueryUseCase) Releases(ctx context.Context, pollID string) ([]entities.Release, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return nil, domainerrors.ErrPollIDRequired
	}
	return uc.Snapshots.ListReleases(ctx, pollID)
}

// QuestionsForVersion returns the frozen copy for one version number. A
// header whose copy has not landed yet surfaces the same way as a missing
// version.
func (uc SnapshotQueryUseCase) QuestionsForVersion(ctx context.Context, pollID string, number int64) (entities.QuestionSet, error) {
	return uc.questionSet(ctx, pollID, entities.KindVersion, number)
}

func (uc SnapshotQueryUseCase) QuestionsForRelease(ctx context.Context, pollID string, number int64) (entities.QuestionSet, error) {
	return uc.questionSet(ctx, pollID, entities.KindRelease, number)
}

func (uc SnapshotQueryUseCase) questionSet(ctx context.Context, pollID string, kind entities.SnapshotKind, number int64) (entities.QuestionSet, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return entities.QuestionSet{}, domainerrors.ErrPollIDRequired
	}
	if number <= 0 {
		return entities.QuestionSet{}, domainerrors.ErrInvalidSequenceNumber
	}
	return uc.Snapshots.GetQuestionSet(ctx, pollID, kind, number)
}
