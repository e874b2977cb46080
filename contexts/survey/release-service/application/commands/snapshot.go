package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "pollsmith/contexts/survey/release-service/application"
	"pollsmith/contexts/survey/release-service/domain/entities"
	domainerrors "pollsmith/contexts/survey/release-service/domain/errors"
	"pollsmith/contexts/survey/release-service/ports"
)

// SnapshotUseCase freezes the live question set into immutable version and
// release records. Packaging is a two-step commit: the header lands first,
// then the question copy. Readers treat a header without its copy as not yet
// available, so a crash between the writes leaves nothing half-readable.
type SnapshotUseCase struct {
	Snapshots ports.SnapshotRepository
	Polls     ports.PollSource
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (uc SnapshotUseCase) CreateVersion(ctx context.Context, pollID string) (entities.Version, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return entities.Version{}, domainerrors.ErrPollIDRequired
	}
	poll, err := uc.Polls.GetPoll(ctx, pollID)
	if err != nil {
		return entities.Version{}, err
	}
	if len(poll.Questions) == 0 {
		return entities.Version{}, domainerrors.ErrEmptyQuestionSet
	}

	next, err := uc.nextSequence(ctx, pollID, entities.KindVersion)
	if err != nil {
		return entities.Version{}, err
	}
	now := uc.now()
	version := entities.Version{PollID: pollID, Number: next, CreatedAt: now}
	if err := uc.Snapshots.SaveVersion(ctx, version); err != nil {
		return entities.Version{}, err
	}
	if err := uc.Snapshots.SaveQuestionSet(ctx, entities.QuestionSet{
		PollID:    pollID,
		Kind:      entities.KindVersion,
		Number:    next,
		Questions: poll.Questions,
		CreatedAt: now,
	}); err != nil {
		return entities.Version{}, err
	}
	if err := uc.Polls.MarkVersioned(ctx, pollID, now); err != nil {
		return entities.Version{}, err
	}
	application.ResolveLogger(uc.Logger).Info("poll version created",
		"event", "poll_version_created",
		"module", "survey/release-service",
		"layer", "application",
		"poll_id", pollID,
		"version", next,
		"question_count", len(poll.Questions),
	)
	return version, nil
}

func (uc SnapshotUseCase) CreateRelease(ctx context.Context, pollID string) (entities.Release, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return entities.Release{}, domainerrors.ErrPollIDRequired
	}
	poll, err := uc.Polls.GetPoll(ctx, pollID)
	if err != nil {
		return entities.Release{}, err
	}
	if poll.Status == "CLOSED" {
		return entities.Release{}, domainerrors.ErrPollClosed
	}
	if len(poll.Questions) == 0 {
		return entities.Release{}, domainerrors.ErrEmptyQuestionSet
	}

	next, err := uc.nextSequence(ctx, pollID, entities.KindRelease)
	if err != nil {
		return entities.Release{}, err
	}
	now := uc.now()
	release := entities.Release{PollID: pollID, Number: next, CreatedAt: now}
	if err := uc.Snapshots.SaveRelease(ctx, release); err != nil {
		return entities.Release{}, err
	}
	if err := uc.Snapshots.SaveQuestionSet(ctx, entities.QuestionSet{
		PollID:    pollID,
		Kind:      entities.KindRelease,
		Number:    next,
		Questions: poll.Questions,
		CreatedAt: now,
	}); err != nil {
		return entities.Release{}, err
	}
	if err := uc.Polls.MarkReleased(ctx, pollID, now); err != nil {
		return entities.Release{}, err
	}
	application.ResolveLogger(uc.Logger).Info("poll release created",
		"event", "poll_release_created",
		"module", "survey/release-service",
		"layer", "application",
		"poll_id", pollID,
		"release", next,
		"question_count", len(poll.Questions),
	)
	return release, nil
}

// nextSequence computes max existing + 1, defaulting to 1 for a fresh poll.
// Kinds count independently, so releases never consume version numbers.
func (uc SnapshotUseCase) nextSequence(ctx context.Context, pollID string, kind entities.SnapshotKind) (int64, error) {
	max, err := uc.Snapshots.MaxSequence(ctx, pollID, kind)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (uc SnapshotUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
