package releaseservice

import (
	"context"
	"errors"
	"testing"

	"pollsmith/contexts/survey/release-service/domain/entities"
	domainerrors "pollsmith/contexts/survey/release-service/domain/errors"
	"pollsmith/internal/shared/recurrence"
)

func seedPoll(module Module, pollID string) {
	module.Store.SeedPoll(entities.PollInfo{
		PollID:     pollID,
		Status:     "IDLE",
		Recurrence: recurrence.TypeWeekly,
		Questions: []entities.Question{
			{QuestionID: "q1", Type: "MULTIPLE", Content: "Pick one", Options: []string{"A", "B"}, Position: 1},
			{QuestionID: "q2", Type: "TEXT_BOX", Content: "Say more", Position: 2},
		},
	})
}

func TestCreateVersionSequencesNeverReuse(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedPoll(module, "p1")

	first, err := module.Handler.CreateVersionHandler(context.Background(), "p1")
	if err != nil {
		t.Fatalf("first version: %v", err)
	}
	if first.Version.Number != 1 {
		t.Fatalf("expected version 1, got %d", first.Version.Number)
	}

	// Mutating the live set between saves must not disturb numbering.
	module.Store.SeedPoll(entities.PollInfo{
		PollID: "p1",
		Status: "IDLE",
		Questions: []entities.Question{
			{QuestionID: "q3", Type: "TEXT_BOX", Content: "Replacement", Position: 1},
		},
	})
	second, err := module.Handler.CreateVersionHandler(context.Background(), "p1")
	if err != nil {
		t.Fatalf("second version: %v", err)
	}
	if second.Version.Number != 2 {
		t.Fatalf("expected version 2, got %d", second.Version.Number)
	}
}

func TestVersionAndReleaseSequencesAreIndependent(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedPoll(module, "p1")

	if _, err := module.Handler.CreateVersionHandler(context.Background(), "p1"); err != nil {
		t.Fatalf("version 1: %v", err)
	}
	if _, err := module.Handler.CreateVersionHandler(context.Background(), "p1"); err != nil {
		t.Fatalf("version 2: %v", err)
	}
	release, err := module.Handler.CreateReleaseHandler(context.Background(), "p1")
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if release.Release.Number != 1 {
		t.Fatalf("release sequence should start at 1, got %d", release.Release.Number)
	}
}

func TestLatestAndListQueries(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedPoll(module, "p1")

	for i := 0; i < 3; i++ {
		if _, err := module.Handler.CreateVersionHandler(context.Background(), "p1"); err != nil {
			t.Fatalf("version %d: %v", i+1, err)
		}
	}
	latest, err := module.Handler.LatestVersionHandler(context.Background(), "p1")
	if err != nil {
		t.Fatalf("latest version: %v", err)
	}
	if latest.Version.Number != 3 {
		t.Fatalf("expected latest 3, got %d", latest.Version.Number)
	}

	list, err := module.Handler.ListVersionsHandler(context.Background(), "p1")
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(list.Versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(list.Versions))
	}
	for i, version := range list.Versions {
		if version.Number != int64(i+1) {
			t.Fatalf("versions out of order at %d: %d", i, version.Number)
		}
	}
}

func TestLatestWithoutHistoryIsNotFound(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedPoll(module, "p1")

	if _, err := module.Handler.LatestVersionHandler(context.Background(), "p1"); !errors.Is(err, domainerrors.ErrVersionNotFound) {
		t.Fatalf("expected ErrVersionNotFound, got %v", err)
	}
	if _, err := module.Handler.LatestReleaseHandler(context.Background(), "p1"); !errors.Is(err, domainerrors.ErrReleaseNotFound) {
		t.Fatalf("expected ErrReleaseNotFound, got %v", err)
	}
}

func TestPackagedQuestionsFrozenAtCreation(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedPoll(module, "p1")

	if _, err := module.Handler.CreateVersionHandler(context.Background(), "p1"); err != nil {
		t.Fatalf("version: %v", err)
	}
	// Live edits after packaging must not leak into the frozen copy.
	module.Store.SeedPoll(entities.PollInfo{
		PollID:    "p1",
		Status:    "IDLE",
		Questions: []entities.Question{{QuestionID: "q9", Type: "TEXT_BOX", Content: "New", Position: 1}},
	})

	set, err := module.Handler.VersionQuestionsHandler(context.Background(), "p1", 1)
	if err != nil {
		t.Fatalf("packaged questions: %v", err)
	}
	if len(set.Questions) != 2 {
		t.Fatalf("expected frozen copy of 2 questions, got %d", len(set.Questions))
	}
	if set.Questions[0].QuestionID != "q1" {
		t.Fatalf("unexpected frozen question: %q", set.Questions[0].QuestionID)
	}
}

func TestHeaderWithoutCopyReadsAsUnavailable(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedPoll(module, "p1")

	// Simulate a crash between the header write and the question-set write.
	if err := module.Store.SaveVersion(context.Background(), entities.Version{PollID: "p1", Number: 1}); err != nil {
		t.Fatalf("save header: %v", err)
	}
	_, err := module.Handler.VersionQuestionsHandler(context.Background(), "p1", 1)
	if !errors.Is(err, domainerrors.ErrQuestionSetUnavailable) {
		t.Fatalf("expected ErrQuestionSetUnavailable, got %v", err)
	}
}

func TestReleaseMarksPollInProgress(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedPoll(module, "p1")

	if _, err := module.Handler.CreateReleaseHandler(context.Background(), "p1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	poll, err := module.Store.GetPoll(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get poll: %v", err)
	}
	if poll.Status != "IN PROGRESS" {
		t.Fatalf("expected IN PROGRESS, got %q", poll.Status)
	}
	if poll.LastReleasedAt == nil {
		t.Fatal("release mark missing")
	}
}

func TestClosedPollRejectsRelease(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SeedPoll(entities.PollInfo{
		PollID:    "p1",
		Status:    "CLOSED",
		Questions: []entities.Question{{QuestionID: "q1", Type: "TEXT_BOX", Content: "x", Position: 1}},
	})

	_, err := module.Handler.CreateReleaseHandler(context.Background(), "p1")
	if !errors.Is(err, domainerrors.ErrPollClosed) {
		t.Fatalf("expected ErrPollClosed, got %v", err)
	}
}

func TestValidationAndMissingPoll(t *testing.T) {
	module := NewInMemoryModule(nil)

	if _, err := module.Handler.CreateVersionHandler(context.Background(), "  "); !errors.Is(err, domainerrors.ErrPollIDRequired) {
		t.Fatalf("expected ErrPollIDRequired, got %v", err)
	}
	if _, err := module.Handler.CreateVersionHandler(context.Background(), "ghost"); !errors.Is(err, domainerrors.ErrPollNotFound) {
		t.Fatalf("expected ErrPollNotFound, got %v", err)
	}

	module.Store.SeedPoll(entities.PollInfo{PollID: "empty", Status: "IDLE"})
	if _, err := module.Handler.CreateVersionHandler(context.Background(), "empty"); !errors.Is(err, domainerrors.ErrEmptyQuestionSet) {
		t.Fatalf("expected ErrEmptyQuestionSet, got %v", err)
	}

	if _, err := module.Handler.VersionQuestionsHandler(context.Background(), "empty", 0); !errors.Is(err, domainerrors.ErrInvalidSequenceNumber) {
		t.Fatalf("expected ErrInvalidSequenceNumber, got %v", err)
	}
}
