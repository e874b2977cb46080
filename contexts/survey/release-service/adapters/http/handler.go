package httpadapter

import (
	"context"
	"log/slog"

	"pollsmith/contexts/survey/release-service/application/commands"
	"pollsmith/contexts/survey/release-service/application/queries"
	"pollsmith/contexts/survey/release-service/domain/entities"
	httptransport "pollsmith/contexts/survey/release-service/transport/http"
)

type Handler struct {
	Snapshots commands.SnapshotUseCase
	Queries   queries.SnapshotQueryUseCase
	Logger    *slog.Logger
}

func (h Handler) CreateVersionHandler(ctx context.Context, pollID string) (httptransport.VersionResponse, error) {
	version, err := h.Snapshots.CreateVersion(ctx, pollID)
	if err != nil {
		return httptransport.VersionResponse{}, err
	}
	return httptransport.VersionResponse{
		Message: "Poll version created successfully",
		Version: httptransport.SnapshotPayload{PollID: version.PollID, Number: version.Number, CreatedAt: version.CreatedAt},
	}, nil
}

func (h Handler) CreateReleaseHandler(ctx context.Context, pollID string) (httptransport.ReleaseResponse, error) {
	release, err := h.Snapshots.CreateRelease(ctx, pollID)
	if err != nil {
		return httptransport.ReleaseResponse{}, err
	}
	return httptransport.ReleaseResponse{
		Message: "Poll release created successfully",
		Release: httptransport.SnapshotPayload{PollID: release.PollID, Number: release.Number, CreatedAt: release.CreatedAt},
	}, nil
}

func (h Handler) LatestVersionHandler(ctx context.Context, pollID string) (httptransport.VersionResponse, error) {
	version, err := h.Queries.LatestVersion(ctx, pollID)
	if err != nil {
		return httptransport.VersionResponse{}, err
	}
	return httptransport.VersionResponse{
		Message: "Latest poll version retrieved successfully",
		Version: httptransport.SnapshotPayload{PollID: version.PollID, Number: version.Number, CreatedAt: version.CreatedAt},
	}, nil
}

func (h Handler) LatestReleaseHandler(ctx context.Context, pollID string) (httptransport.ReleaseResponse, error) {
	release, err := h.Queries.LatestRelease(ctx, pollID)
	if err != nil {
		return httptransport.ReleaseResponse{}, err
	}
	return httptransport.ReleaseResponse{
		Message: "Latest poll release retrieved successfully",
		Release: httptransport.SnapshotPayload{PollID: release.PollID, Number: release.Number, CreatedAt: release.CreatedAt},
	}, nil
}

func (h Handler) ListVersionsHandler(ctx context.Context, pollID string) (httptransport.VersionListResponse, error) {
	versions, err := h.Queries.Versions(ctx, pollID)
	if err != nil {
		return httptransport.VersionListResponse{}, err
	}
	items := make([]httptransport.SnapshotPayload, 0, len(versions))
	for _, version := range versions {
		items = append(items, httptransport.SnapshotPayload{PollID: version.PollID, Number: version.Number, CreatedAt: version.CreatedAt})
	}
	return httptransport.VersionListResponse{
		Message:  "Poll versions retrieved successfully",
		Versions: items,
	}, nil
}

func (h Handler) ListReleasesHandler(ctx context.Context, pollID string) (httptransport.ReleaseListResponse, error) {
	releases, err := h.Queries.Releases(ctx, pollID)
	if err != nil {
		return httptransport.ReleaseListResponse{}, err
	}
	items := make([]httptransport.SnapshotPayload, 0, len(releases))
	for _, release := range releases {
		items = append(items, httptransport.SnapshotPayload{PollID: release.PollID, Number: release.Number, CreatedAt: release.CreatedAt})
	}
	return httptransport.ReleaseListResponse{
		Message:  "Poll releases retrieved successfully",
		Releases: items,
	}, nil
}

func (h Handler) VersionQuestionsHandler(ctx context.Context, pollID string, number int64) (httptransport.QuestionSetResponse, error) {
	set, err := h.Queries.QuestionsForVersion(ctx, pollID, number)
	if err != nil {
		return httptransport.QuestionSetResponse{}, err
	}
	return mapQuestionSet(set), nil
}

func (h Handler) ReleaseQuestionsHandler(ctx context.Context, pollID string, number int64) (httptransport.QuestionSetResponse, error) {
	set, err := h.Queries.QuestionsForRelease(ctx, pollID, number)
	if err != nil {
		return httptransport.QuestionSetResponse{}, err
	}
	return mapQuestionSet(set), nil
}

func mapQuestionSet(set entities.QuestionSet) httptransport.QuestionSetResponse {
	questions := make([]httptransport.QuestionPayload, 0, len(set.Questions))
	for _, question := range set.Questions {
		questions = append(questions, httptransport.QuestionPayload{
			QuestionID: question.QuestionID,
			Type:       question.Type,
			Content:    question.Content,
			Required:   question.Required,
			Options:    question.Options,
			Position:   question.Position,
		})
	}
	return httptransport.QuestionSetResponse{
		Message:   "Packaged questions retrieved successfully",
		PollID:    set.PollID,
		Number:    set.Number,
		Questions: questions,
	}
}
