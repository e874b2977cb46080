package queries

import (
	"context"

	"pollsmith/contexts/survey/voting-service/domain/entities"
	"pollsmith/contexts/survey/voting-service/ports"
)

type DraftQueryUseCase struct {
	Drafts ports.DraftRepository
}

// Draft returns the voter's current draft for the window. Absence is a
// normal first-visit condition, not an error.
func (uc DraftQueryUseCase) Draft(ctx context.Context, key entities.ResponseKey) (entities.Draft, bool, error) {
	if err := key.Validate(); err != nil {
		return entities.Draft{}, false, err
	}
	return uc.Drafts.GetDraft(ctx, key)
}

func (uc DraftQueryUseCase) DraftAnswers(ctx context.Context, key entities.ResponseKey) ([]entities.DraftAnswer, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return uc.Drafts.ListDraftAnswers(ctx, key)
}

// Status defaults to NOT_STARTED when the voter has never touched the window.
func (uc DraftQueryUseCase) Status(ctx context.Context, key entities.ResponseKey) (entities.VotingStatus, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	status, found, err := uc.Drafts.GetStatus(ctx, key)
	if err != nil {
		return "", err
	}
	if !found {
		return entities.StatusNotStarted, nil
	}
	return status.Status, nil
}
