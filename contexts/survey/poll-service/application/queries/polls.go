package queries

import (
	"context"
	"strings"

	"pollsmith/contexts/survey/poll-service/domain/entities"
	domainerrors "pollsmith/contexts/survey/poll-service/domain/errors"
	"pollsmith/contexts/survey/poll-service/ports"
)

type PollQueryUseCase struct {
	Polls ports.PollRepository
}

func (uc PollQueryUseCase) Poll(ctx context.Context, pollID string) (entities.Poll, error) {
	if strings.TrimSpace(pollID) == "" {
		return entities.Poll{}, domainerrors.ErrPollIDRequired
	}
	return uc.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
}

func (uc PollQueryUseCase) ListPolls(ctx context.Context) ([]entities.Poll, error) {
	return uc.Polls.ListPolls(ctx)
}

func (uc PollQueryUseCase) Questions(ctx context.Context, pollID string) ([]entities.Question, error) {
	poll, err := uc.Poll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return poll.Questions, nil
}
