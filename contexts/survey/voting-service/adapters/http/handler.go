package httpadapter

import (
	"context"
	"log/slog"

	"pollsmith/contexts/survey/voting-service/application/commands"
	"pollsmith/contexts/survey/voting-service/application/queries"
	"pollsmith/contexts/survey/voting-service/domain/entities"
	httptransport "pollsmith/contexts/survey/voting-service/transport/http"
)

type Handler struct {
	Drafts  commands.DraftUseCase
	Queries queries.DraftQueryUseCase
	Logger  *slog.Logger
}

func (h Handler) GetDraftHandler(ctx context.Context, key entities.ResponseKey) (httptransport.DraftResponse, error) {
	draft, found, err := h.Queries.Draft(ctx, key)
	if err != nil {
		return httptransport.DraftResponse{}, err
	}
	status, err := h.Queries.Status(ctx, key)
	if err != nil {
		return httptransport.DraftResponse{}, err
	}
	resp := httptransport.DraftResponse{
		Message: "Draft retrieved successfully",
		Status:  string(status),
	}
	if found {
		payload := mapDraft(draft)
		resp.Draft = &payload
	}
	return resp, nil
}

func (h Handler) PutDraftHandler(
	ctx context.Context,
	key entities.ResponseKey,
	req httptransport.PutDraftRequest,
) (httptransport.DraftResponse, error) {
	draft, err := h.Drafts.PutDraft(ctx, commands.PutDraftCommand{Key: key, Content: req.Content})
	if err != nil {
		return httptransport.DraftResponse{}, err
	}
	payload := mapDraft(draft)
	return httptransport.DraftResponse{
		Message: "Draft saved successfully",
		Draft:   &payload,
		Status:  string(entities.StatusInProgress),
	}, nil
}

func (h Handler) GetDraftAnswersHandler(ctx context.Context, key entities.ResponseKey) (httptransport.DraftAnswersResponse, error) {
	answers, err := h.Queries.DraftAnswers(ctx, key)
	if err != nil {
		return httptransport.DraftAnswersResponse{}, err
	}
	items := make([]httptransport.DraftAnswerPayload, 0, len(answers))
	for _, answer := range answers {
		items = append(items, httptransport.DraftAnswerPayload{
			QuestionID:      answer.QuestionID,
			SelectedOptions: answer.SelectedOptions,
			FreeText:        answer.FreeText,
		})
	}
	return httptransport.DraftAnswersResponse{
		Message: "Draft answers retrieved successfully",
		Answers: items,
	}, nil
}

func (h Handler) PutDraftAnswerHandler(
	ctx context.Context,
	key entities.ResponseKey,
	req httptransport.PutDraftAnswerRequest,
) (httptransport.DraftAnswersResponse, error) {
	answer, err := h.Drafts.PutDraftAnswer(ctx, commands.PutDraftAnswerCommand{
		Key:             key,
		QuestionID:      req.QuestionID,
		SelectedOptions: req.SelectedOptions,
		FreeText:        req.FreeText,
	})
	if err != nil {
		return httptransport.DraftAnswersResponse{}, err
	}
	return httptransport.DraftAnswersResponse{
		Message: "Draft answer saved successfully",
		Answers: []httptransport.DraftAnswerPayload{{
			QuestionID:      answer.QuestionID,
			SelectedOptions: answer.SelectedOptions,
			FreeText:        answer.FreeText,
		}},
	}, nil
}

func (h Handler) GetStatusHandler(ctx context.Context, key entities.ResponseKey) (httptransport.StatusResponse, error) {
	status, err := h.Queries.Status(ctx, key)
	if err != nil {
		return httptransport.StatusResponse{}, err
	}
	return httptransport.StatusResponse{
		Message: "Voting status retrieved successfully",
		Status:  string(status),
	}, nil
}

func (h Handler) UpdateStatusHandler(
	ctx context.Context,
	key entities.ResponseKey,
	req httptransport.UpdateStatusRequest,
) (httptransport.StatusResponse, error) {
	status, err := h.Drafts.UpdateStatus(ctx, commands.UpdateStatusCommand{Key: key, Status: req.Status})
	if err != nil {
		return httptransport.StatusResponse{}, err
	}
	return httptransport.StatusResponse{
		Message: "Voting status updated successfully",
		Status:  string(status.Status),
	}, nil
}

func (h Handler) SubmitHandler(ctx context.Context, key entities.ResponseKey) (httptransport.SubmitResponse, error) {
	result, err := h.Drafts.Submit(ctx, key)
	if err != nil {
		return httptransport.SubmitResponse{}, err
	}
	return httptransport.SubmitResponse{
		Message:     "Response submitted successfully",
		ResponseID:  result.ResponseID,
		AnswerCount: result.AnswerCount,
	}, nil
}

func mapDraft(draft entities.Draft) httptransport.DraftPayload {
	return httptransport.DraftPayload{
		PollID:     draft.Key.PollID,
		Version:    draft.Key.Version,
		StartDate:  draft.Key.Window.StartDate,
		EndDate:    draft.Key.Window.EndDate,
		VoterEmail: draft.Key.VoterEmail,
		Content:    draft.Content,
	}
}
