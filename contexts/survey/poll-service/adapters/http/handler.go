package httpadapter

import (
	"context"
	"log/slog"

	"pollsmith/contexts/survey/poll-service/application/commands"
	"pollsmith/contexts/survey/poll-service/application/queries"
	"pollsmith/contexts/survey/poll-service/domain/entities"
	httptransport "pollsmith/contexts/survey/poll-service/transport/http"
)

type Handler struct {
	Polls   commands.PollUseCase
	Queries queries.PollQueryUseCase
	Logger  *slog.Logger
}

func (h Handler) CreatePollHandler(
	ctx context.Context,
	creatorEmail string,
	req httptransport.CreatePollRequest,
) (httptransport.PollResponse, error) {
	inputs := make([]commands.QuestionInput, 0, len(req.Questions))
	for _, question := range req.Questions {
		inputs = append(inputs, commands.QuestionInput{
			Type:     question.Type,
			Content:  question.Content,
			Required: question.Required,
			Options:  question.Options,
		})
	}
	poll, err := h.Polls.CreatePoll(ctx, commands.CreatePollCommand{
		CreatorEmail: creatorEmail,
		Title:        req.Title,
		Description:  req.Description,
		Recurrence:   req.Recurrence,
		Questions:    inputs,
	})
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return httptransport.PollResponse{
		Message: "Poll created successfully",
		Poll:    mapPoll(poll),
	}, nil
}

func (h Handler) EditPollInformationHandler(
	ctx context.Context,
	pollID string,
	req httptransport.EditPollInformationRequest,
) (httptransport.PollResponse, error) {
	poll, err := h.Polls.EditPollInformation(ctx, commands.EditPollInformationCommand{
		PollID:      pollID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return httptransport.PollResponse{
		Message: "Poll information updated successfully",
		Poll:    mapPoll(poll),
	}, nil
}

func (h Handler) GetPollHandler(ctx context.Context, pollID string) (httptransport.PollResponse, error) {
	poll, err := h.Queries.Poll(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return httptransport.PollResponse{
		Message: "Poll retrieved successfully",
		Poll:    mapPoll(poll),
	}, nil
}

func (h Handler) ListPollsHandler(ctx context.Context) (httptransport.PollListResponse, error) {
	polls, err := h.Queries.ListPolls(ctx)
	if err != nil {
		return httptransport.PollListResponse{}, err
	}
	items := make([]httptransport.PollPayload, 0, len(polls))
	for _, poll := range polls {
		items = append(items, mapPoll(poll))
	}
	return httptransport.PollListResponse{
		Message: "Polls retrieved successfully",
		Polls:   items,
	}, nil
}

func (h Handler) DeletePollHandler(ctx context.Context, pollID string) (httptransport.MessageResponse, error) {
	if err := h.Polls.DeletePoll(ctx, pollID); err != nil {
		return httptransport.MessageResponse{}, err
	}
	return httptransport.MessageResponse{Message: "Poll deleted successfully"}, nil
}

func (h Handler) ClosePollHandler(ctx context.Context, pollID string) (httptransport.PollResponse, error) {
	poll, err := h.Polls.ClosePoll(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return httptransport.PollResponse{
		Message: "Poll closed successfully",
		Poll:    mapPoll(poll),
	}, nil
}

func (h Handler) AddQuestionHandler(
	ctx context.Context,
	pollID string,
	req httptransport.AddQuestionRequest,
) (httptransport.QuestionResponse, error) {
	question, err := h.Polls.AddQuestion(ctx, commands.AddQuestionCommand{
		PollID:   pollID,
		Type:     req.Type,
		Content:  req.Content,
		Required: req.Required,
		Options:  req.Options,
	})
	if err != nil {
		return httptransport.QuestionResponse{}, err
	}
	return httptransport.QuestionResponse{
		Message:  "Question added successfully",
		Question: mapQuestion(question),
	}, nil
}

func (h Handler) EditQuestionHandler(
	ctx context.Context,
	pollID string,
	questionID string,
	req httptransport.EditQuestionRequest,
) (httptransport.QuestionResponse, error) {
	question, err := h.Polls.EditQuestion(ctx, commands.EditQuestionCommand{
		PollID:     pollID,
		QuestionID: questionID,
		Type:       req.Type,
		Content:    req.Content,
		Required:   req.Required,
		Options:    req.Options,
	})
	if err != nil {
		return httptransport.QuestionResponse{}, err
	}
	return httptransport.QuestionResponse{
		Message:  "Question updated successfully",
		Question: mapQuestion(question),
	}, nil
}

func (h Handler) DeleteQuestionHandler(ctx context.Context, pollID string, questionID string) (httptransport.MessageResponse, error) {
	if err := h.Polls.DeleteQuestion(ctx, commands.DeleteQuestionCommand{
		PollID:     pollID,
		QuestionID: questionID,
	}); err != nil {
		return httptransport.MessageResponse{}, err
	}
	return httptransport.MessageResponse{Message: "Question deleted successfully"}, nil
}

func (h Handler) GetQuestionsHandler(ctx context.Context, pollID string) (httptransport.QuestionListResponse, error) {
	questions, err := h.Queries.Questions(ctx, pollID)
	if err != nil {
		return httptransport.QuestionListResponse{}, err
	}
	items := make([]httptransport.QuestionPayload, 0, len(questions))
	for _, question := range questions {
		items = append(items, mapQuestion(question))
	}
	return httptransport.QuestionListResponse{
		Message:   "Questions retrieved successfully",
		Questions: items,
	}, nil
}

func mapPoll(poll entities.Poll) httptransport.PollPayload {
	questions := make([]httptransport.QuestionPayload, 0, len(poll.Questions))
	for _, question := range poll.Questions {
		questions = append(questions, mapQuestion(question))
	}
	return httptransport.PollPayload{
		PollID:       poll.PollID,
		CreatorEmail: poll.CreatorEmail,
		Title:        poll.Title,
		Description:  poll.Description,
		Status:       string(poll.Status),
		Recurrence:   string(poll.Recurrence),
		Questions:    questions,
	}
}

func mapQuestion(question entities.Question) httptransport.QuestionPayload {
	return httptransport.QuestionPayload{
		QuestionID: question.QuestionID,
		Type:       string(question.Type),
		Content:    question.Content,
		Required:   question.Required,
		Options:    question.Options,
		Position:   question.Position,
	}
}
