package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "pollsmith/contexts/survey/poll-service/application"
	"pollsmith/contexts/survey/poll-service/domain/entities"
	domainerrors "pollsmith/contexts/survey/poll-service/domain/errors"
	"pollsmith/contexts/survey/poll-service/ports"
	"pollsmith/internal/shared/recurrence"
)

// CreatePollCommand is the write-model input for poll creation.
type CreatePollCommand struct {
	CreatorEmail string
	Title        string
	Description  string
	Recurrence   string
	Questions    []QuestionInput
}

// QuestionInput carries one question of the initial live set.
type QuestionInput struct {
	Type     string
	Content  string
	Required bool
	Options  []string
}

// EditPollInformationCommand is a partial update; nil fields stay untouched.
type EditPollInformationCommand struct {
	PollID      string
	Title       *string
	Description *string
}

type AddQuestionCommand struct {
	PollID   string
	Type     string
	Content  string
	Required bool
	Options  []string
}

// EditQuestionCommand patches a live question; nil fields stay untouched.
type EditQuestionCommand struct {
	PollID     string
	QuestionID string
	Type       *string
	Content    *string
	Required   *bool
	Options    *[]string
}

type DeleteQuestionCommand struct {
	PollID     string
	QuestionID string
}

// PollUseCase orchestrates poll authoring: information edits and live question
// set mutation, guarded against editing a released question set.
type PollUseCase struct {
	Polls  ports.PollRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc PollUseCase) CreatePoll(ctx context.Context, cmd CreatePollCommand) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.CreatorEmail) == "" {
		return entities.Poll{}, domainerrors.ErrCreatorRequired
	}
	if strings.TrimSpace(cmd.Title) == "" {
		logger.Warn("poll create validation failed",
			"event", "poll_create_validation_failed",
			"module", "survey/poll-service",
			"layer", "application",
			"creator_email", strings.TrimSpace(cmd.CreatorEmail),
		)
		return entities.Poll{}, domainerrors.ErrTitleBlank
	}
	kind := strings.TrimSpace(cmd.Recurrence)
	if kind == "" {
		kind = string(recurrence.TypeNone)
	}
	if !recurrence.ValidType(kind) {
		return entities.Poll{}, domainerrors.ErrInvalidRecurrence
	}

	now := uc.now()
	pollID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Poll{}, err
	}
	poll := entities.Poll{
		PollID:       pollID,
		CreatorEmail: strings.TrimSpace(cmd.CreatorEmail),
		Title:        strings.TrimSpace(cmd.Title),
		Description:  strings.TrimSpace(cmd.Description),
		Status:       entities.PollStatusIdle,
		Recurrence:   recurrence.Type(kind),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, input := range cmd.Questions {
		question, err := uc.buildQuestion(ctx, input.Type, input.Content, input.Required, input.Options, len(poll.Questions)+1)
		if err != nil {
			return entities.Poll{}, err
		}
		poll.Questions = append(poll.Questions, question)
	}
	if err := uc.Polls.SavePoll(ctx, poll); err != nil {
		return entities.Poll{}, err
	}
	logger.Info("poll created",
		"event", "poll_created",
		"module", "survey/poll-service",
		"layer", "application",
		"poll_id", poll.PollID,
		"creator_email", poll.CreatorEmail,
		"recurrence", string(poll.Recurrence),
		"question_count", len(poll.Questions),
	)
	return poll, nil
}

// EditPollInformation persists only the provided fields. A blank title is
// rejected; omitting both fields is rejected.
func (uc PollUseCase) EditPollInformation(ctx context.Context, cmd EditPollInformationCommand) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.PollID) == "" {
		return entities.Poll{}, domainerrors.ErrPollIDRequired
	}
	if cmd.Title == nil && cmd.Description == nil {
		return entities.Poll{}, domainerrors.ErrEditFieldsRequired
	}
	if cmd.Title != nil && strings.TrimSpace(*cmd.Title) == "" {
		logger.Warn("poll edit rejected for blank title",
			"event", "poll_edit_blank_title",
			"module", "survey/poll-service",
			"layer", "application",
			"poll_id", strings.TrimSpace(cmd.PollID),
		)
		return entities.Poll{}, domainerrors.ErrTitleBlank
	}

	poll, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(cmd.PollID))
	if err != nil {
		return entities.Poll{}, err
	}
	if cmd.Title != nil {
		poll.Title = strings.TrimSpace(*cmd.Title)
	}
	if cmd.Description != nil {
		poll.Description = strings.TrimSpace(*cmd.Description)
	}
	poll.UpdatedAt = uc.now()
	if err := uc.Polls.SavePoll(ctx, poll); err != nil {
		return entities.Poll{}, err
	}
	logger.Info("poll information updated",
		"event", "poll_information_updated",
		"module", "survey/poll-service",
		"layer", "application",
		"poll_id", poll.PollID,
	)
	return poll, nil
}

func (uc PollUseCase) AddQuestion(ctx context.Context, cmd AddQuestionCommand) (entities.Question, error) {
	poll, err := uc.mutablePoll(ctx, cmd.PollID)
	if err != nil {
		return entities.Question{}, err
	}
	question, err := uc.buildQuestion(ctx, cmd.Type, cmd.Content, cmd.Required, cmd.Options, len(poll.Questions)+1)
	if err != nil {
		return entities.Question{}, err
	}
	poll.Questions = append(poll.Questions, question)
	poll.UpdatedAt = uc.now()
	if err := uc.Polls.SavePoll(ctx, poll); err != nil {
		return entities.Question{}, err
	}
	application.ResolveLogger(uc.Logger).Info("question added",
		"event", "poll_question_added",
		"module", "survey/poll-service",
		"layer", "application",
		"poll_id", poll.PollID,
		"question_id", question.QuestionID,
		"question_type", string(question.Type),
	)
	return question, nil
}

func (uc PollUseCase) EditQuestion(ctx context.Context, cmd EditQuestionCommand) (entities.Question, error) {
	poll, err := uc.mutablePoll(ctx, cmd.PollID)
	if err != nil {
		return entities.Question{}, err
	}
	index := poll.FindQuestion(strings.TrimSpace(cmd.QuestionID))
	if index < 0 {
		return entities.Question{}, domainerrors.ErrQuestionNotFound
	}

	question := poll.Questions[index]
	if cmd.Type != nil {
		question.Type = entities.QuestionType(strings.TrimSpace(*cmd.Type))
	}
	if cmd.Content != nil {
		question.Content = strings.TrimSpace(*cmd.Content)
	}
	if cmd.Required != nil {
		question.Required = *cmd.Required
	}
	if cmd.Options != nil {
		question.Options = normalizeOptions(*cmd.Options)
	}
	if err := validateQuestion(question); err != nil {
		return entities.Question{}, err
	}

	poll.Questions[index] = question
	poll.UpdatedAt = uc.now()
	if err := uc.Polls.SavePoll(ctx, poll); err != nil {
		return entities.Question{}, err
	}
	application.ResolveLogger(uc.Logger).Info("question edited",
		"event", "poll_question_edited",
		"module", "survey/poll-service",
		"layer", "application",
		"poll_id", poll.PollID,
		"question_id", question.QuestionID,
	)
	return question, nil
}

// DeleteQuestion removes the question from the live set only. Snapshots and
// collected answers referencing it are untouched.
func (uc PollUseCase) DeleteQuestion(ctx context.Context, cmd DeleteQuestionCommand) error {
	poll, err := uc.mutablePoll(ctx, cmd.PollID)
	if err != nil {
		return err
	}
	index := poll.FindQuestion(strings.TrimSpace(cmd.QuestionID))
	if index < 0 {
		return domainerrors.ErrQuestionNotFound
	}
	poll.Questions = append(poll.Questions[:index], poll.Questions[index+1:]...)
	for i := range poll.Questions {
		poll.Questions[i].Position = i + 1
	}
	poll.UpdatedAt = uc.now()
	if err := uc.Polls.SavePoll(ctx, poll); err != nil {
		return err
	}
	application.ResolveLogger(uc.Logger).Info("question deleted",
		"event", "poll_question_deleted",
		"module", "survey/poll-service",
		"layer", "application",
		"poll_id", poll.PollID,
		"question_id", strings.TrimSpace(cmd.QuestionID),
	)
	return nil
}

func (uc PollUseCase) DeletePoll(ctx context.Context, pollID string) error {
	if strings.TrimSpace(pollID) == "" {
		return domainerrors.ErrPollIDRequired
	}
	if _, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(pollID)); err != nil {
		return err
	}
	if err := uc.Polls.DeletePoll(ctx, strings.TrimSpace(pollID)); err != nil {
		return err
	}
	application.ResolveLogger(uc.Logger).Info("poll deleted",
		"event", "poll_deleted",
		"module", "survey/poll-service",
		"layer", "application",
		"poll_id", strings.TrimSpace(pollID),
	)
	return nil
}

// ClosePoll moves the poll to CLOSED. Closing is terminal for releases: a
// closed poll accepts no further deployments.
func (uc PollUseCase) ClosePoll(ctx context.Context, pollID string) (entities.Poll, error) {
	if strings.TrimSpace(pollID) == "" {
		return entities.Poll{}, domainerrors.ErrPollIDRequired
	}
	poll, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
	if err != nil {
		return entities.Poll{}, err
	}
	poll.Status = entities.PollStatusClosed
	poll.UpdatedAt = uc.now()
	if err := uc.Polls.SavePoll(ctx, poll); err != nil {
		return entities.Poll{}, err
	}
	return poll, nil
}

func (uc PollUseCase) mutablePoll(ctx context.Context, pollID string) (entities.Poll, error) {
	if strings.TrimSpace(pollID) == "" {
		return entities.Poll{}, domainerrors.ErrPollIDRequired
	}
	poll, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
	if err != nil {
		return entities.Poll{}, err
	}
	if !poll.LiveSetMutable() {
		application.ResolveLogger(uc.Logger).Warn("question mutation blocked by release",
			"event", "poll_question_mutation_blocked",
			"module", "survey/poll-service",
			"layer", "application",
			"poll_id", poll.PollID,
		)
		return entities.Poll{}, domainerrors.ErrQuestionSetReleased
	}
	return poll, nil
}

func (uc PollUseCase) buildQuestion(
	ctx context.Context,
	qtype string,
	content string,
	required bool,
	options []string,
	position int,
) (entities.Question, error) {
	questionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Question{}, err
	}
	question := entities.Question{
		QuestionID: questionID,
		Type:       entities.QuestionType(strings.TrimSpace(qtype)),
		Content:    strings.TrimSpace(content),
		Required:   required,
		Options:    normalizeOptions(options),
		Position:   position,
	}
	if err := validateQuestion(question); err != nil {
		return entities.Question{}, err
	}
	return question, nil
}

func validateQuestion(question entities.Question) error {
	if question.Content == "" {
		return domainerrors.ErrInvalidQuestionInput
	}
	switch question.Type {
	case entities.QuestionTypeMultiple, entities.QuestionTypeCheckbox:
		if len(question.Options) == 0 {
			return domainerrors.ErrInvalidQuestionInput
		}
	case entities.QuestionTypeTextBox:
		if len(question.Options) != 0 {
			return domainerrors.ErrInvalidQuestionInput
		}
	default:
		return domainerrors.ErrInvalidQuestionInput
	}
	return nil
}

func normalizeOptions(options []string) []string {
	normalized := make([]string, 0, len(options))
	for _, option := range options {
		option = strings.TrimSpace(option)
		if option != "" {
			normalized = append(normalized, option)
		}
	}
	return normalized
}

func (uc PollUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
