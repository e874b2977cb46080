package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "pollsmith/contexts/survey/voting-service/application"
	"pollsmith/contexts/survey/voting-service/domain/entities"
	domainerrors "pollsmith/contexts/survey/voting-service/domain/errors"
	"pollsmith/contexts/survey/voting-service/ports"
)

type PutDraftCommand struct {
	Key     entities.ResponseKey
	Content json.RawMessage
}

type PutDraftAnswerCommand struct {
	Key             entities.ResponseKey
	QuestionID      string
	SelectedOptions []string
	FreeText        string
}

type UpdateStatusCommand struct {
	Key    entities.ResponseKey
	Status string
}

type SubmitResult struct {
	ResponseID  string
	AnswerCount int
}

// DraftUseCase owns a voter's per-recurrence response lifecycle: draft
// autosaves, per-question answers, the forward-only status machine, and final
// submission. Drafts race on last-write-wins; the only hard gate is that
// nothing is writable once the recurrence is SUBMITTED.
type DraftUseCase struct {
	Drafts ports.DraftRepository
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc DraftUseCase) PutDraft(ctx context.Context, cmd PutDraftCommand) (entities.Draft, error) {
	if err := cmd.Key.Validate(); err != nil {
		return entities.Draft{}, err
	}
	if err := uc.guardWritable(ctx, cmd.Key); err != nil {
		return entities.Draft{}, err
	}

	now := uc.now()
	draft := entities.Draft{Key: cmd.Key, Content: cmd.Content, UpdatedAt: now}
	if err := uc.Drafts.PutDraft(ctx, draft); err != nil {
		return entities.Draft{}, err
	}
	if err := uc.markInProgress(ctx, cmd.Key, now); err != nil {
		return entities.Draft{}, err
	}
	application.ResolveLogger(uc.Logger).Info("draft saved",
		"event", "draft_saved",
		"module", "survey/voting-service",
		"layer", "application",
		"poll_id", cmd.Key.PollID,
		"version", cmd.Key.Version,
		"window", cmd.Key.Window.Key(),
		"voter_email", cmd.Key.VoterEmail,
	)
	return draft, nil
}

func (uc DraftUseCase) PutDraftAnswer(ctx context.Context, cmd PutDraftAnswerCommand) (entities.DraftAnswer, error) {
	if err := cmd.Key.Validate(); err != nil {
		return entities.DraftAnswer{}, err
	}
	if strings.TrimSpace(cmd.QuestionID) == "" {
		return entities.DraftAnswer{}, domainerrors.ErrQuestionIDRequired
	}
	if err := uc.guardWritable(ctx, cmd.Key); err != nil {
		return entities.DraftAnswer{}, err
	}

	now := uc.now()
	answer := entities.DraftAnswer{
		Key:             cmd.Key,
		QuestionID:      strings.TrimSpace(cmd.QuestionID),
		SelectedOptions: cmd.SelectedOptions,
		FreeText:        strings.TrimSpace(cmd.FreeText),
		UpdatedAt:       now,
	}
	if err := uc.Drafts.PutDraftAnswer(ctx, answer); err != nil {
		return entities.DraftAnswer{}, err
	}
	if err := uc.markInProgress(ctx, cmd.Key, now); err != nil {
		return entities.DraftAnswer{}, err
	}
	application.ResolveLogger(uc.Logger).Info("draft answer saved",
		"event", "draft_answer_saved",
		"module", "survey/voting-service",
		"layer", "application",
		"poll_id", cmd.Key.PollID,
		"version", cmd.Key.Version,
		"window", cmd.Key.Window.Key(),
		"voter_email", cmd.Key.VoterEmail,
		"question_id", answer.QuestionID,
	)
	return answer, nil
}

// UpdateStatus moves the voter's recurrence status forward. Repeating the
// current status is a no-op; moving backward is a conflict.
func (uc DraftUseCase) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (entities.VoterStatus, error) {
	if err := cmd.Key.Validate(); err != nil {
		return entities.VoterStatus{}, err
	}
	next := entities.VotingStatus(strings.TrimSpace(cmd.Status))
	if !next.Valid() {
		return entities.VoterStatus{}, domainerrors.ErrInvalidStatus
	}

	current, found, err := uc.Drafts.GetStatus(ctx, cmd.Key)
	if err != nil {
		return entities.VoterStatus{}, err
	}
	state := entities.StatusNotStarted
	if found {
		state = current.Status
	}
	if !state.CanAdvanceTo(next) {
		return entities.VoterStatus{}, domainerrors.ErrStatusRegression
	}

	status := entities.VoterStatus{Key: cmd.Key, Status: next, UpdatedAt: uc.now()}
	if err := uc.Drafts.PutStatus(ctx, status); err != nil {
		return entities.VoterStatus{}, err
	}
	application.ResolveLogger(uc.Logger).Info("voting status updated",
		"event", "voting_status_updated",
		"module", "survey/voting-service",
		"layer", "application",
		"poll_id", cmd.Key.PollID,
		"version", cmd.Key.Version,
		"window", cmd.Key.Window.Key(),
		"voter_email", cmd.Key.VoterEmail,
		"status", string(next),
	)
	return status, nil
}

// Submit assembles the final response from the latest per-question draft rows,
// flips the status to SUBMITTED, and hands the response to the outbox. The
// outbox row lands before the status flip, so a crash in between replays the
// event rather than losing it; the aggregation side dedups.
func (uc DraftUseCase) Submit(ctx context.Context, key entities.ResponseKey) (SubmitResult, error) {
	if err := key.Validate(); err != nil {
		return SubmitResult{}, err
	}
	current, found, err := uc.Drafts.GetStatus(ctx, key)
	if err != nil {
		return SubmitResult{}, err
	}
	if found && current.Status == entities.StatusSubmitted {
		return SubmitResult{}, domainerrors.ErrAlreadySubmitted
	}

	answers, err := uc.Drafts.ListDraftAnswers(ctx, key)
	if err != nil {
		return SubmitResult{}, err
	}

	now := uc.now()
	responseID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return SubmitResult{}, err
	}
	data := responseSubmittedData{
		ResponseID: responseID,
		PollID:     strings.TrimSpace(key.PollID),
		Version:    key.Version,
		StartDate:  key.Window.StartDate,
		EndDate:    key.Window.EndDate,
		VoterEmail: strings.TrimSpace(key.VoterEmail),
	}
	for _, answer := range answers {
		values := answer.Values()
		if len(values) == 0 {
			continue
		}
		data.Answers = append(data.Answers, submittedAnswer{
			QuestionID: answer.QuestionID,
			Values:     values,
		})
	}

	envelope, err := newResponseSubmittedEnvelope(responseID, now, data)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
		return SubmitResult{}, err
	}
	if err := uc.Drafts.PutStatus(ctx, entities.VoterStatus{
		Key:       key,
		Status:    entities.StatusSubmitted,
		UpdatedAt: now,
	}); err != nil {
		return SubmitResult{}, err
	}
	application.ResolveLogger(uc.Logger).Info("response submitted",
		"event", "response_submitted",
		"module", "survey/voting-service",
		"layer", "application",
		"poll_id", key.PollID,
		"version", key.Version,
		"window", key.Window.Key(),
		"voter_email", key.VoterEmail,
		"response_id", responseID,
		"answer_count", len(data.Answers),
	)
	return SubmitResult{ResponseID: responseID, AnswerCount: len(data.Answers)}, nil
}

func (uc DraftUseCase) guardWritable(ctx context.Context, key entities.ResponseKey) error {
	current, found, err := uc.Drafts.GetStatus(ctx, key)
	if err != nil {
		return err
	}
	if found && current.Status == entities.StatusSubmitted {
		return domainerrors.ErrAlreadySubmitted
	}
	return nil
}

// markInProgress promotes a fresh recurrence to IN_PROGRESS on the first
// draft write. An existing IN_PROGRESS row is left alone.
func (uc DraftUseCase) markInProgress(ctx context.Context, key entities.ResponseKey, now time.Time) error {
	current, found, err := uc.Drafts.GetStatus(ctx, key)
	if err != nil {
		return err
	}
	if found && current.Status != entities.StatusNotStarted {
		return nil
	}
	return uc.Drafts.PutStatus(ctx, entities.VoterStatus{
		Key:       key,
		Status:    entities.StatusInProgress,
		UpdatedAt: now,
	})
}

func (uc DraftUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
