package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "pollsmith/contexts/survey/report-service/application"
	"pollsmith/contexts/survey/report-service/domain/entities"
	domainerrors "pollsmith/contexts/survey/report-service/domain/errors"
	"pollsmith/contexts/survey/report-service/ports"
)

type AggregateResponseCommand struct {
	Key        entities.RecurrenceKey
	VoterEmail string
	Answers    []entities.ResponseAnswer
}

type UpdateStatusForRecurrenceCommand struct {
	Key        entities.RecurrenceKey
	VoterEmail string
	Status     string
}

// AggregateUseCase folds finalized responses into answer counters and voter
// attribution rows. No cross-key transaction is assumed: the voter row for
// the exact (recurrence, question, answer, voter) key is checked before each
// increment and written after it, so a replayed response never double-counts
// and a voter row always implies its increment landed.
type AggregateUseCase struct {
	Reports ports.ReportRepository
	Status  ports.VoterStatusWriter
	Clock   ports.Clock
	Logger  *slog.Logger
}

func (uc AggregateUseCase) AggregateResponse(ctx context.Context, cmd AggregateResponseCommand) error {
	if err := cmd.Key.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(cmd.VoterEmail) == "" {
		return domainerrors.ErrVoterRequired
	}

	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()
	applied := 0
	skipped := 0
	for _, answer := range cmd.Answers {
		questionID := strings.TrimSpace(answer.QuestionID)
		if questionID == "" {
			return domainerrors.ErrQuestionIDRequired
		}
		for _, value := range answer.Values {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			key := entities.AnswerKey{
				RecurrenceKey: cmd.Key,
				QuestionID:    questionID,
				Answer:        value,
			}
			voterRow := entities.VoterReport{
				Key:        key,
				VoterEmail: strings.TrimSpace(cmd.VoterEmail),
				CreatedAt:  now,
			}

			seen, err := uc.Reports.HasVoterReport(ctx, voterRow)
			if err != nil {
				return err
			}
			if seen {
				skipped++
				continue
			}
			if err := uc.increment(ctx, key, now); err != nil {
				return err
			}
			if err := uc.Reports.PutVoterReport(ctx, voterRow); err != nil {
				return err
			}
			applied++
		}
	}

	logger.Info("response aggregated",
		"event", "response_aggregated",
		"module", "survey/report-service",
		"layer", "application",
		"poll_id", cmd.Key.PollID,
		"version", cmd.Key.Version,
		"window", cmd.Key.Window.Key(),
		"voter_email", strings.TrimSpace(cmd.VoterEmail),
		"increments_applied", applied,
		"increments_skipped", skipped,
	)
	return nil
}

func (uc AggregateUseCase) increment(ctx context.Context, key entities.AnswerKey, now time.Time) error {
	current, found, err := uc.Reports.GetAnswerReport(ctx, key)
	if err != nil {
		return err
	}
	count := int64(0)
	if found {
		count = current.Count
	}
	return uc.Reports.PutAnswerReport(ctx, entities.AnswerReport{
		Key:       key,
		Count:     count + 1,
		UpdatedAt: now,
	})
}

// PutAnswerReports writes counters directly, bypassing the fencing path. It
// backs backfills and administrative corrections.
func (uc AggregateUseCase) PutAnswerReports(ctx context.Context, reports []entities.AnswerReport) error {
	now := uc.now()
	for _, report := range reports {
		if err := report.Key.Validate(); err != nil {
			return err
		}
		report.UpdatedAt = now
		if err := uc.Reports.PutAnswerReport(ctx, report); err != nil {
			return err
		}
	}
	return nil
}

// CreateVoterReportsForRecurrence appends attribution rows, skipping ones
// that already exist so the batch is replayable.
func (uc AggregateUseCase) CreateVoterReportsForRecurrence(ctx context.Context, reports []entities.VoterReport) error {
	now := uc.now()
	for _, report := range reports {
		if err := report.Validate(); err != nil {
			return err
		}
		seen, err := uc.Reports.HasVoterReport(ctx, report)
		if err != nil {
			return err
		}
		if seen {
			continue
		}
		report.CreatedAt = now
		if err := uc.Reports.PutVoterReport(ctx, report); err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatusForRecurrence validates the recurrence triple, then delegates
// to the voting state machine.
func (uc AggregateUseCase) UpdateStatusForRecurrence(ctx context.Context, cmd UpdateStatusForRecurrenceCommand) error {
	if err := cmd.Key.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(cmd.VoterEmail) == "" {
		return domainerrors.ErrVoterRequired
	}
	if strings.TrimSpace(cmd.Status) == "" {
		return domainerrors.ErrInvalidStatus
	}
	return uc.Status.UpdateVoterStatus(
		ctx,
		strings.TrimSpace(cmd.Key.PollID),
		cmd.Key.Version,
		cmd.Key.Window,
		strings.TrimSpace(cmd.VoterEmail),
		strings.TrimSpace(cmd.Status),
	)
}

func (uc AggregateUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
