package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pollsmith/contexts/survey/release-service/domain/entities"
	domainerrors "pollsmith/contexts/survey/release-service/domain/errors"
	"pollsmith/contexts/survey/release-service/ports"
	"pollsmith/internal/shared/recurrence"

	"gorm.io/gorm"
)

// PollSource reads the poll rows the poll service owns and stamps the
// version/release marks. It touches only the columns it needs; the poll
// service remains the writer of everything else.
type PollSource struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewPollSource(db *gorm.DB, logger *slog.Logger) *PollSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PollSource{db: db, logger: logger}
}

type pollSourceModel struct {
	ID              string     `gorm:"column:id;primaryKey"`
	Status          string     `gorm:"column:status"`
	RecurrenceType  string     `gorm:"column:recurrence_type"`
	Questions       []byte     `gorm:"column:questions"`
	LastVersionedAt *time.Time `gorm:"column:last_versioned_at"`
	LastReleasedAt  *time.Time `gorm:"column:last_released_at"`
}

func (pollSourceModel) TableName() string {
	return "polls"
}

func (p *PollSource) GetPoll(ctx context.Context, pollID string) (entities.PollInfo, error) {
	var row pollSourceModel
	err := p.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(pollID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PollInfo{}, domainerrors.ErrPollNotFound
		}
		return entities.PollInfo{}, p.logError("poll_source_get_failed", err, "poll_id", strings.TrimSpace(pollID))
	}

	var records []questionRecord
	if len(row.Questions) > 0 {
		if err := json.Unmarshal(row.Questions, &records); err != nil {
			return entities.PollInfo{}, p.logError("poll_source_decode_failed", err, "poll_id", row.ID)
		}
	}
	return entities.PollInfo{
		PollID:          row.ID,
		Status:          row.Status,
		Recurrence:      recurrence.Type(row.RecurrenceType),
		Questions:       questionEntitiesFromRecords(records),
		LastVersionedAt: row.LastVersionedAt,
		LastReleasedAt:  row.LastReleasedAt,
	}, nil
}

func (p *PollSource) MarkVersioned(ctx context.Context, pollID string, at time.Time) error {
	result := p.db.WithContext(ctx).
		Model(&pollSourceModel{}).
		Where("id = ?", strings.TrimSpace(pollID)).
		Updates(map[string]any{
			"last_versioned_at": at.UTC(),
			"updated_at":        at.UTC(),
		})
	if result.Error != nil {
		return p.logError("poll_source_mark_versioned_failed", result.Error, "poll_id", strings.TrimSpace(pollID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPollNotFound
	}
	return nil
}

// MarkReleased also flips the poll into collection mode. Releasing is the
// moment a poll starts accepting responses.
func (p *PollSource) MarkReleased(ctx context.Context, pollID string, at time.Time) error {
	result := p.db.WithContext(ctx).
		Model(&pollSourceModel{}).
		Where("id = ?", strings.TrimSpace(pollID)).
		Updates(map[string]any{
			"last_released_at": at.UTC(),
			"status":           "IN PROGRESS",
			"updated_at":       at.UTC(),
		})
	if result.Error != nil {
		return p.logError("poll_source_mark_released_failed", result.Error, "poll_id", strings.TrimSpace(pollID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPollNotFound
	}
	return nil
}

func (p *PollSource) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "survey/release-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	p.logger.Error("poll source operation failed", fields...)
	return err
}

var _ ports.PollSource = (*PollSource)(nil)
