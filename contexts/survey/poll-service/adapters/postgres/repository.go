package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pollsmith/contexts/survey/poll-service/domain/entities"
	domainerrors "pollsmith/contexts/survey/poll-service/domain/errors"
	"pollsmith/contexts/survey/poll-service/ports"
	"pollsmith/internal/shared/recurrence"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) SavePoll(ctx context.Context, poll entities.Poll) error {
	row, err := pollModelFromEntity(poll)
	if err != nil {
		return r.logError("poll_repo_encode_failed", err, "poll_id", strings.TrimSpace(poll.PollID))
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"creator_email":     row.CreatorEmail,
			"title":             row.Title,
			"description":       row.Description,
			"status":            row.Status,
			"recurrence_type":   row.RecurrenceType,
			"questions":         row.Questions,
			"last_versioned_at": row.LastVersionedAt,
			"last_released_at":  row.LastReleasedAt,
			"updated_at":        row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("poll_repo_save_failed", create.Error, "poll_id", row.ID)
	}
	return nil
}

func (r *Repository) GetPoll(ctx context.Context, pollID string) (entities.Poll, error) {
	var row pollModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(pollID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Poll{}, domainerrors.ErrPollNotFound
		}
		return entities.Poll{}, r.logError("poll_repo_get_failed", err, "poll_id", strings.TrimSpace(pollID))
	}
	return row.toEntity()
}

func (r *Repository) ListPolls(ctx context.Context) ([]entities.Poll, error) {
	var rows []pollModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_failed", err)
	}
	items := make([]entities.Poll, 0, len(rows))
	for _, row := range rows {
		poll, err := row.toEntity()
		if err != nil {
			return nil, r.logError("poll_repo_decode_failed", err, "poll_id", row.ID)
		}
		items = append(items, poll)
	}
	return items, nil
}

func (r *Repository) DeletePoll(ctx context.Context, pollID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(pollID)).
		Delete(&pollModel{})
	if result.Error != nil {
		return r.logError("poll_repo_delete_failed", result.Error, "poll_id", strings.TrimSpace(pollID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPollNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "survey/poll-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("poll repository operation failed", fields...)
	return err
}

type pollModel struct {
	ID              string     `gorm:"column:id;primaryKey"`
	CreatorEmail    string     `gorm:"column:creator_email"`
	Title           string     `gorm:"column:title"`
	Description     string     `gorm:"column:description"`
	Status          string     `gorm:"column:status"`
	RecurrenceType  string     `gorm:"column:recurrence_type"`
	Questions       []byte     `gorm:"column:questions"`
	LastVersionedAt *time.Time `gorm:"column:last_versioned_at"`
	LastReleasedAt  *time.Time `gorm:"column:last_released_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (pollModel) TableName() string {
	return "polls"
}

type questionRecord struct {
	QuestionID string   `json:"question_id"`
	Type       string   `json:"type"`
	Content    string   `json:"content"`
	Required   bool     `json:"required"`
	Options    []string `json:"options,omitempty"`
	Position   int      `json:"position"`
}

func pollModelFromEntity(poll entities.Poll) (pollModel, error) {
	records := make([]questionRecord, 0, len(poll.Questions))
	for _, question := range poll.Questions {
		records = append(records, questionRecord{
			QuestionID: question.QuestionID,
			Type:       string(question.Type),
			Content:    question.Content,
			Required:   question.Required,
			Options:    question.Options,
			Position:   question.Position,
		})
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return pollModel{}, err
	}

	row := pollModel{
		ID:              strings.TrimSpace(poll.PollID),
		CreatorEmail:    strings.TrimSpace(poll.CreatorEmail),
		Title:           strings.TrimSpace(poll.Title),
		Description:     strings.TrimSpace(poll.Description),
		Status:          string(poll.Status),
		RecurrenceType:  string(poll.Recurrence),
		Questions:       payload,
		LastVersionedAt: normalizeOptionalTime(poll.LastVersionedAt),
		LastReleasedAt:  normalizeOptionalTime(poll.LastReleasedAt),
		CreatedAt:       poll.CreatedAt.UTC(),
		UpdatedAt:       poll.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row, nil
}

func (m pollModel) toEntity() (entities.Poll, error) {
	var records []questionRecord
	if len(m.Questions) > 0 {
		if err := json.Unmarshal(m.Questions, &records); err != nil {
			return entities.Poll{}, err
		}
	}
	questions := make([]entities.Question, 0, len(records))
	for _, record := range records {
		questions = append(questions, entities.Question{
			QuestionID: record.QuestionID,
			Type:       entities.QuestionType(record.Type),
			Content:    record.Content,
			Required:   record.Required,
			Options:    record.Options,
			Position:   record.Position,
		})
	}
	return entities.Poll{
		PollID:          m.ID,
		CreatorEmail:    m.CreatorEmail,
		Title:           m.Title,
		Description:     m.Description,
		Status:          entities.PollStatus(m.Status),
		Recurrence:      recurrence.Type(m.RecurrenceType),
		Questions:       questions,
		LastVersionedAt: normalizeOptionalTime(m.LastVersionedAt),
		LastReleasedAt:  normalizeOptionalTime(m.LastReleasedAt),
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}, nil
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

var _ ports.PollRepository = (*Repository)(nil)
