package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pollsmith/contexts/survey/voting-service/domain/entities"
	"pollsmith/contexts/survey/voting-service/ports"
	"pollsmith/internal/shared/keycodec"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists the voting records with the same partition/sort layout
// the memory adapter uses: partition key is poll plus encoded version, sort
// key is window plus voter (plus question for answers). Draft writes are
// last-write-wins upserts on the full key.
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

func (r *Repository) PutDraft(ctx context.Context, draft entities.Draft) error {
	partition, err := draft.Key.PartitionKey()
	if err != nil {
		return r.logError("draft_repo_encode_failed", err, "poll_id", draft.Key.PollID)
	}
	row := draftModel{
		PartitionKey: partition,
		SortKey:      draft.Key.SortKey(),
		PollID:       strings.TrimSpace(draft.Key.PollID),
		Version:      draft.Key.Version,
		WindowStart:  draft.Key.Window.StartDate,
		WindowEnd:    draft.Key.Window.EndDate,
		VoterEmail:   strings.TrimSpace(draft.Key.VoterEmail),
		Content:      []byte(draft.Content),
		UpdatedAt:    draft.UpdatedAt.UTC(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "partition_key"}, {Name: "sort_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"content":    row.Content,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if result.Error != nil {
		return r.logError("draft_repo_put_failed", result.Error, "poll_id", row.PollID, "sort_key", row.SortKey)
	}
	return nil
}

func (r *Repository) GetDraft(ctx context.Context, key entities.ResponseKey) (entities.Draft, bool, error) {
	partition, err := key.PartitionKey()
	if err != nil {
		return entities.Draft{}, false, r.logError("draft_repo_encode_failed", err, "poll_id", key.PollID)
	}
	var row draftModel
	err = r.db.WithContext(ctx).
		Where("partition_key = ? AND sort_key = ?", partition, key.SortKey()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Draft{}, false, nil
		}
		return entities.Draft{}, false, r.logError("draft_repo_get_failed", err, "poll_id", key.PollID)
	}
	return entities.Draft{
		Key:       key,
		Content:   json.RawMessage(row.Content),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, true, nil
}

func (r *Repository) PutDraftAnswer(ctx context.Context, answer entities.DraftAnswer) error {
	partition, err := answer.Key.PartitionKey()
	if err != nil {
		return r.logError("draft_repo_encode_failed", err, "poll_id", answer.Key.PollID)
	}
	options, err := json.Marshal(answer.SelectedOptions)
	if err != nil {
		return r.logError("draft_repo_encode_failed", err, "poll_id", answer.Key.PollID)
	}
	row := draftAnswerModel{
		PartitionKey:    partition,
		SortKey:         keycodec.Join(answer.Key.SortKey(), keycodec.EscapeSegment(strings.TrimSpace(answer.QuestionID))),
		QuestionID:      answer.QuestionID,
		SelectedOptions: options,
		FreeText:        answer.FreeText,
		UpdatedAt:       answer.UpdatedAt.UTC(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "partition_key"}, {Name: "sort_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"selected_options": row.SelectedOptions,
			"free_text":        row.FreeText,
			"updated_at":       row.UpdatedAt,
		}),
	}).Create(&row)
	if result.Error != nil {
		return r.logError("draft_repo_put_answer_failed", result.Error, "poll_id", answer.Key.PollID, "question_id", answer.QuestionID)
	}
	return nil
}

func (r *Repository) ListDraftAnswers(ctx context.Context, key entities.ResponseKey) ([]entities.DraftAnswer, error) {
	partition, err := key.PartitionKey()
	if err != nil {
		return nil, r.logError("draft_repo_encode_failed", err, "poll_id", key.PollID)
	}
	var rows []draftAnswerModel
	err = r.db.WithContext(ctx).
		Where("partition_key = ? AND sort_key LIKE ?", partition, escapeLike(key.SortKey()+keycodec.Separator)+"%").
		Order("sort_key ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("draft_repo_list_answers_failed", err, "poll_id", key.PollID)
	}

	items := make([]entities.DraftAnswer, 0, len(rows))
	for _, row := range rows {
		var options []string
		if len(row.SelectedOptions) > 0 {
			if err := json.Unmarshal(row.SelectedOptions, &options); err != nil {
				return nil, r.logError("draft_repo_decode_failed", err, "poll_id", key.PollID, "question_id", row.QuestionID)
			}
		}
		items = append(items, entities.DraftAnswer{
			Key:             key,
			QuestionID:      row.QuestionID,
			SelectedOptions: options,
			FreeText:        row.FreeText,
			UpdatedAt:       row.UpdatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) PutStatus(ctx context.Context, status entities.VoterStatus) error {
	partition, err := status.Key.PartitionKey()
	if err != nil {
		return r.logError("draft_repo_encode_failed", err, "poll_id", status.Key.PollID)
	}
	row := voterStatusModel{
		PartitionKey: partition,
		SortKey:      status.Key.SortKey(),
		Status:       string(status.Status),
		UpdatedAt:    status.UpdatedAt.UTC(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "partition_key"}, {Name: "sort_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":     row.Status,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if result.Error != nil {
		return r.logError("draft_repo_put_status_failed", result.Error, "poll_id", status.Key.PollID)
	}
	return nil
}

func (r *Repository) GetStatus(ctx context.Context, key entities.ResponseKey) (entities.VoterStatus, bool, error) {
	partition, err := key.PartitionKey()
	if err != nil {
		return entities.VoterStatus{}, false, r.logError("draft_repo_encode_failed", err, "poll_id", key.PollID)
	}
	var row voterStatusModel
	err = r.db.WithContext(ctx).
		Where("partition_key = ? AND sort_key = ?", partition, key.SortKey()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VoterStatus{}, false, nil
		}
		return entities.VoterStatus{}, false, r.logError("draft_repo_get_status_failed", err, "poll_id", key.PollID)
	}
	return entities.VoterStatus{
		Key:       key,
		Status:    entities.VotingStatus(row.Status),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, true, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("draft_repo_outbox_encode_failed", err, "event_id", envelope.EventID)
	}
	row := outboxModel{
		ID:           uuid.NewString(),
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       "pending",
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("draft_repo_outbox_append_failed", err, "event_id", envelope.EventID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", "pending").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("draft_repo_outbox_list_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.ID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	stamped := publishedAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("id = ?", outboxID).
		Updates(map[string]any{
			"status":       "published",
			"published_at": &stamped,
		})
	if result.Error != nil {
		return r.logError("draft_repo_outbox_mark_failed", result.Error, "outbox_id", outboxID)
	}
	return nil
}

// escapeLike neutralizes LIKE metacharacters in key prefixes. Window keys
// always carry an underscore and escaped segments can carry percent signs.
func escapeLike(prefix string) string {
	prefix = strings.ReplaceAll(prefix, `\`, `\\`)
	prefix = strings.ReplaceAll(prefix, `%`, `\%`)
	return strings.ReplaceAll(prefix, `_`, `\_`)
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "survey/voting-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("draft repository operation failed", fields...)
	return err
}

type draftModel struct {
	PartitionKey string    `gorm:"column:partition_key;primaryKey"`
	SortKey      string    `gorm:"column:sort_key;primaryKey"`
	PollID       string    `gorm:"column:poll_id"`
	Version      int64     `gorm:"column:version"`
	WindowStart  string    `gorm:"column:window_start"`
	WindowEnd    string    `gorm:"column:window_end"`
	VoterEmail   string    `gorm:"column:voter_email"`
	Content      []byte    `gorm:"column:content"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (draftModel) TableName() string {
	return "vote_drafts"
}

type draftAnswerModel struct {
	PartitionKey    string    `gorm:"column:partition_key;primaryKey"`
	SortKey         string    `gorm:"column:sort_key;primaryKey"`
	QuestionID      string    `gorm:"column:question_id"`
	SelectedOptions []byte    `gorm:"column:selected_options"`
	FreeText        string    `gorm:"column:free_text"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (draftAnswerModel) TableName() string {
	return "vote_draft_answers"
}

type voterStatusModel struct {
	PartitionKey string    `gorm:"column:partition_key;primaryKey"`
	SortKey      string    `gorm:"column:sort_key;primaryKey"`
	Status       string    `gorm:"column:status"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (voterStatusModel) TableName() string {
	return "voter_statuses"
}

type outboxModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "vote_outbox"
}

var (
	_ ports.DraftRepository  = (*Repository)(nil)
	_ ports.OutboxWriter     = (*Repository)(nil)
	_ ports.OutboxRepository = (*Repository)(nil)
)
