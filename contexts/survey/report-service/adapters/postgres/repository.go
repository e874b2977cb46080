package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pollsmith/contexts/survey/report-service/domain/entities"
	"pollsmith/contexts/survey/report-service/ports"
	"pollsmith/internal/shared/keycodec"
	"pollsmith/internal/shared/recurrence"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists answer counters and voter attribution rows with the
// partition/sort layout shared with the memory adapter. Counter writes are
// upserts on the full key; voter rows are append-only, a conflicting insert
// is a no-op because the row already proves the increment landed.
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

func (r *Repository) GetAnswerReport(ctx context.Context, key entities.AnswerKey) (entities.AnswerReport, bool, error) {
	partition, err := key.PartitionKey()
	if err != nil {
		return entities.AnswerReport{}, false, r.logError("report_repo_encode_failed", err, "poll_id", key.PollID)
	}
	var row answerReportModel
	err = r.db.WithContext(ctx).
		Where("partition_key = ? AND sort_key = ?", partition, key.SortKey()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AnswerReport{}, false, nil
		}
		return entities.AnswerReport{}, false, r.logError("report_repo_get_failed", err, "poll_id", key.PollID)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) PutAnswerReport(ctx context.Context, report entities.AnswerReport) error {
	partition, err := report.Key.PartitionKey()
	if err != nil {
		return r.logError("report_repo_encode_failed", err, "poll_id", report.Key.PollID)
	}
	row := answerReportModel{
		PartitionKey: partition,
		SortKey:      report.Key.SortKey(),
		PollID:       strings.TrimSpace(report.Key.PollID),
		Version:      report.Key.Version,
		WindowStart:  report.Key.Window.StartDate,
		WindowEnd:    report.Key.Window.EndDate,
		QuestionID:   strings.TrimSpace(report.Key.QuestionID),
		Answer:       strings.TrimSpace(report.Key.Answer),
		Count:        report.Count,
		UpdatedAt:    report.UpdatedAt.UTC(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "partition_key"}, {Name: "sort_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":      row.Count,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if result.Error != nil {
		return r.logError("report_repo_put_failed", result.Error, "poll_id", row.PollID, "sort_key", row.SortKey)
	}
	return nil
}

func (r *Repository) ListAnswerReportsForRecurrence(
	ctx context.Context,
	key entities.RecurrenceKey,
	cursor string,
	limit int,
) (ports.ReportPage, error) {
	partition, err := key.PartitionKey()
	if err != nil {
		return ports.ReportPage{}, r.logError("report_repo_encode_failed", err, "poll_id", key.PollID)
	}

	query := r.db.WithContext(ctx).
		Where("partition_key = ? AND sort_key LIKE ?", partition, escapeLike(key.SortPrefix()+keycodec.Separator)+"%")
	if cursor != "" {
		query = query.Where("sort_key > ?", cursor)
	}
	// Fetch one extra row to learn whether another page exists.
	if limit > 0 {
		query = query.Limit(limit + 1)
	}

	var rows []answerReportModel
	if err := query.Order("sort_key ASC").Find(&rows).Error; err != nil {
		return ports.ReportPage{}, r.logError("report_repo_list_failed", err, "poll_id", key.PollID)
	}

	page := ports.ReportPage{Items: make([]entities.AnswerReport, 0, len(rows))}
	for i, row := range rows {
		if limit > 0 && i >= limit {
			page.NextCursor = rows[i-1].SortKey
			break
		}
		page.Items = append(page.Items, row.toEntity())
	}
	return page, nil
}

func (r *Repository) ListAnswerReportsForPoll(ctx context.Context, pollID string) ([]entities.AnswerReport, error) {
	var rows []answerReportModel
	err := r.db.WithContext(ctx).
		Where("partition_key LIKE ?", escapeLike(strings.TrimSpace(pollID)+keycodec.Separator)+"%").
		Order("partition_key ASC, sort_key ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("report_repo_list_poll_failed", err, "poll_id", pollID)
	}
	items := make([]entities.AnswerReport, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) HasVoterReport(ctx context.Context, report entities.VoterReport) (bool, error) {
	partition, err := report.Key.PartitionKey()
	if err != nil {
		return false, r.logError("report_repo_encode_failed", err, "poll_id", report.Key.PollID)
	}
	var count int64
	err = r.db.WithContext(ctx).
		Model(&voterReportModel{}).
		Where("partition_key = ? AND sort_key = ?", partition, report.SortKey()).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("report_repo_has_voter_failed", err, "poll_id", report.Key.PollID)
	}
	return count > 0, nil
}

func (r *Repository) PutVoterReport(ctx context.Context, report entities.VoterReport) error {
	partition, err := report.Key.PartitionKey()
	if err != nil {
		return r.logError("report_repo_encode_failed", err, "poll_id", report.Key.PollID)
	}
	row := voterReportModel{
		PartitionKey: partition,
		SortKey:      report.SortKey(),
		PollID:       strings.TrimSpace(report.Key.PollID),
		Version:      report.Key.Version,
		WindowStart:  report.Key.Window.StartDate,
		WindowEnd:    report.Key.Window.EndDate,
		QuestionID:   strings.TrimSpace(report.Key.QuestionID),
		Answer:       strings.TrimSpace(report.Key.Answer),
		VoterEmail:   strings.TrimSpace(report.VoterEmail),
		CreatedAt:    report.CreatedAt.UTC(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "partition_key"}, {Name: "sort_key"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return r.logError("report_repo_put_voter_failed", result.Error, "poll_id", row.PollID, "sort_key", row.SortKey)
	}
	return nil
}

func (r *Repository) ListVotersOfAnswer(ctx context.Context, key entities.AnswerKey) ([]string, error) {
	partition, err := key.PartitionKey()
	if err != nil {
		return nil, r.logError("report_repo_encode_failed", err, "poll_id", key.PollID)
	}
	var rows []voterReportModel
	err = r.db.WithContext(ctx).
		Where("partition_key = ? AND sort_key LIKE ?", partition, escapeLike(key.SortKey()+keycodec.Separator)+"%").
		Order("sort_key ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("report_repo_list_voters_failed", err, "poll_id", key.PollID)
	}
	emails := make([]string, 0, len(rows))
	for _, row := range rows {
		emails = append(emails, row.VoterEmail)
	}
	return emails, nil
}

func (r *Repository) ListVoterReportsForRecurrence(ctx context.Context, key entities.RecurrenceKey) ([]entities.VoterReport, error) {
	partition, err := key.PartitionKey()
	if err != nil {
		return nil, r.logError("report_repo_encode_failed", err, "poll_id", key.PollID)
	}
	var rows []voterReportModel
	err = r.db.WithContext(ctx).
		Where("partition_key = ? AND sort_key LIKE ?", partition, escapeLike(key.SortPrefix()+keycodec.Separator)+"%").
		Order("sort_key ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("report_repo_list_voter_rows_failed", err, "poll_id", key.PollID)
	}
	items := make([]entities.VoterReport, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.VoterReport{
			Key:        row.answerKey(),
			VoterEmail: row.VoterEmail,
			CreatedAt:  row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

// ReserveEvent claims an event id for processing. The insert wins exactly
// once; a conflicting row that has not expired means the event was already
// handled.
func (r *Repository) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	row := processedEventModel{
		EventID:     eventID,
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt.UTC(),
		ReservedAt:  time.Now().UTC(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, r.logError("report_repo_reserve_failed", result.Error, "event_id", eventID)
	}
	if result.RowsAffected > 0 {
		return false, nil
	}

	var existing processedEventModel
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&existing).Error; err != nil {
		return false, r.logError("report_repo_reserve_lookup_failed", err, "event_id", eventID)
	}
	if time.Now().UTC().Before(existing.ExpiresAt) {
		return true, nil
	}

	// Expired reservation, take it over.
	err := r.db.WithContext(ctx).
		Model(&processedEventModel{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"payload_hash": payloadHash,
			"expires_at":   expiresAt.UTC(),
			"reserved_at":  time.Now().UTC(),
		}).
		Error
	if err != nil {
		return false, r.logError("report_repo_reserve_refresh_failed", err, "event_id", eventID)
	}
	return false, nil
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
		"module", "survey/report-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("report repository operation failed", fields...)
	return err
}

type answerReportModel struct {
	PartitionKey string    `gorm:"column:partition_key;primaryKey"`
	SortKey      string    `gorm:"column:sort_key;primaryKey"`
	PollID       string    `gorm:"column:poll_id"`
	Version      int64     `gorm:"column:version"`
	WindowStart  string    `gorm:"column:window_start"`
	WindowEnd    string    `gorm:"column:window_end"`
	QuestionID   string    `gorm:"column:question_id"`
	Answer       string    `gorm:"column:answer"`
	Count        int64     `gorm:"column:count"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (answerReportModel) TableName() string {
	return "answer_reports"
}

func (m answerReportModel) toEntity() entities.AnswerReport {
	return entities.AnswerReport{
		Key:       m.answerKey(),
		Count:     m.Count,
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func (m answerReportModel) answerKey() entities.AnswerKey {
	return entities.AnswerKey{
		RecurrenceKey: entities.RecurrenceKey{
			PollID:  m.PollID,
			Version: m.Version,
			Window:  recurrence.Window{StartDate: m.WindowStart, EndDate: m.WindowEnd},
		},
		QuestionID: m.QuestionID,
		Answer:     m.Answer,
	}
}

type voterReportModel struct {
	PartitionKey string    `gorm:"column:partition_key;primaryKey"`
	SortKey      string    `gorm:"column:sort_key;primaryKey"`
	PollID       string    `gorm:"column:poll_id"`
	Version      int64     `gorm:"column:version"`
	WindowStart  string    `gorm:"column:window_start"`
	WindowEnd    string    `gorm:"column:window_end"`
	QuestionID   string    `gorm:"column:question_id"`
	Answer       string    `gorm:"column:answer"`
	VoterEmail   string    `gorm:"column:voter_email"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (voterReportModel) TableName() string {
	return "voter_reports"
}

func (m voterReportModel) answerKey() entities.AnswerKey {
	return entities.AnswerKey{
		RecurrenceKey: entities.RecurrenceKey{
			PollID:  m.PollID,
			Version: m.Version,
			Window:  recurrence.Window{StartDate: m.WindowStart, EndDate: m.WindowEnd},
		},
		QuestionID: m.QuestionID,
		Answer:     m.Answer,
	}
}

type processedEventModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ReservedAt  time.Time `gorm:"column:reserved_at"`
}

func (processedEventModel) TableName() string {
	return "report_processed_events"
}

var (
	_ ports.ReportRepository = (*Repository)(nil)
	_ ports.EventDedupStore  = (*Repository)(nil)
)
