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

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository stores snapshot headers and question copies as range-scannable
// rows: partition key is the poll id, sort key is kind plus the zero-padded
// sequence number. Latest is a reverse scan over one kind prefix.
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

func (r *Repository) SaveVersion(ctx context.Context, version entities.Version) error {
	return r.saveHeader(ctx, version.PollID, entities.KindVersion, version.Number, version.CreatedAt)
}

func (r *Repository) SaveRelease(ctx context.Context, release entities.Release) error {
	return r.saveHeader(ctx, release.PollID, entities.KindRelease, release.Number, release.CreatedAt)
}

// saveHeader inserts once and never updates. Sequence numbers come from a
// max+1 read, so a unique violation means two packagers raced the same
// number; the loser surfaces a conflict instead of silently reusing it.
func (r *Repository) saveHeader(ctx context.Context, pollID string, kind entities.SnapshotKind, number int64, createdAt time.Time) error {
	sortKey, err := entities.SortKey(kind, number)
	if err != nil {
		return r.logError("snapshot_repo_encode_failed", err, "poll_id", pollID)
	}
	row := snapshotModel{
		PartitionKey: strings.TrimSpace(pollID),
		SortKey:      sortKey,
		Kind:         string(kind),
		Number:       number,
		CreatedAt:    createdAt.UTC(),
	}
	result := r.db.WithContext(ctx).Create(&row)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainerrors.ErrSequenceConflict
		}
		return r.logError("snapshot_repo_save_failed", result.Error, "poll_id", pollID, "sort_key", sortKey)
	}
	return nil
}

func (r *Repository) SaveQuestionSet(ctx context.Context, set entities.QuestionSet) error {
	sortKey, err := entities.SortKey(set.Kind, set.Number)
	if err != nil {
		return r.logError("snapshot_repo_encode_failed", err, "poll_id", set.PollID)
	}
	payload, err := json.Marshal(questionRecordsFromEntities(set.Questions))
	if err != nil {
		return r.logError("snapshot_repo_encode_failed", err, "poll_id", set.PollID, "sort_key", sortKey)
	}
	row := questionSetModel{
		PartitionKey: strings.TrimSpace(set.PollID),
		SortKey:      sortKey,
		Questions:    payload,
		CreatedAt:    set.CreatedAt.UTC(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "partition_key"}, {Name: "sort_key"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return r.logError("snapshot_repo_save_questions_failed", result.Error, "poll_id", set.PollID, "sort_key", sortKey)
	}
	return nil
}

func (r *Repository) MaxSequence(ctx context.Context, pollID string, kind entities.SnapshotKind) (int64, error) {
	var row snapshotModel
	err := r.db.WithContext(ctx).
		Where("partition_key = ? AND kind = ?", strings.TrimSpace(pollID), string(kind)).
		Order("sort_key DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, r.logError("snapshot_repo_max_failed", err, "poll_id", pollID, "kind", string(kind))
	}
	return row.Number, nil
}

func (r *Repository) LatestVersion(ctx context.Context, pollID string) (entities.Version, error) {
	row, err := r.latest(ctx, pollID, entities.KindVersion, domainerrors.ErrVersionNotFound)
	if err != nil {
		return entities.Version{}, err
	}
	return entities.Version{PollID: row.PartitionKey, Number: row.Number, CreatedAt: row.CreatedAt.UTC()}, nil
}

func (r *Repository) LatestRelease(ctx context.Context, pollID string) (entities.Release, error) {
	row, err := r.latest(ctx, pollID, entities.KindRelease, domainerrors.ErrReleaseNotFound)
	if err != nil {
		return entities.Release{}, err
	}
	return entities.Release{PollID: row.PartitionKey, Number: row.Number, CreatedAt: row.CreatedAt.UTC()}, nil
}

func (r *Repository) latest(ctx context.Context, pollID string, kind entities.SnapshotKind, absent error) (snapshotModel, error) {
	var row snapshotModel
	err := r.db.WithContext(ctx).
		Where("partition_key = ? AND kind = ?", strings.TrimSpace(pollID), string(kind)).
		Order("sort_key DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return snapshotModel{}, absent
		}
		return snapshotModel{}, r.logError("snapshot_repo_latest_failed", err, "poll_id", pollID, "kind", string(kind))
	}
	return row, nil
}

func (r *Repository) ListVersions(ctx context.Context, pollID string) ([]entities.Version, error) {
	rows, err := r.list(ctx, pollID, entities.KindVersion)
	if err != nil {
		return nil, err
	}
	items := make([]entities.Version, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Version{PollID: row.PartitionKey, Number: row.Number, CreatedAt: row.CreatedAt.UTC()})
	}
	return items, nil
}

func (r *Repository) ListReleases(ctx context.Context, pollID string) ([]entities.Release, error) {
	rows, err := r.list(ctx, pollID, entities.KindRelease)
	if err != nil {
		return nil, err
	}
	items := make([]entities.Release, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Release{PollID: row.PartitionKey, Number: row.Number, CreatedAt: row.CreatedAt.UTC()})
	}
	return items, nil
}

func (r *Repository) list(ctx context.Context, pollID string, kind entities.SnapshotKind) ([]snapshotModel, error) {
	var rows []snapshotModel
	err := r.db.WithContext(ctx).
		Where("partition_key = ? AND kind = ?", strings.TrimSpace(pollID), string(kind)).
		Order("sort_key ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("snapshot_repo_list_failed", err, "poll_id", pollID, "kind", string(kind))
	}
	return rows, nil
}

func (r *Repository) GetQuestionSet(ctx context.Context, pollID string, kind entities.SnapshotKind, number int64) (entities.QuestionSet, error) {
	sortKey, err := entities.SortKey(kind, number)
	if err != nil {
		return entities.QuestionSet{}, r.logError("snapshot_repo_encode_failed", err, "poll_id", pollID)
	}
	var row questionSetModel
	err = r.db.WithContext(ctx).
		Where("partition_key = ? AND sort_key = ?", strings.TrimSpace(pollID), sortKey).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.QuestionSet{}, domainerrors.ErrQuestionSetUnavailable
		}
		return entities.QuestionSet{}, r.logError("snapshot_repo_get_questions_failed", err, "poll_id", pollID, "sort_key", sortKey)
	}

	var records []questionRecord
	if len(row.Questions) > 0 {
		if err := json.Unmarshal(row.Questions, &records); err != nil {
			return entities.QuestionSet{}, r.logError("snapshot_repo_decode_failed", err, "poll_id", pollID, "sort_key", sortKey)
		}
	}
	return entities.QuestionSet{
		PollID:    row.PartitionKey,
		Kind:      kind,
		Number:    number,
		Questions: questionEntitiesFromRecords(records),
		CreatedAt: row.CreatedAt.UTC(),
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "survey/release-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("snapshot repository operation failed", fields...)
	return err
}

type snapshotModel struct {
	PartitionKey string    `gorm:"column:partition_key;primaryKey"`
	SortKey      string    `gorm:"column:sort_key;primaryKey"`
	Kind         string    `gorm:"column:kind"`
	Number       int64     `gorm:"column:number"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (snapshotModel) TableName() string {
	return "poll_snapshots"
}

type questionSetModel struct {
	PartitionKey string    `gorm:"column:partition_key;primaryKey"`
	SortKey      string    `gorm:"column:sort_key;primaryKey"`
	Questions    []byte    `gorm:"column:questions"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (questionSetModel) TableName() string {
	return "poll_snapshot_questions"
}

type questionRecord struct {
	QuestionID string   `json:"question_id"`
	Type       string   `json:"type"`
	Content    string   `json:"content"`
	Required   bool     `json:"required"`
	Options    []string `json:"options,omitempty"`
	Position   int      `json:"position"`
}

func questionRecordsFromEntities(questions []entities.Question) []questionRecord {
	records := make([]questionRecord, 0, len(questions))
	for _, question := range questions {
		records = append(records, questionRecord{
			QuestionID: question.QuestionID,
			Type:       question.Type,
			Content:    question.Content,
			Required:   question.Required,
			Options:    question.Options,
			Position:   question.Position,
		})
	}
	return records
}

func questionEntitiesFromRecords(records []questionRecord) []entities.Question {
	questions := make([]entities.Question, 0, len(records))
	for _, record := range records {
		questions = append(questions, entities.Question{
			QuestionID: record.QuestionID,
			Type:       record.Type,
			Content:    record.Content,
			Required:   record.Required,
			Options:    record.Options,
			Position:   record.Position,
		})
	}
	return questions
}

var _ ports.SnapshotRepository = (*Repository)(nil)
