package ports

import (
	"context"
	"time"

	"pollsmith/contexts/survey/report-service/domain/entities"
	"pollsmith/internal/shared/events"
	"pollsmith/internal/shared/recurrence"
)

// EventEnvelope reuses the canonical envelope shared across the bus.
type EventEnvelope = events.Envelope

// ReportPage is one page of answer counters plus the store-native cursor for
// the next page. The cursor is opaque to callers and round-trips unchanged.
type ReportPage struct {
	Items      []entities.AnswerReport
	NextCursor string
}

// ReportRepository persists answer counters and voter attribution rows. The
// voter row for an exact (recurrence, question, answer, voter) key is the
// idempotency fence: aggregation checks it before touching the counter.
type ReportRepository interface {
	GetAnswerReport(ctx context.Context, key entities.AnswerKey) (entities.AnswerReport, bool, error)
	PutAnswerReport(ctx context.Context, report entities.AnswerReport) error
	ListAnswerReportsForRecurrence(ctx context.Context, key entities.RecurrenceKey, cursor string, limit int) (ReportPage, error)
	ListAnswerReportsForPoll(ctx context.Context, pollID string) ([]entities.AnswerReport, error)
	HasVoterReport(ctx context.Context, report entities.VoterReport) (bool, error)
	PutVoterReport(ctx context.Context, report entities.VoterReport) error
	ListVotersOfAnswer(ctx context.Context, key entities.AnswerKey) ([]string, error)
	ListVoterReportsForRecurrence(ctx context.Context, key entities.RecurrenceKey) ([]entities.VoterReport, error)
}

// VoterStatusWriter delegates recurrence status changes to the service that
// owns the voting state machine.
type VoterStatusWriter interface {
	UpdateVoterStatus(
		ctx context.Context,
		pollID string,
		version int64,
		window recurrence.Window,
		voterEmail string,
		status string,
	) error
}

// EventDedupStore provides idempotent processing guarantees for consumed
// events.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type Clock interface {
	Now() time.Time
}
