package ports

import (
	"context"
	"time"

	"pollsmith/contexts/survey/voting-service/domain/entities"
	"pollsmith/internal/shared/events"
)

// EventEnvelope reuses the canonical envelope shared across the bus.
type EventEnvelope = events.Envelope

// DraftRepository persists drafts, per-question draft answers, and voter
// statuses. All writes are idempotent upserts on the full record key.
type DraftRepository interface {
	PutDraft(ctx context.Context, draft entities.Draft) error
	GetDraft(ctx context.Context, key entities.ResponseKey) (entities.Draft, bool, error)
	PutDraftAnswer(ctx context.Context, answer entities.DraftAnswer) error
	ListDraftAnswers(ctx context.Context, key entities.ResponseKey) ([]entities.DraftAnswer, error)
	PutStatus(ctx context.Context, status entities.VoterStatus) error
	GetStatus(ctx context.Context, key entities.ResponseKey) (entities.VoterStatus, bool, error)
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
