package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"pollsmith/contexts/survey/voting-service/domain/entities"
	"pollsmith/contexts/survey/voting-service/ports"

	"github.com/google/uuid"
)

type outboxRow struct {
	message   ports.OutboxMessage
	published bool
}

// Store keeps drafts, answers, statuses, and the outbox in memory for tests
// and local wiring.
type Store struct {
	mu       sync.RWMutex
	drafts   map[string]entities.Draft
	answers  map[string]map[string]entities.DraftAnswer
	statuses map[string]entities.VoterStatus
	outbox   []outboxRow
}

func NewStore() *Store {
	return &Store{
		drafts:   make(map[string]entities.Draft),
		answers:  make(map[string]map[string]entities.DraftAnswer),
		statuses: make(map[string]entities.VoterStatus),
	}
}

func recordKey(key entities.ResponseKey) (string, error) {
	partition, err := key.PartitionKey()
	if err != nil {
		return "", err
	}
	return partition + "|" + key.SortKey(), nil
}

func (s *Store) PutDraft(_ context.Context, draft entities.Draft) error {
	key, err := recordKey(draft.Key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[key] = draft
	return nil
}

func (s *Store) GetDraft(_ context.Context, key entities.ResponseKey) (entities.Draft, bool, error) {
	record, err := recordKey(key)
	if err != nil {
		return entities.Draft{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.drafts[record]
	return draft, ok, nil
}

func (s *Store) PutDraftAnswer(_ context.Context, answer entities.DraftAnswer) error {
	key, err := recordKey(answer.Key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.answers[key] == nil {
		s.answers[key] = make(map[string]entities.DraftAnswer)
	}
	s.answers[key][answer.QuestionID] = answer
	return nil
}

func (s *Store) ListDraftAnswers(_ context.Context, key entities.ResponseKey) ([]entities.DraftAnswer, error) {
	record, err := recordKey(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.DraftAnswer, 0, len(s.answers[record]))
	for _, answer := range s.answers[record] {
		items = append(items, answer)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].QuestionID < items[j].QuestionID })
	return items, nil
}

func (s *Store) PutStatus(_ context.Context, status entities.VoterStatus) error {
	key, err := recordKey(status.Key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[key] = status
	return nil
}

func (s *Store) GetStatus(_ context.Context, key entities.ResponseKey) (entities.VoterStatus, bool, error) {
	record, err := recordKey(key)
	if err != nil {
		return entities.VoterStatus{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[record]
	return status, ok, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, outboxRow{
		message: ports.OutboxMessage{
			OutboxID:     uuid.NewString(),
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    time.Now().UTC(),
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0, limit)
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
