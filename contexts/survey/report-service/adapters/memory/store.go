package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"pollsmith/contexts/survey/report-service/domain/entities"
	"pollsmith/contexts/survey/report-service/ports"
	"pollsmith/internal/shared/keycodec"
)

type reservation struct {
	payloadHash string
	expiresAt   time.Time
}

// Store keeps counters, voter attribution rows, and the consumer dedup table
// in memory for tests and local wiring. Rows are indexed the same way the
// postgres adapter lays them out, partition key to sort key, so pagination
// behaves identically across both.
type Store struct {
	mu           sync.RWMutex
	answers      map[string]map[string]entities.AnswerReport
	voters       map[string]map[string]entities.VoterReport
	reservations map[string]reservation
}

func NewStore() *Store {
	return &Store{
		answers:      make(map[string]map[string]entities.AnswerReport),
		voters:       make(map[string]map[string]entities.VoterReport),
		reservations: make(map[string]reservation),
	}
}

func (s *Store) GetAnswerReport(_ context.Context, key entities.AnswerKey) (entities.AnswerReport, bool, error) {
	partition, err := key.PartitionKey()
	if err != nil {
		return entities.AnswerReport{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.answers[partition][key.SortKey()]
	return report, ok, nil
}

func (s *Store) PutAnswerReport(_ context.Context, report entities.AnswerReport) error {
	partition, err := report.Key.PartitionKey()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.answers[partition] == nil {
		s.answers[partition] = make(map[string]entities.AnswerReport)
	}
	s.answers[partition][report.Key.SortKey()] = report
	return nil
}

func (s *Store) ListAnswerReportsForRecurrence(
	_ context.Context,
	key entities.RecurrenceKey,
	cursor string,
	limit int,
) (ports.ReportPage, error) {
	partition, err := key.PartitionKey()
	if err != nil {
		return ports.ReportPage{}, err
	}
	prefix := key.SortPrefix() + keycodec.Separator

	s.mu.RLock()
	defer s.mu.RUnlock()

	sortKeys := make([]string, 0, len(s.answers[partition]))
	for sortKey := range s.answers[partition] {
		if !strings.HasPrefix(sortKey, prefix) {
			continue
		}
		if cursor != "" && sortKey <= cursor {
			continue
		}
		sortKeys = append(sortKeys, sortKey)
	}
	sort.Strings(sortKeys)

	page := ports.ReportPage{Items: make([]entities.AnswerReport, 0, len(sortKeys))}
	for i, sortKey := range sortKeys {
		if limit > 0 && i >= limit {
			page.NextCursor = sortKeys[i-1]
			break
		}
		page.Items = append(page.Items, s.answers[partition][sortKey])
	}
	return page, nil
}

func (s *Store) ListAnswerReportsForPoll(_ context.Context, pollID string) ([]entities.AnswerReport, error) {
	prefix := strings.TrimSpace(pollID) + keycodec.Separator

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []entities.AnswerReport
	for partition, rows := range s.answers {
		if !strings.HasPrefix(partition, prefix) {
			continue
		}
		for _, report := range rows {
			items = append(items, report)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Key.Version != items[j].Key.Version {
			return items[i].Key.Version < items[j].Key.Version
		}
		return items[i].Key.SortKey() < items[j].Key.SortKey()
	})
	return items, nil
}

func (s *Store) HasVoterReport(_ context.Context, report entities.VoterReport) (bool, error) {
	partition, err := report.Key.PartitionKey()
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.voters[partition][report.SortKey()]
	return ok, nil
}

func (s *Store) PutVoterReport(_ context.Context, report entities.VoterReport) error {
	partition, err := report.Key.PartitionKey()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voters[partition] == nil {
		s.voters[partition] = make(map[string]entities.VoterReport)
	}
	if _, ok := s.voters[partition][report.SortKey()]; ok {
		return nil
	}
	s.voters[partition][report.SortKey()] = report
	return nil
}

func (s *Store) ListVotersOfAnswer(_ context.Context, key entities.AnswerKey) ([]string, error) {
	partition, err := key.PartitionKey()
	if err != nil {
		return nil, err
	}
	prefix := key.SortKey() + keycodec.Separator

	s.mu.RLock()
	defer s.mu.RUnlock()

	emails := make([]string, 0)
	for sortKey, report := range s.voters[partition] {
		if strings.HasPrefix(sortKey, prefix) {
			emails = append(emails, report.VoterEmail)
		}
	}
	sort.Strings(emails)
	return emails, nil
}

func (s *Store) ListVoterReportsForRecurrence(_ context.Context, key entities.RecurrenceKey) ([]entities.VoterReport, error) {
	partition, err := key.PartitionKey()
	if err != nil {
		return nil, err
	}
	prefix := key.SortPrefix() + keycodec.Separator

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []entities.VoterReport
	for sortKey, report := range s.voters[partition] {
		if strings.HasPrefix(sortKey, prefix) {
			items = append(items, report)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SortKey() < items[j].SortKey() })
	return items, nil
}

// ReserveEvent claims an event id for processing. A live reservation means
// the event was already handled and the caller should skip it.
func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.reservations[eventID]; ok && time.Now().UTC().Before(existing.expiresAt) {
		return true, nil
	}
	s.reservations[eventID] = reservation{payloadHash: payloadHash, expiresAt: expiresAt}
	return false, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

var (
	_ ports.ReportRepository = (*Store)(nil)
	_ ports.EventDedupStore  = (*Store)(nil)
	_ ports.Clock            = (*Store)(nil)
)
