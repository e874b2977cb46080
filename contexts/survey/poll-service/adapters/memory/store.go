package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"pollsmith/contexts/survey/poll-service/domain/entities"
	domainerrors "pollsmith/contexts/survey/poll-service/domain/errors"

	"github.com/google/uuid"
)

type Store struct {
	mu    sync.RWMutex
	polls map[string]entities.Poll
}

func NewStore(seed []entities.Poll) *Store {
	polls := make(map[string]entities.Poll, len(seed))
	for _, poll := range seed {
		polls[poll.PollID] = poll
	}
	return &Store{polls: polls}
}

// MarkVersioned stamps the poll as having a version taken at the given time.
// Test wiring for the snapshot marks the release service maintains.
func (s *Store) MarkVersioned(pollID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return
	}
	stamped := at.UTC()
	poll.LastVersionedAt = &stamped
	s.polls[poll.PollID] = poll
}

// MarkReleased stamps the poll as released at the given time.
func (s *Store) MarkReleased(pollID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return
	}
	stamped := at.UTC()
	poll.LastReleasedAt = &stamped
	poll.Status = entities.PollStatusInProgress
	s.polls[poll.PollID] = poll
}

func (s *Store) SavePoll(_ context.Context, poll entities.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[strings.TrimSpace(poll.PollID)] = poll
	return nil
}

func (s *Store) GetPoll(_ context.Context, pollID string) (entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return entities.Poll{}, domainerrors.ErrPollNotFound
	}
	return poll, nil
}

func (s *Store) ListPolls(_ context.Context) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Poll, 0, len(s.polls))
	for _, poll := range s.polls {
		items = append(items, poll)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) DeletePoll(_ context.Context, pollID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.polls[strings.TrimSpace(pollID)]; !ok {
		return domainerrors.ErrPollNotFound
	}
	delete(s.polls, strings.TrimSpace(pollID))
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
