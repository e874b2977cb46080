package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"pollsmith/contexts/survey/release-service/domain/entities"
	domainerrors "pollsmith/contexts/survey/release-service/domain/errors"
)

// Store keeps snapshot history and a local poll projection in memory. It
// backs tests and local wiring; the composite sort keys match what the
// postgres adapter writes so ordering behavior is shared.
type Store struct {
	mu           sync.RWMutex
	polls        map[string]entities.PollInfo
	versions     map[string][]entities.Version
	releases     map[string][]entities.Release
	questionSets map[string]entities.QuestionSet
}

func NewStore() *Store {
	return &Store{
		polls:        make(map[string]entities.PollInfo),
		versions:     make(map[string][]entities.Version),
		releases:     make(map[string][]entities.Release),
		questionSets: make(map[string]entities.QuestionSet),
	}
}

// SeedPoll installs a poll projection for packaging against.
func (s *Store) SeedPoll(poll entities.PollInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[strings.TrimSpace(poll.PollID)] = poll
}

func (s *Store) GetPoll(_ context.Context, pollID string) (entities.PollInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return entities.PollInfo{}, domainerrors.ErrPollNotFound
	}
	return poll, nil
}

func (s *Store) MarkVersioned(_ context.Context, pollID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return domainerrors.ErrPollNotFound
	}
	stamped := at.UTC()
	poll.LastVersionedAt = &stamped
	s.polls[poll.PollID] = poll
	return nil
}

func (s *Store) MarkReleased(_ context.Context, pollID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return domainerrors.ErrPollNotFound
	}
	stamped := at.UTC()
	poll.LastReleasedAt = &stamped
	poll.Status = "IN PROGRESS"
	s.polls[poll.PollID] = poll
	return nil
}

func (s *Store) SaveVersion(_ context.Context, version entities.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[version.PollID] = append(s.versions[version.PollID], version)
	return nil
}

func (s *Store) SaveRelease(_ context.Context, release entities.Release) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases[release.PollID] = append(s.releases[release.PollID], release)
	return nil
}

func (s *Store) SaveQuestionSet(_ context.Context, set entities.QuestionSet) error {
	key, err := entities.SortKey(set.Kind, set.Number)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questionSets[set.PollID+"/"+key] = set
	return nil
}

func (s *Store) MaxSequence(_ context.Context, pollID string, kind entities.SnapshotKind) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var max int64
	switch kind {
	case entities.KindVersion:
		for _, version := range s.versions[strings.TrimSpace(pollID)] {
			if version.Number > max {
				max = version.Number
			}
		}
	case entities.KindRelease:
		for _, release := range s.releases[strings.TrimSpace(pollID)] {
			if release.Number > max {
				max = release.Number
			}
		}
	}
	return max, nil
}

func (s *Store) LatestVersion(_ context.Context, pollID string) (entities.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.versions[strings.TrimSpace(pollID)]
	if len(history) == 0 {
		return entities.Version{}, domainerrors.ErrVersionNotFound
	}
	latest := history[0]
	for _, version := range history[1:] {
		if version.Number > latest.Number {
			latest = version
		}
	}
	return latest, nil
}

func (s *Store) LatestRelease(_ context.Context, pollID string) (entities.Release, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.releases[strings.TrimSpace(pollID)]
	if len(history) == 0 {
		return entities.Release{}, domainerrors.ErrReleaseNotFound
	}
	latest := history[0]
	for _, release := range history[1:] {
		if release.Number > latest.Number {
			latest = release
		}
	}
	return latest, nil
}

func (s *Store) ListVersions(_ context.Context, pollID string) ([]entities.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := append([]entities.Version(nil), s.versions[strings.TrimSpace(pollID)]...)
	sort.Slice(history, func(i, j int) bool { return history[i].Number < history[j].Number })
	return history, nil
}

func (s *Store) ListReleases(_ context.Context, pollID string) ([]entities.Release, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := append([]entities.Release(nil), s.releases[strings.TrimSpace(pollID)]...)
	sort.Slice(history, func(i, j int) bool { return history[i].Number < history[j].Number })
	return history, nil
}

func (s *Store) GetQuestionSet(_ context.Context, pollID string, kind entities.SnapshotKind, number int64) (entities.QuestionSet, error) {
	key, err := entities.SortKey(kind, number)
	if err != nil {
		return entities.QuestionSet{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.questionSets[strings.TrimSpace(pollID)+"/"+key]
	if !ok {
		return entities.QuestionSet{}, domainerrors.ErrQuestionSetUnavailable
	}
	return set, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
