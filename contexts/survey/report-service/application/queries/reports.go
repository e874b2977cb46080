package queries

import (
	"context"
	"sort"
	"strings"

	"pollsmith/contexts/survey/report-service/domain/entities"
	domainerrors "pollsmith/contexts/survey/report-service/domain/errors"
	"pollsmith/contexts/survey/report-service/ports"
)

type ReportQueryUseCase struct {
	Reports ports.ReportRepository
}

// AnswerReport resolves a single counter. Absence is NotFound, unlike the
// zero-voter list queries.
func (uc ReportQueryUseCase) AnswerReport(ctx context.Context, key entities.AnswerKey) (entities.AnswerReport, error) {
	if err := key.Validate(); err != nil {
		return entities.AnswerReport{}, err
	}
	report, found, err := uc.Reports.GetAnswerReport(ctx, key)
	if err != nil {
		return entities.AnswerReport{}, err
	}
	if !found {
		return entities.AnswerReport{}, domainerrors.ErrAnswerReportNotFound
	}
	return report, nil
}

// AnswerReportsForRecurrence pages counters with the store-native cursor
// forwarded opaquely.
func (uc ReportQueryUseCase) AnswerReportsForRecurrence(
	ctx context.Context,
	key entities.RecurrenceKey,
	cursor string,
	limit int,
) (ports.ReportPage, error) {
	if err := key.Validate(); err != nil {
		return ports.ReportPage{}, err
	}
	return uc.Reports.ListAnswerReportsForRecurrence(ctx, key, cursor, limit)
}

// VotersOfAnswer returns the attributed voters. A valid answer nobody chose
// yields an empty list, not an error.
func (uc ReportQueryUseCase) VotersOfAnswer(ctx context.Context, key entities.AnswerKey) ([]string, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return uc.Reports.ListVotersOfAnswer(ctx, key)
}

// OverviewForRecurrence composes the per-question tallies for one window.
func (uc ReportQueryUseCase) OverviewForRecurrence(ctx context.Context, key entities.RecurrenceKey) (entities.OverviewReport, error) {
	if err := key.Validate(); err != nil {
		return entities.OverviewReport{}, err
	}
	reports, err := uc.allAnswerReports(ctx, key)
	if err != nil {
		return entities.OverviewReport{}, err
	}
	if len(reports) == 0 {
		return entities.OverviewReport{}, domainerrors.ErrOverviewNotFound
	}
	return entities.OverviewReport{
		PollID:    key.PollID,
		Version:   key.Version,
		Window:    key.Window,
		Questions: tally(reports),
	}, nil
}

// OverviewsForPoll returns one overview per (version, window) that has data.
// A poll with no reports yields an empty list.
func (uc ReportQueryUseCase) OverviewsForPoll(ctx context.Context, pollID string) ([]entities.OverviewReport, error) {
	if strings.TrimSpace(pollID) == "" {
		return nil, domainerrors.ErrPollIDRequired
	}
	reports, err := uc.Reports.ListAnswerReportsForPoll(ctx, strings.TrimSpace(pollID))
	if err != nil {
		return nil, err
	}

	type groupKey struct {
		version int64
		window  string
	}
	groups := make(map[groupKey][]entities.AnswerReport)
	for _, report := range reports {
		k := groupKey{version: report.Key.Version, window: report.Key.Window.Key()}
		groups[k] = append(groups[k], report)
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].version != keys[j].version {
			return keys[i].version < keys[j].version
		}
		return keys[i].window < keys[j].window
	})

	overviews := make([]entities.OverviewReport, 0, len(keys))
	for _, k := range keys {
		group := groups[k]
		overviews = append(overviews, entities.OverviewReport{
			PollID:    strings.TrimSpace(pollID),
			Version:   k.version,
			Window:    group[0].Key.Window,
			Questions: tally(group),
		})
	}
	return overviews, nil
}

// DetailForRecurrence composes counters with per-answer voter lists.
func (uc ReportQueryUseCase) DetailForRecurrence(ctx context.Context, key entities.RecurrenceKey) (entities.DetailReport, error) {
	if err := key.Validate(); err != nil {
		return entities.DetailReport{}, err
	}
	reports, err := uc.allAnswerReports(ctx, key)
	if err != nil {
		return entities.DetailReport{}, err
	}
	if len(reports) == 0 {
		return entities.DetailReport{}, domainerrors.ErrOverviewNotFound
	}
	voterRows, err := uc.Reports.ListVoterReportsForRecurrence(ctx, key)
	if err != nil {
		return entities.DetailReport{}, err
	}

	type answerKey struct {
		questionID string
		answer     string
	}
	voters := make(map[answerKey][]string)
	for _, row := range voterRows {
		k := answerKey{questionID: row.Key.QuestionID, answer: row.Key.Answer}
		voters[k] = append(voters[k], row.VoterEmail)
	}

	byQuestion := make(map[string][]entities.AnswerDetail)
	for _, report := range reports {
		k := answerKey{questionID: report.Key.QuestionID, answer: report.Key.Answer}
		attributed := append([]string(nil), voters[k]...)
		sort.Strings(attributed)
		byQuestion[report.Key.QuestionID] = append(byQuestion[report.Key.QuestionID], entities.AnswerDetail{
			Answer: report.Key.Answer,
			Count:  report.Count,
			Voters: attributed,
		})
	}

	questionIDs := make([]string, 0, len(byQuestion))
	for questionID := range byQuestion {
		questionIDs = append(questionIDs, questionID)
	}
	sort.Strings(questionIDs)

	detail := entities.DetailReport{
		PollID:  key.PollID,
		Version: key.Version,
		Window:  key.Window,
	}
	for _, questionID := range questionIDs {
		answers := byQuestion[questionID]
		sort.Slice(answers, func(i, j int) bool { return answers[i].Answer < answers[j].Answer })
		detail.Questions = append(detail.Questions, entities.QuestionDetail{
			QuestionID: questionID,
			Answers:    answers,
		})
	}
	return detail, nil
}

func (uc ReportQueryUseCase) allAnswerReports(ctx context.Context, key entities.RecurrenceKey) ([]entities.AnswerReport, error) {
	var all []entities.AnswerReport
	cursor := ""
	for {
		page, err := uc.Reports.ListAnswerReportsForRecurrence(ctx, key, cursor, 0)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

func tally(reports []entities.AnswerReport) []entities.QuestionTally {
	byQuestion := make(map[string]*entities.QuestionTally)
	for _, report := range reports {
		questionID := report.Key.QuestionID
		entry, ok := byQuestion[questionID]
		if !ok {
			entry = &entities.QuestionTally{QuestionID: questionID}
			byQuestion[questionID] = entry
		}
		entry.Answers = append(entry.Answers, entities.AnswerTally{
			Answer: report.Key.Answer,
			Count:  report.Count,
		})
		entry.TotalVotes += report.Count
	}

	questionIDs := make([]string, 0, len(byQuestion))
	for questionID := range byQuestion {
		questionIDs = append(questionIDs, questionID)
	}
	sort.Strings(questionIDs)

	tallies := make([]entities.QuestionTally, 0, len(questionIDs))
	for _, questionID := range questionIDs {
		entry := byQuestion[questionID]
		sort.Slice(entry.Answers, func(i, j int) bool { return entry.Answers[i].Answer < entry.Answers[j].Answer })
		tallies = append(tallies, *entry)
	}
	return tallies
}
