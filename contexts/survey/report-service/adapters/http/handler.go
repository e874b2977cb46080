package httpadapter

import (
	"context"
	"log/slog"

	"pollsmith/contexts/survey/report-service/application/commands"
	"pollsmith/contexts/survey/report-service/application/queries"
	"pollsmith/contexts/survey/report-service/domain/entities"
	httptransport "pollsmith/contexts/survey/report-service/transport/http"
)

type Handler struct {
	Aggregates commands.AggregateUseCase
	Queries    queries.ReportQueryUseCase
	Logger     *slog.Logger
}

// OverviewsForVersionHandler lists the overview of every recurrence of one
// poll version that has data. No data is an empty list, not an error.
func (h Handler) OverviewsForVersionHandler(ctx context.Context, pollID string, version int64) (httptransport.OverviewListResponse, error) {
	overviews, err := h.Queries.OverviewsForPoll(ctx, pollID)
	if err != nil {
		return httptransport.OverviewListResponse{}, err
	}
	items := make([]httptransport.OverviewPayload, 0, len(overviews))
	for _, overview := range overviews {
		if version > 0 && overview.Version != version {
			continue
		}
		items = append(items, mapOverview(overview))
	}
	return httptransport.OverviewListResponse{
		Message:         "Overview reports retrieved successfully",
		OverviewReports: items,
	}, nil
}

func (h Handler) OverviewHandler(ctx context.Context, key entities.RecurrenceKey) (httptransport.OverviewResponse, error) {
	overview, err := h.Queries.OverviewForRecurrence(ctx, key)
	if err != nil {
		return httptransport.OverviewResponse{}, err
	}
	return httptransport.OverviewResponse{
		Message:  "Overview report retrieved successfully",
		Overview: mapOverview(overview),
	}, nil
}

func (h Handler) UpdateStatusHandler(
	ctx context.Context,
	key entities.RecurrenceKey,
	req httptransport.UpdateStatusRequest,
) (httptransport.StatusResponse, error) {
	err := h.Aggregates.UpdateStatusForRecurrence(ctx, commands.UpdateStatusForRecurrenceCommand{
		Key:        key,
		VoterEmail: req.VoterEmail,
		Status:     req.Status,
	})
	if err != nil {
		return httptransport.StatusResponse{}, err
	}
	return httptransport.StatusResponse{
		Message: "Voting status updated successfully",
		Status:  req.Status,
	}, nil
}

func (h Handler) DetailHandler(ctx context.Context, key entities.RecurrenceKey) (httptransport.DetailResponse, error) {
	detail, err := h.Queries.DetailForRecurrence(ctx, key)
	if err != nil {
		return httptransport.DetailResponse{}, err
	}
	questions := make([]httptransport.QuestionDetailPayload, 0, len(detail.Questions))
	for _, question := range detail.Questions {
		answers := make([]httptransport.AnswerDetailPayload, 0, len(question.Answers))
		for _, answer := range question.Answers {
			answers = append(answers, httptransport.AnswerDetailPayload{
				Answer: answer.Answer,
				Count:  answer.Count,
				Voters: answer.Voters,
			})
		}
		questions = append(questions, httptransport.QuestionDetailPayload{
			QuestionID: question.QuestionID,
			Answers:    answers,
		})
	}
	return httptransport.DetailResponse{
		Message:   "Detail report retrieved successfully",
		PollID:    detail.PollID,
		Version:   detail.Version,
		StartDate: detail.Window.StartDate,
		EndDate:   detail.Window.EndDate,
		Questions: questions,
	}, nil
}

// VotersOfAnswerHandler narrows the detail view to the voters of a single
// answer value.
func (h Handler) VotersOfAnswerHandler(
	ctx context.Context,
	key entities.RecurrenceKey,
	questionID string,
	answer string,
) (httptransport.VoterListResponse, error) {
	voters, err := h.Queries.VotersOfAnswer(ctx, entities.AnswerKey{
		RecurrenceKey: key,
		QuestionID:    questionID,
		Answer:        answer,
	})
	if err != nil {
		return httptransport.VoterListResponse{}, err
	}
	return httptransport.VoterListResponse{
		Message:    "Voters retrieved successfully",
		QuestionID: questionID,
		Answer:     answer,
		Voters:     voters,
	}, nil
}

// AnswerReportsHandler pages the raw counters of one recurrence. The cursor
// round-trips opaquely.
func (h Handler) AnswerReportsHandler(
	ctx context.Context,
	key entities.RecurrenceKey,
	cursor string,
	limit int,
) (httptransport.AnswerReportListResponse, error) {
	page, err := h.Queries.AnswerReportsForRecurrence(ctx, key, cursor, limit)
	if err != nil {
		return httptransport.AnswerReportListResponse{}, err
	}
	reports := make([]httptransport.AnswerReportPayload, 0, len(page.Items))
	for _, report := range page.Items {
		reports = append(reports, httptransport.AnswerReportPayload{
			QuestionID: report.Key.QuestionID,
			Answer:     report.Key.Answer,
			Count:      report.Count,
		})
	}
	return httptransport.AnswerReportListResponse{
		Message:    "Answer reports retrieved successfully",
		Reports:    reports,
		NextCursor: page.NextCursor,
	}, nil
}

// SubmitResponseHandler feeds a finalized response straight into the
// aggregation engine. The event consumer is the usual path; this endpoint
// backs synchronous submission.
func (h Handler) SubmitResponseHandler(
	ctx context.Context,
	key entities.RecurrenceKey,
	req httptransport.SubmitResponseRequest,
) (httptransport.MessageResponse, error) {
	answers := make([]entities.ResponseAnswer, 0, len(req.Answers))
	for _, answer := range req.Answers {
		answers = append(answers, entities.ResponseAnswer{
			QuestionID: answer.QuestionID,
			Values:     answer.Values,
		})
	}
	err := h.Aggregates.AggregateResponse(ctx, commands.AggregateResponseCommand{
		Key:        key,
		VoterEmail: req.VoterEmail,
		Answers:    answers,
	})
	if err != nil {
		return httptransport.MessageResponse{}, err
	}
	return httptransport.MessageResponse{Message: "Response recorded successfully"}, nil
}

func mapOverview(overview entities.OverviewReport) httptransport.OverviewPayload {
	questions := make([]httptransport.QuestionTallyPayload, 0, len(overview.Questions))
	for _, question := range overview.Questions {
		answers := make([]httptransport.AnswerTallyPayload, 0, len(question.Answers))
		for _, answer := range question.Answers {
			answers = append(answers, httptransport.AnswerTallyPayload{
				Answer: answer.Answer,
				Count:  answer.Count,
			})
		}
		questions = append(questions, httptransport.QuestionTallyPayload{
			QuestionID: question.QuestionID,
			TotalVotes: question.TotalVotes,
			Answers:    answers,
		})
	}
	return httptransport.OverviewPayload{
		PollID:    overview.PollID,
		Version:   overview.Version,
		StartDate: overview.Window.StartDate,
		EndDate:   overview.Window.EndDate,
		Questions: questions,
	}
}
