package reportservice

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pollsmith/contexts/survey/report-service/application/commands"
	"pollsmith/contexts/survey/report-service/application/workers"
	"pollsmith/contexts/survey/report-service/domain/entities"
	domainerrors "pollsmith/contexts/survey/report-service/domain/errors"
	"pollsmith/contexts/survey/report-service/ports"
	"pollsmith/internal/shared/events"
	"pollsmith/internal/shared/recurrence"
)

type statusCall struct {
	pollID     string
	version    int64
	window     recurrence.Window
	voterEmail string
	status     string
}

type recordingStatusWriter struct {
	calls []statusCall
}

func (w *recordingStatusWriter) UpdateVoterStatus(
	_ context.Context,
	pollID string,
	version int64,
	window recurrence.Window,
	voterEmail string,
	status string,
) error {
	w.calls = append(w.calls, statusCall{
		pollID:     pollID,
		version:    version,
		window:     window,
		voterEmail: voterEmail,
		status:     status,
	})
	return nil
}

func newTestModule(t *testing.T) (Module, *recordingStatusWriter) {
	t.Helper()
	status := &recordingStatusWriter{}
	return NewInMemoryModule(status, nil), status
}

func marchWeek() recurrence.Window {
	return recurrence.Window{StartDate: "2024-03-04", EndDate: "2024-03-10"}
}

func marchKey() entities.RecurrenceKey {
	return entities.RecurrenceKey{PollID: "poll-1", Version: 2, Window: marchWeek()}
}

func aggregate(t *testing.T, module Module, voter string, answers ...entities.ResponseAnswer) {
	t.Helper()
	err := module.Aggregates.AggregateResponse(context.Background(), commands.AggregateResponseCommand{
		Key:        marchKey(),
		VoterEmail: voter,
		Answers:    answers,
	})
	if err != nil {
		t.Fatalf("AggregateResponse(%s): %v", voter, err)
	}
}

func choice(questionID string, values ...string) entities.ResponseAnswer {
	return entities.ResponseAnswer{QuestionID: questionID, Values: values}
}

func TestAggregationCountsAndAttributesVoters(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	aggregate(t, module, "ada@example.com", choice("q-color", "blue"))
	aggregate(t, module, "grace@example.com", choice("q-color", "blue"))
	aggregate(t, module, "mary@example.com", choice("q-color", "blue"))

	key := entities.AnswerKey{RecurrenceKey: marchKey(), QuestionID: "q-color", Answer: "blue"}
	report, err := module.Handler.Queries.AnswerReport(ctx, key)
	if err != nil {
		t.Fatalf("AnswerReport: %v", err)
	}
	if report.Count != 3 {
		t.Fatalf("count = %d, want 3", report.Count)
	}

	voters, err := module.Handler.Queries.VotersOfAnswer(ctx, key)
	if err != nil {
		t.Fatalf("VotersOfAnswer: %v", err)
	}
	want := []string{"ada@example.com", "grace@example.com", "mary@example.com"}
	if len(voters) != len(want) {
		t.Fatalf("voters = %v, want %v", voters, want)
	}
	for i := range want {
		if voters[i] != want[i] {
			t.Fatalf("voters[%d] = %q, want %q", i, voters[i], want[i])
		}
	}
}

func TestSeparatorInAnswerTextDoesNotCollideKeys(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	// Free-text answers and emails may contain the key separator. These two
	// pairs would produce identical joined keys without segment escaping.
	aggregate(t, module, "v2@example.com", choice("q-open", "A#v1"))
	aggregate(t, module, "v1#v2@example.com", choice("q-open", "A"))

	for _, tc := range []struct {
		answer string
		voter  string
	}{
		{"A#v1", "v2@example.com"},
		{"A", "v1#v2@example.com"},
	} {
		key := entities.AnswerKey{RecurrenceKey: marchKey(), QuestionID: "q-open", Answer: tc.answer}
		report, err := module.Handler.Queries.AnswerReport(ctx, key)
		if err != nil {
			t.Fatalf("AnswerReport(%s): %v", tc.answer, err)
		}
		if report.Count != 1 {
			t.Fatalf("count for %q = %d, want 1", tc.answer, report.Count)
		}
		voters, err := module.Handler.Queries.VotersOfAnswer(ctx, key)
		if err != nil {
			t.Fatalf("VotersOfAnswer(%s): %v", tc.answer, err)
		}
		if len(voters) != 1 || voters[0] != tc.voter {
			t.Fatalf("voters of %q = %v, want [%s]", tc.answer, voters, tc.voter)
		}
	}
}

func TestAggregationReplayDoesNotDoubleCount(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	response := []entities.ResponseAnswer{
		choice("q-color", "blue"),
		choice("q-toppings", "olives", "onions"),
	}
	aggregate(t, module, "ada@example.com", response...)
	aggregate(t, module, "ada@example.com", response...)

	for _, tc := range []struct {
		questionID string
		answer     string
	}{
		{"q-color", "blue"},
		{"q-toppings", "olives"},
		{"q-toppings", "onions"},
	} {
		key := entities.AnswerKey{RecurrenceKey: marchKey(), QuestionID: tc.questionID, Answer: tc.answer}
		report, err := module.Handler.Queries.AnswerReport(ctx, key)
		if err != nil {
			t.Fatalf("AnswerReport(%s/%s): %v", tc.questionID, tc.answer, err)
		}
		if report.Count != 1 {
			t.Fatalf("count(%s/%s) = %d after replay, want 1", tc.questionID, tc.answer, report.Count)
		}
	}
}

func TestSingleChoiceCountsMatchVoterRows(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	aggregate(t, module, "ada@example.com", choice("q-color", "blue"))
	aggregate(t, module, "grace@example.com", choice("q-color", "red"))
	aggregate(t, module, "mary@example.com", choice("q-color", "blue"))

	overview, err := module.Handler.Queries.OverviewForRecurrence(ctx, marchKey())
	if err != nil {
		t.Fatalf("OverviewForRecurrence: %v", err)
	}
	if len(overview.Questions) != 1 {
		t.Fatalf("questions = %d, want 1", len(overview.Questions))
	}
	if got := overview.Questions[0].TotalVotes; got != 3 {
		t.Fatalf("total votes = %d, want 3", got)
	}

	rows, err := module.Store.ListVoterReportsForRecurrence(ctx, marchKey())
	if err != nil {
		t.Fatalf("ListVoterReportsForRecurrence: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("voter rows = %d, want 3", len(rows))
	}
}

func TestOverviewRequiresFullRecurrenceTriple(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	cases := []struct {
		name string
		key  entities.RecurrenceKey
		want error
	}{
		{
			name: "missing poll id",
			key:  entities.RecurrenceKey{Version: 1, Window: marchWeek()},
			want: domainerrors.ErrPollIDRequired,
		},
		{
			name: "missing version",
			key:  entities.RecurrenceKey{PollID: "poll-1", Window: marchWeek()},
			want: domainerrors.ErrVersionRequired,
		},
		{
			name: "missing window",
			key:  entities.RecurrenceKey{PollID: "poll-1", Version: 1},
			want: domainerrors.ErrRecurrenceRequired,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := module.Handler.Queries.OverviewForRecurrence(ctx, tc.key)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	if got := domainerrors.ErrVersionRequired.Error(); got != "Poll Version is required" {
		t.Fatalf("version error message = %q", got)
	}
}

func TestOverviewAbsenceSemantics(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	// A fully addressed recurrence with no data is NotFound.
	_, err := module.Handler.Queries.OverviewForRecurrence(ctx, marchKey())
	if !errors.Is(err, domainerrors.ErrOverviewNotFound) {
		t.Fatalf("err = %v, want %v", err, domainerrors.ErrOverviewNotFound)
	}

	// The poll-wide listing is empty, not an error.
	resp, err := module.Handler.OverviewsForVersionHandler(ctx, "poll-1", 0)
	if err != nil {
		t.Fatalf("OverviewsForVersionHandler: %v", err)
	}
	if len(resp.OverviewReports) != 0 {
		t.Fatalf("overviewReports = %v, want empty", resp.OverviewReports)
	}
}

func TestAnswerReportPaginationRoundTrips(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	voters := []string{"ada@example.com", "grace@example.com", "mary@example.com"}
	answers := []string{"blue", "green", "red", "teal", "violet"}
	for i, answer := range answers {
		aggregate(t, module, voters[i%len(voters)], choice("q-color", answer))
	}

	seen := make(map[string]bool)
	cursor := ""
	pages := 0
	for {
		page, err := module.Handler.Queries.AnswerReportsForRecurrence(ctx, marchKey(), cursor, 2)
		if err != nil {
			t.Fatalf("AnswerReportsForRecurrence: %v", err)
		}
		pages++
		for _, report := range page.Items {
			if seen[report.Key.Answer] {
				t.Fatalf("answer %q returned twice", report.Key.Answer)
			}
			seen[report.Key.Answer] = true
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	if len(seen) != len(answers) {
		t.Fatalf("paged answers = %d, want %d", len(seen), len(answers))
	}
	if pages < 3 {
		t.Fatalf("pages = %d, want at least 3 with limit 2", pages)
	}
}

func TestDetailReportAttributesVotersPerAnswer(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	aggregate(t, module, "ada@example.com", choice("q-color", "blue"))
	aggregate(t, module, "grace@example.com", choice("q-color", "red"))
	aggregate(t, module, "mary@example.com", choice("q-color", "blue"))

	resp, err := module.Handler.DetailHandler(ctx, marchKey())
	if err != nil {
		t.Fatalf("DetailHandler: %v", err)
	}
	if len(resp.Questions) != 1 {
		t.Fatalf("questions = %d, want 1", len(resp.Questions))
	}
	byAnswer := make(map[string][]string)
	for _, answer := range resp.Questions[0].Answers {
		byAnswer[answer.Answer] = answer.Voters
	}
	if got := byAnswer["blue"]; len(got) != 2 || got[0] != "ada@example.com" || got[1] != "mary@example.com" {
		t.Fatalf("blue voters = %v", got)
	}
	if got := byAnswer["red"]; len(got) != 1 || got[0] != "grace@example.com" {
		t.Fatalf("red voters = %v", got)
	}
}

func TestVotersOfUnchosenAnswerIsEmpty(t *testing.T) {
	module, _ := newTestModule(t)

	aggregate(t, module, "ada@example.com", choice("q-color", "blue"))

	resp, err := module.Handler.VotersOfAnswerHandler(context.Background(), marchKey(), "q-color", "chartreuse")
	if err != nil {
		t.Fatalf("VotersOfAnswerHandler: %v", err)
	}
	if len(resp.Voters) != 0 {
		t.Fatalf("voters = %v, want empty", resp.Voters)
	}
}

func TestWindowsAggregateIndependently(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	nextWeek := entities.RecurrenceKey{
		PollID:  "poll-1",
		Version: 2,
		Window:  recurrence.Window{StartDate: "2024-03-11", EndDate: "2024-03-17"},
	}
	aggregate(t, module, "ada@example.com", choice("q-color", "blue"))
	if err := module.Aggregates.AggregateResponse(ctx, commands.AggregateResponseCommand{
		Key:        nextWeek,
		VoterEmail: "ada@example.com",
		Answers:    []entities.ResponseAnswer{choice("q-color", "blue")},
	}); err != nil {
		t.Fatalf("AggregateResponse(next week): %v", err)
	}

	for _, key := range []entities.RecurrenceKey{marchKey(), nextWeek} {
		report, err := module.Handler.Queries.AnswerReport(ctx, entities.AnswerKey{
			RecurrenceKey: key,
			QuestionID:    "q-color",
			Answer:        "blue",
		})
		if err != nil {
			t.Fatalf("AnswerReport(%s): %v", key.Window.Key(), err)
		}
		if report.Count != 1 {
			t.Fatalf("count(%s) = %d, want 1", key.Window.Key(), report.Count)
		}
	}
}

func TestUpdateStatusDelegatesToVotingStateMachine(t *testing.T) {
	module, status := newTestModule(t)
	ctx := context.Background()

	err := module.Aggregates.UpdateStatusForRecurrence(ctx, commands.UpdateStatusForRecurrenceCommand{
		Key:        marchKey(),
		VoterEmail: "ada@example.com",
		Status:     "SUBMITTED",
	})
	if err != nil {
		t.Fatalf("UpdateStatusForRecurrence: %v", err)
	}
	if len(status.calls) != 1 {
		t.Fatalf("status calls = %d, want 1", len(status.calls))
	}
	call := status.calls[0]
	if call.pollID != "poll-1" || call.version != 2 || call.voterEmail != "ada@example.com" || call.status != "SUBMITTED" {
		t.Fatalf("unexpected delegation: %+v", call)
	}

	err = module.Aggregates.UpdateStatusForRecurrence(ctx, commands.UpdateStatusForRecurrenceCommand{
		Key:        marchKey(),
		VoterEmail: "ada@example.com",
	})
	if !errors.Is(err, domainerrors.ErrInvalidStatus) {
		t.Fatalf("err = %v, want %v", err, domainerrors.ErrInvalidStatus)
	}
}

func TestPutAnswerReportsBackfillsCounters(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	key := entities.AnswerKey{RecurrenceKey: marchKey(), QuestionID: "q-color", Answer: "blue"}
	err := module.Aggregates.PutAnswerReports(ctx, []entities.AnswerReport{{Key: key, Count: 42}})
	if err != nil {
		t.Fatalf("PutAnswerReports: %v", err)
	}

	report, err := module.Handler.Queries.AnswerReport(ctx, key)
	if err != nil {
		t.Fatalf("AnswerReport: %v", err)
	}
	if report.Count != 42 {
		t.Fatalf("count = %d, want 42", report.Count)
	}
}

func TestCreateVoterReportsSkipsExistingRows(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	key := entities.AnswerKey{RecurrenceKey: marchKey(), QuestionID: "q-color", Answer: "blue"}
	batch := []entities.VoterReport{
		{Key: key, VoterEmail: "ada@example.com"},
		{Key: key, VoterEmail: "grace@example.com"},
	}
	if err := module.Aggregates.CreateVoterReportsForRecurrence(ctx, batch); err != nil {
		t.Fatalf("CreateVoterReportsForRecurrence: %v", err)
	}
	if err := module.Aggregates.CreateVoterReportsForRecurrence(ctx, batch); err != nil {
		t.Fatalf("CreateVoterReportsForRecurrence replay: %v", err)
	}

	voters, err := module.Handler.Queries.VotersOfAnswer(ctx, key)
	if err != nil {
		t.Fatalf("VotersOfAnswer: %v", err)
	}
	if len(voters) != 2 {
		t.Fatalf("voters = %v, want 2 entries", voters)
	}
}

type capturedSubscription struct {
	topic   string
	group   string
	handler func(context.Context, ports.EventEnvelope) error
}

type stubSubscriber struct {
	subscription capturedSubscription
}

func (s *stubSubscriber) Subscribe(
	_ context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	s.subscription = capturedSubscription{topic: topic, group: consumerGroup, handler: handler}
	return nil
}

func TestResponseConsumerAggregatesAndDedupsRedelivery(t *testing.T) {
	module, _ := newTestModule(t)
	ctx := context.Background()

	subscriber := &stubSubscriber{}
	consumer := workers.ResponseConsumer{
		Subscriber: subscriber,
		Dedup:      module.Store,
		Aggregator: module.Aggregates,
		Clock:      module.Store,
	}
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if subscriber.subscription.topic != "response.submitted" {
		t.Fatalf("topic = %q", subscriber.subscription.topic)
	}

	data, err := json.Marshal(map[string]any{
		"response_id": "resp-1",
		"poll_id":     "poll-1",
		"version":     2,
		"start_date":  "2024-03-04",
		"end_date":    "2024-03-10",
		"voter_email": "ada@example.com",
		"answers": []map[string]any{
			{"question_id": "q-color", "values": []string{"blue"}},
		},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := events.Envelope{
		EventID:   "evt-1",
		EventType: "response.submitted",
		Data:      data,
	}

	if err := subscriber.subscription.handler(ctx, envelope); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if err := subscriber.subscription.handler(ctx, envelope); err != nil {
		t.Fatalf("handler redelivery: %v", err)
	}

	report, err := module.Handler.Queries.AnswerReport(ctx, entities.AnswerKey{
		RecurrenceKey: marchKey(),
		QuestionID:    "q-color",
		Answer:        "blue",
	})
	if err != nil {
		t.Fatalf("AnswerReport: %v", err)
	}
	if report.Count != 1 {
		t.Fatalf("count = %d after redelivery, want 1", report.Count)
	}
}
