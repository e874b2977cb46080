package votingservice

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pollsmith/contexts/survey/voting-service/application/workers"
	"pollsmith/contexts/survey/voting-service/domain/entities"
	domainerrors "pollsmith/contexts/survey/voting-service/domain/errors"
	"pollsmith/contexts/survey/voting-service/ports"
	httptransport "pollsmith/contexts/survey/voting-service/transport/http"
	"pollsmith/internal/shared/recurrence"
)

func week(start string) recurrence.Window {
	day, err := time.Parse("2006-01-02", start)
	if err != nil {
		panic(err)
	}
	return recurrence.Window{
		StartDate: start,
		EndDate:   day.AddDate(0, 0, 6).Format("2006-01-02"),
	}
}

func testKey(voter string) entities.ResponseKey {
	return entities.ResponseKey{
		PollID:     "p1",
		Version:    1,
		Window:     week("2024-01-01"),
		VoterEmail: voter,
	}
}

func TestDraftUpsertLastWriteWins(t *testing.T) {
	module := NewInMemoryModule(nil)
	key := testKey("a@example.com")

	if _, err := module.Handler.PutDraftHandler(context.Background(), key, httptransport.PutDraftRequest{
		Content: json.RawMessage(`{"q1":"A"}`),
	}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := module.Handler.PutDraftHandler(context.Background(), key, httptransport.PutDraftRequest{
		Content: json.RawMessage(`{"q1":"B"}`),
	}); err != nil {
		t.Fatalf("second put: %v", err)
	}

	resp, err := module.Handler.GetDraftHandler(context.Background(), key)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if resp.Draft == nil {
		t.Fatal("expected a draft")
	}
	if string(resp.Draft.Content) != `{"q1":"B"}` {
		t.Fatalf("expected latest payload, got %s", resp.Draft.Content)
	}
	if resp.Status != string(entities.StatusInProgress) {
		t.Fatalf("draft write should mark IN_PROGRESS, got %q", resp.Status)
	}
}

func TestAbsentDraftReadsEmptyNotError(t *testing.T) {
	module := NewInMemoryModule(nil)
	key := testKey("fresh@example.com")

	resp, err := module.Handler.GetDraftHandler(context.Background(), key)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if resp.Draft != nil {
		t.Fatal("expected no draft for a first-time voter")
	}
	if resp.Status != string(entities.StatusNotStarted) {
		t.Fatalf("expected NOT_STARTED, got %q", resp.Status)
	}

	answers, err := module.Handler.GetDraftAnswersHandler(context.Background(), key)
	if err != nil {
		t.Fatalf("get answers: %v", err)
	}
	if len(answers.Answers) != 0 {
		t.Fatalf("expected no answers, got %d", len(answers.Answers))
	}
}

func TestDraftAnswersUpsertPerQuestion(t *testing.T) {
	module := NewInMemoryModule(nil)
	key := testKey("a@example.com")

	if _, err := module.Handler.PutDraftAnswerHandler(context.Background(), key, httptransport.PutDraftAnswerRequest{
		QuestionID:      "q1",
		SelectedOptions: []string{"A"},
	}); err != nil {
		t.Fatalf("put answer: %v", err)
	}
	if _, err := module.Handler.PutDraftAnswerHandler(context.Background(), key, httptransport.PutDraftAnswerRequest{
		QuestionID:      "q1",
		SelectedOptions: []string{"B", "C"},
	}); err != nil {
		t.Fatalf("overwrite answer: %v", err)
	}
	if _, err := module.Handler.PutDraftAnswerHandler(context.Background(), key, httptransport.PutDraftAnswerRequest{
		QuestionID: "q2",
		FreeText:   "free text",
	}); err != nil {
		t.Fatalf("second question: %v", err)
	}

	resp, err := module.Handler.GetDraftAnswersHandler(context.Background(), key)
	if err != nil {
		t.Fatalf("get answers: %v", err)
	}
	if len(resp.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(resp.Answers))
	}
	if len(resp.Answers[0].SelectedOptions) != 2 {
		t.Fatalf("q1 should hold the overwritten selection, got %v", resp.Answers[0].SelectedOptions)
	}
}

func TestWindowsPartitionDrafts(t *testing.T) {
	module := NewInMemoryModule(nil)
	thisWeek := testKey("a@example.com")
	nextWeek := thisWeek
	nextWeek.Window = week("2024-01-08")

	if _, err := module.Handler.PutDraftHandler(context.Background(), thisWeek, httptransport.PutDraftRequest{
		Content: json.RawMessage(`{"week":1}`),
	}); err != nil {
		t.Fatalf("put draft: %v", err)
	}

	resp, err := module.Handler.GetDraftHandler(context.Background(), nextWeek)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if resp.Draft != nil {
		t.Fatal("draft leaked across recurrence windows")
	}
}

func TestStatusMachineForwardOnly(t *testing.T) {
	module := NewInMemoryModule(nil)
	key := testKey("a@example.com")

	if _, err := module.Handler.UpdateStatusHandler(context.Background(), key, httptransport.UpdateStatusRequest{
		Status: "IN_PROGRESS",
	}); err != nil {
		t.Fatalf("advance: %v", err)
	}
	// Repeating the current status is idempotent.
	if _, err := module.Handler.UpdateStatusHandler(context.Background(), key, httptransport.UpdateStatusRequest{
		Status: "IN_PROGRESS",
	}); err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if _, err := module.Handler.UpdateStatusHandler(context.Background(), key, httptransport.UpdateStatusRequest{
		Status: "SUBMITTED",
	}); err != nil {
		t.Fatalf("submit status: %v", err)
	}

	_, err := module.Handler.UpdateStatusHandler(context.Background(), key, httptransport.UpdateStatusRequest{
		Status: "NOT_STARTED",
	})
	if !errors.Is(err, domainerrors.ErrStatusRegression) {
		t.Fatalf("expected ErrStatusRegression, got %v", err)
	}

	_, err = module.Handler.UpdateStatusHandler(context.Background(), key, httptransport.UpdateStatusRequest{
		Status: "DONE",
	})
	if !errors.Is(err, domainerrors.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestWritesRejectedAfterSubmission(t *testing.T) {
	module := NewInMemoryModule(nil)
	key := testKey("a@example.com")

	if _, err := module.Handler.PutDraftAnswerHandler(context.Background(), key, httptransport.PutDraftAnswerRequest{
		QuestionID:      "q1",
		SelectedOptions: []string{"A"},
	}); err != nil {
		t.Fatalf("put answer: %v", err)
	}
	if _, err := module.Handler.SubmitHandler(context.Background(), key); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err := module.Handler.PutDraftHandler(context.Background(), key, httptransport.PutDraftRequest{
		Content: json.RawMessage(`{}`),
	})
	if !errors.Is(err, domainerrors.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted for draft write, got %v", err)
	}
	_, err = module.Handler.PutDraftAnswerHandler(context.Background(), key, httptransport.PutDraftAnswerRequest{
		QuestionID:      "q1",
		SelectedOptions: []string{"B"},
	})
	if !errors.Is(err, domainerrors.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted for answer write, got %v", err)
	}
	_, err = module.Handler.SubmitHandler(context.Background(), key)
	if !errors.Is(err, domainerrors.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted for resubmit, got %v", err)
	}

	// The fresh window next week is unaffected.
	nextWeek := key
	nextWeek.Window = week("2024-01-08")
	if _, err := module.Handler.PutDraftHandler(context.Background(), nextWeek, httptransport.PutDraftRequest{
		Content: json.RawMessage(`{}`),
	}); err != nil {
		t.Fatalf("next window draft: %v", err)
	}
}

func TestSubmitAppendsOutboxEvent(t *testing.T) {
	module := NewInMemoryModule(nil)
	key := testKey("a@example.com")

	if _, err := module.Handler.PutDraftAnswerHandler(context.Background(), key, httptransport.PutDraftAnswerRequest{
		QuestionID:      "q1",
		SelectedOptions: []string{"A", "B"},
	}); err != nil {
		t.Fatalf("put answer: %v", err)
	}
	if _, err := module.Handler.PutDraftAnswerHandler(context.Background(), key, httptransport.PutDraftAnswerRequest{
		QuestionID: "q2",
		FreeText:   "fine",
	}); err != nil {
		t.Fatalf("put answer: %v", err)
	}

	result, err := module.Handler.SubmitHandler(context.Background(), key)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.ResponseID == "" {
		t.Fatal("expected a response id")
	}
	if result.AnswerCount != 2 {
		t.Fatalf("expected 2 answers in response, got %d", result.AnswerCount)
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 outbox row, got %d", len(pending))
	}
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(pending[0].Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.EventType != "response.submitted" {
		t.Fatalf("unexpected event type %q", envelope.EventType)
	}
	var data struct {
		PollID     string `json:"poll_id"`
		VoterEmail string `json:"voter_email"`
		Answers    []struct {
			QuestionID string   `json:"question_id"`
			Values     []string `json:"values"`
		} `json:"answers"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.PollID != "p1" || data.VoterEmail != "a@example.com" {
		t.Fatalf("unexpected payload identity: %+v", data)
	}
	if len(data.Answers) != 2 || len(data.Answers[0].Values) != 2 {
		t.Fatalf("unexpected answers payload: %+v", data.Answers)
	}
}

type capturingPublisher struct {
	published []ports.EventEnvelope
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event ports.EventEnvelope) error {
	p.published = append(p.published, event)
	return nil
}

func TestOutboxRelayPublishesAndMarks(t *testing.T) {
	module := NewInMemoryModule(nil)
	key := testKey("a@example.com")

	if _, err := module.Handler.PutDraftAnswerHandler(context.Background(), key, httptransport.PutDraftAnswerRequest{
		QuestionID:      "q1",
		SelectedOptions: []string{"A"},
	}); err != nil {
		t.Fatalf("put answer: %v", err)
	}
	if _, err := module.Handler.SubmitHandler(context.Background(), key); err != nil {
		t.Fatalf("submit: %v", err)
	}

	publisher := &capturingPublisher{}
	relay := workers.OutboxRelay{
		Outbox:    module.Store,
		Publisher: publisher,
		Clock:     module.Store,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.published))
	}

	// A second cycle finds nothing pending.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second relay: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("relay republished an already published row")
	}
}

func TestKeyValidation(t *testing.T) {
	module := NewInMemoryModule(nil)

	cases := []struct {
		name string
		key  entities.ResponseKey
		want error
	}{
		{"missing poll", entities.ResponseKey{Version: 1, Window: week("2024-01-01"), VoterEmail: "a@b"}, domainerrors.ErrPollIDRequired},
		{"missing version", entities.ResponseKey{PollID: "p1", Window: week("2024-01-01"), VoterEmail: "a@b"}, domainerrors.ErrVersionRequired},
		{"missing window", entities.ResponseKey{PollID: "p1", Version: 1, VoterEmail: "a@b"}, domainerrors.ErrWindowRequired},
		{"missing voter", entities.ResponseKey{PollID: "p1", Version: 1, Window: week("2024-01-01")}, domainerrors.ErrVoterRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := module.Handler.GetDraftHandler(context.Background(), tc.key)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
