package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pollservice "pollsmith/contexts/survey/poll-service"
	releaseservice "pollsmith/contexts/survey/release-service"
	releaseentities "pollsmith/contexts/survey/release-service/domain/entities"
	reportservice "pollsmith/contexts/survey/report-service"
	votingservice "pollsmith/contexts/survey/voting-service"
	votingcommands "pollsmith/contexts/survey/voting-service/application/commands"
	votingentities "pollsmith/contexts/survey/voting-service/domain/entities"
	"pollsmith/internal/shared/recurrence"
)

// draftStatusWriter mirrors the composition root's adapter from the report
// surface onto the voting state machine.
type draftStatusWriter struct {
	drafts votingcommands.DraftUseCase
}

func (w draftStatusWriter) UpdateVoterStatus(
	ctx context.Context,
	pollID string,
	version int64,
	window recurrence.Window,
	voterEmail string,
	status string,
) error {
	_, err := w.drafts.UpdateStatus(ctx, votingcommands.UpdateStatusCommand{
		Key: votingentities.ResponseKey{
			PollID:     pollID,
			Version:    version,
			Window:     window,
			VoterEmail: voterEmail,
		},
		Status: status,
	})
	return err
}

type testServer struct {
	*Server
	releases releaseservice.Module
}

func newTestServer() testServer {
	polls := pollservice.NewInMemoryModule(nil, nil)
	releases := releaseservice.NewInMemoryModule(nil)
	votes := votingservice.NewInMemoryModule(nil)
	reports := reportservice.NewInMemoryModule(draftStatusWriter{drafts: votes.Drafts}, nil)
	return testServer{
		Server:   New(polls, releases, votes, reports, nil, ""),
		releases: releases,
	}
}

func TestHealthz(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreatePollRequiresUserEmail(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"title":"Lunch poll"}`)
	req := httptest.NewRequest(http.MethodPost, "/polls", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreatePollRejectsBlankTitle(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"title":"   "}`)
	req := httptest.NewRequest(http.MethodPost, "/polls", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Email", "owner@example.com")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}

	var errResp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errResp.Message != "Title cannot be blanked" {
		t.Fatalf("message = %q", errResp.Message)
	}
}

func TestCreatePollRejectsUnknownQuestionType(t *testing.T) {
	server := newTestServer()

	// Only MULTIPLE, CHECKBOX, and TEXT_BOX are valid question types.
	body := []byte(`{"title":"Lunch poll","recurrence":"WEEKLY","questions":[{"type":"SINGLE_CHOICE","content":"Pick one","options":["pizza","salad"]}]}`)
	req := httptest.NewRequest(http.MethodPost, "/polls", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Email", "owner@example.com")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPollLifecycleOverHTTP(t *testing.T) {
	server := newTestServer()

	body := []byte(`{"title":"Lunch poll","recurrence":"WEEKLY","questions":[{"type":"MULTIPLE","content":"Pick one","required":true,"options":["pizza","salad"]}]}`)
	req := httptest.NewRequest(http.MethodPost, "/polls", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Email", "owner@example.com")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	var created struct {
		Poll struct {
			PollID string `json:"poll_id"`
		} `json:"poll"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create body: %v", err)
	}
	if created.Poll.PollID == "" {
		t.Fatalf("missing poll_id in %s", rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/polls/"+created.Poll.PollID, nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/polls/missing-poll", nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVersionRoutes(t *testing.T) {
	server := newTestServer()
	server.releases.Store.SeedPoll(releaseentities.PollInfo{
		PollID:     "poll-1",
		Status:     "NOT STARTED",
		Recurrence: recurrence.TypeWeekly,
		Questions: []releaseentities.Question{
			{QuestionID: "q-1", Type: "MULTIPLE", Content: "Pick one", Required: true, Options: []string{"a", "b"}, Position: 1},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/polls/poll-1/versions", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/polls/poll-1/versions/latest", nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/polls/poll-1/versions/1/questions", nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/polls/poll-1/versions/not-a-number/questions", nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/polls/poll-2/versions/latest", nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func voteURL(path string) string {
	return "/votes/userResponses/poll-1/" + path + "?version=1&startDate=2024-03-04&endDate=2024-03-10"
}

func TestDraftRoutesPartitionByVoter(t *testing.T) {
	server := newTestServer()

	body := []byte(`{"content":{"q-1":"pizza"}}`)
	req := httptest.NewRequest(http.MethodPut, voteURL("draft"), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Voter-Email", "ada@example.com")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	// Same recurrence, different voter: no draft.
	req = httptest.NewRequest(http.MethodGet, voteURL("draft"), nil)
	req.Header.Set("X-Voter-Email", "grace@example.com")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var draftResp struct {
		Draft  *json.RawMessage `json:"draft"`
		Status string           `json:"status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &draftResp); err != nil {
		t.Fatalf("decode draft body: %v", err)
	}
	if draftResp.Draft != nil {
		t.Fatalf("expected no draft for other voter, got %s", rr.Body.String())
	}
	if draftResp.Status != "NOT_STARTED" {
		t.Fatalf("status = %q, want NOT_STARTED", draftResp.Status)
	}
}

func TestDraftRouteRequiresVoterEmail(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, voteURL("draft"), nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSubmitThenWriteConflicts(t *testing.T) {
	server := newTestServer()

	body := []byte(`{"question_id":"q-1","selected_options":["pizza"]}`)
	req := httptest.NewRequest(http.MethodPut, voteURL("draftAnswers"), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Voter-Email", "ada@example.com")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, voteURL("submit"), nil)
	req.Header.Set("X-Voter-Email", "ada@example.com")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPut, voteURL("draftAnswers"), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Voter-Email", "ada@example.com")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestReportRoutes(t *testing.T) {
	server := newTestServer()

	submit := func(voter string, answer string) {
		t.Helper()
		body := []byte(`{"voter_email":"` + voter + `","answers":[{"question_id":"q-color","values":["` + answer + `"]}]}`)
		req := httptest.NewRequest(http.MethodPost, "/detail/poll-1/versions/1/recurrences/2024-03-04_2024-03-10", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		server.mux.ServeHTTP(rr, req)
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
		}
	}
	submit("ada@example.com", "blue")
	submit("grace@example.com", "blue")
	submit("mary@example.com", "red")

	req := httptest.NewRequest(http.MethodGet, "/overview/poll-1/versions/1/recurrences/2024-03-04_2024-03-10", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var overview struct {
		Overview struct {
			Questions []struct {
				TotalVotes int64 `json:"total_votes"`
			} `json:"questions"`
		} `json:"overview"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &overview); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if len(overview.Overview.Questions) != 1 || overview.Overview.Questions[0].TotalVotes != 3 {
		t.Fatalf("unexpected overview %s", rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/detail/poll-1/versions/1/recurrences/2024-03-04_2024-03-10?questionId=q-color&answer=blue", nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var voterList struct {
		Voters []string `json:"voters"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &voterList); err != nil {
		t.Fatalf("decode voters: %v", err)
	}
	if len(voterList.Voters) != 2 {
		t.Fatalf("voters = %v, want 2", voterList.Voters)
	}

	req = httptest.NewRequest(http.MethodGet, "/detail/poll-1/versions/1/recurrences/2024-03-04_2024-03-10?limit=1", nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var page struct {
		Reports    []json.RawMessage `json:"reports"`
		NextCursor string            `json:"next_cursor"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Reports) != 1 || page.NextCursor == "" {
		t.Fatalf("unexpected page %s", rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/overview/poll-1/versions/1/recurrences/2024-05-06_2024-05-12", nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/overview/poll-1/versions/1/recurrences/not-a-window", nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPatchRecurrenceStatusDelegatesToVoting(t *testing.T) {
	server := newTestServer()

	body := []byte(`{"status":"IN_PROGRESS"}`)
	req := httptest.NewRequest(http.MethodPatch, "/overview/poll-1/versions/1/recurrences/2024-03-04_2024-03-10", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Voter-Email", "ada@example.com")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	// Regressing the status surfaces the voting machine's conflict.
	body = []byte(`{"status":"SUBMITTED"}`)
	req = httptest.NewRequest(http.MethodPatch, "/overview/poll-1/versions/1/recurrences/2024-03-04_2024-03-10", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Voter-Email", "ada@example.com")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	body = []byte(`{"status":"IN_PROGRESS"}`)
	req = httptest.NewRequest(http.MethodPatch, "/overview/poll-1/versions/1/recurrences/2024-03-04_2024-03-10", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Voter-Email", "ada@example.com")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
}
