package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pollsmith/contexts/survey/report-service/domain/entities"
	reporterrors "pollsmith/contexts/survey/report-service/domain/errors"
	reporthttp "pollsmith/contexts/survey/report-service/transport/http"
	votingerrors "pollsmith/contexts/survey/voting-service/domain/errors"
	"pollsmith/internal/shared/recurrence"
)

func (s *Server) registerReportRoutes() {
	s.mux.HandleFunc("GET /overview/{poll_id}/versions/{version}/recurrences", s.handleListOverviews)
	s.mux.HandleFunc("GET /overview/{poll_id}/versions/{version}/recurrences/{recurrence}", s.handleGetOverview)
	s.mux.HandleFunc("PATCH /overview/{poll_id}/versions/{version}/recurrences/{recurrence}", s.handlePatchRecurrenceStatus)
	s.mux.HandleFunc("GET /detail/{poll_id}/versions/{version}/recurrences/{recurrence}", s.handleGetDetail)
	s.mux.HandleFunc("POST /detail/{poll_id}/versions/{version}/recurrences/{recurrence}", s.handleCreateResponse)
}

// resolveRecurrenceKey assembles the (poll, version, window) triple from the
// path. The window segment is the "start_end" recurrence key.
func (s *Server) resolveRecurrenceKey(w http.ResponseWriter, r *http.Request) (entities.RecurrenceKey, bool) {
	version, err := strconv.ParseInt(r.PathValue("version"), 10, 64)
	if err != nil {
		writeReportError(w, http.StatusBadRequest, "invalid_version", "version must be an integer")
		return entities.RecurrenceKey{}, false
	}
	window, err := recurrence.ParseKey(r.PathValue("recurrence"))
	if err != nil {
		writeReportError(w, http.StatusBadRequest, "invalid_recurrence", reporterrors.ErrRecurrenceRequired.Error())
		return entities.RecurrenceKey{}, false
	}
	return entities.RecurrenceKey{
		PollID:  r.PathValue("poll_id"),
		Version: version,
		Window:  window,
	}, true
}

func (s *Server) handleListOverviews(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.ParseInt(r.PathValue("version"), 10, 64)
	if err != nil {
		writeReportError(w, http.StatusBadRequest, "invalid_version", "version must be an integer")
		return
	}
	resp, err := s.reports.Handler.OverviewsForVersionHandler(r.Context(), r.PathValue("poll_id"), version)
	if err != nil {
		writeReportDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOverview(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveRecurrenceKey(w, r)
	if !ok {
		return
	}
	resp, err := s.reports.Handler.OverviewHandler(r.Context(), key)
	if err != nil {
		writeReportDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePatchRecurrenceStatus(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveRecurrenceKey(w, r)
	if !ok {
		return
	}
	var req reporthttp.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReportError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.VoterEmail) == "" {
		req.VoterEmail = strings.TrimSpace(r.Header.Get("X-Voter-Email"))
	}
	resp, err := s.reports.Handler.UpdateStatusHandler(r.Context(), key, req)
	if err != nil {
		writeReportDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetDetail serves three views of one recurrence: the full detail
// report, the voters of a single answer (?questionId=&answer=), and the
// paged raw counters (?cursor=&limit=).
func (s *Server) handleGetDetail(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveRecurrenceKey(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()

	questionID := strings.TrimSpace(query.Get("questionId"))
	answer := strings.TrimSpace(query.Get("answer"))
	if questionID != "" || answer != "" {
		resp, err := s.reports.Handler.VotersOfAnswerHandler(r.Context(), key, questionID, answer)
		if err != nil {
			writeReportDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if query.Get("cursor") != "" || query.Get("limit") != "" {
		limit := 0
		if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeReportError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
				return
			}
			limit = parsed
		}
		resp, err := s.reports.Handler.AnswerReportsHandler(r.Context(), key, query.Get("cursor"), limit)
		if err != nil {
			writeReportDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp, err := s.reports.Handler.DetailHandler(r.Context(), key)
	if err != nil {
		writeReportDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateResponse(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveRecurrenceKey(w, r)
	if !ok {
		return
	}
	var req reporthttp.SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReportError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.VoterEmail) == "" {
		req.VoterEmail = strings.TrimSpace(r.Header.Get("X-Voter-Email"))
	}
	resp, err := s.reports.Handler.SubmitResponseHandler(r.Context(), key, req)
	if err != nil {
		writeReportDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func writeReportDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reporterrors.ErrAnswerReportNotFound),
		errors.Is(err, reporterrors.ErrOverviewNotFound):
		writeReportError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, reporterrors.ErrPollIDRequired),
		errors.Is(err, reporterrors.ErrVersionRequired),
		errors.Is(err, reporterrors.ErrRecurrenceRequired),
		errors.Is(err, reporterrors.ErrQuestionIDRequired),
		errors.Is(err, reporterrors.ErrAnswerRequired),
		errors.Is(err, reporterrors.ErrVoterRequired),
		errors.Is(err, reporterrors.ErrInvalidStatus):
		writeReportError(w, http.StatusBadRequest, "invalid_request", err.Error())
	// Status patches delegate to the voting state machine, whose own
	// verdicts surface here.
	case errors.Is(err, votingerrors.ErrStatusRegression),
		errors.Is(err, votingerrors.ErrAlreadySubmitted):
		writeReportError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, votingerrors.ErrInvalidStatus):
		writeReportError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeReportError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeReportError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, reporthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
