package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pollsmith/contexts/survey/voting-service/domain/entities"
	votingerrors "pollsmith/contexts/survey/voting-service/domain/errors"
	votinghttp "pollsmith/contexts/survey/voting-service/transport/http"
	"pollsmith/internal/shared/recurrence"
)

func (s *Server) registerVoteRoutes() {
	s.mux.HandleFunc("GET /votes/userResponses/{poll_id}/draft", s.handleGetDraft)
	s.mux.HandleFunc("PUT /votes/userResponses/{poll_id}/draft", s.handlePutDraft)
	s.mux.HandleFunc("GET /votes/userResponses/{poll_id}/draftAnswers", s.handleGetDraftAnswers)
	s.mux.HandleFunc("PUT /votes/userResponses/{poll_id}/draftAnswers", s.handlePutDraftAnswer)
	s.mux.HandleFunc("GET /votes/userResponses/{poll_id}/status", s.handleGetVotingStatus)
	s.mux.HandleFunc("PUT /votes/userResponses/{poll_id}/status", s.handlePutVotingStatus)
	s.mux.HandleFunc("POST /votes/userResponses/{poll_id}/submit", s.handleSubmitResponse)
}

// resolveResponseKey assembles the 5-tuple addressing one voter's response to
// one recurrence: poll from the path, version and window from the query,
// voter from the X-Voter-Email header. Missing pieces surface as domain
// validation errors downstream; only an unparsable version is rejected here.
func (s *Server) resolveResponseKey(w http.ResponseWriter, r *http.Request) (entities.ResponseKey, bool) {
	query := r.URL.Query()

	var version int64
	if raw := strings.TrimSpace(query.Get("version")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeVotingError(w, http.StatusBadRequest, "invalid_version", "version must be an integer")
			return entities.ResponseKey{}, false
		}
		version = parsed
	}

	return entities.ResponseKey{
		PollID:  r.PathValue("poll_id"),
		Version: version,
		Window: recurrence.Window{
			StartDate: strings.TrimSpace(query.Get("startDate")),
			EndDate:   strings.TrimSpace(query.Get("endDate")),
		},
		VoterEmail: strings.TrimSpace(r.Header.Get("X-Voter-Email")),
	}, true
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveResponseKey(w, r)
	if !ok {
		return
	}
	resp, err := s.votes.Handler.GetDraftHandler(r.Context(), key)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveResponseKey(w, r)
	if !ok {
		return
	}
	var req votinghttp.PutDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.votes.Handler.PutDraftHandler(r.Context(), key, req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDraftAnswers(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveResponseKey(w, r)
	if !ok {
		return
	}
	resp, err := s.votes.Handler.GetDraftAnswersHandler(r.Context(), key)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePutDraftAnswer(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveResponseKey(w, r)
	if !ok {
		return
	}
	var req votinghttp.PutDraftAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.votes.Handler.PutDraftAnswerHandler(r.Context(), key, req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetVotingStatus(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveResponseKey(w, r)
	if !ok {
		return
	}
	resp, err := s.votes.Handler.GetStatusHandler(r.Context(), key)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePutVotingStatus(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveResponseKey(w, r)
	if !ok {
		return
	}
	var req votinghttp.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.votes.Handler.UpdateStatusHandler(r.Context(), key, req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	key, ok := s.resolveResponseKey(w, r)
	if !ok {
		return
	}
	resp, err := s.votes.Handler.SubmitHandler(r.Context(), key)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeVotingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, votingerrors.ErrAlreadySubmitted),
		errors.Is(err, votingerrors.ErrStatusRegression):
		writeVotingError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, votingerrors.ErrPollIDRequired),
		errors.Is(err, votingerrors.ErrVersionRequired),
		errors.Is(err, votingerrors.ErrWindowRequired),
		errors.Is(err, votingerrors.ErrVoterRequired),
		errors.Is(err, votingerrors.ErrQuestionIDRequired),
		errors.Is(err, votingerrors.ErrInvalidStatus):
		writeVotingError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeVotingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVotingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
