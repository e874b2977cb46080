package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	pollerrors "pollsmith/contexts/survey/poll-service/domain/errors"
	pollhttp "pollsmith/contexts/survey/poll-service/transport/http"
)

func (s *Server) registerPollRoutes() {
	s.mux.HandleFunc("POST /polls", s.handleCreatePoll)
	s.mux.HandleFunc("GET /polls", s.handleListPolls)
	s.mux.HandleFunc("GET /polls/{poll_id}", s.handleGetPoll)
	s.mux.HandleFunc("PUT /polls/{poll_id}", s.handleEditPoll)
	s.mux.HandleFunc("DELETE /polls/{poll_id}", s.handleDeletePoll)
	s.mux.HandleFunc("POST /polls/{poll_id}/close", s.handleClosePoll)

	s.mux.HandleFunc("POST /polls/{poll_id}/questions", s.handleAddQuestion)
	s.mux.HandleFunc("GET /polls/{poll_id}/questions", s.handleGetQuestions)
	s.mux.HandleFunc("PUT /polls/{poll_id}/questions/{question_id}", s.handleEditQuestion)
	s.mux.HandleFunc("DELETE /polls/{poll_id}/questions/{question_id}", s.handleDeleteQuestion)
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	creatorEmail := strings.TrimSpace(r.Header.Get("X-User-Email"))
	if creatorEmail == "" {
		writePollError(w, http.StatusUnauthorized, "missing_user", "X-User-Email header is required")
		return
	}

	var req pollhttp.CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.CreatePollHandler(r.Context(), creatorEmail, req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListPolls(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.ListPollsHandler(r.Context())
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.GetPollHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEditPoll(w http.ResponseWriter, r *http.Request) {
	var req pollhttp.EditPollInformationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.EditPollInformationHandler(r.Context(), r.PathValue("poll_id"), req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeletePoll(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.DeletePollHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClosePoll(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.ClosePollHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	var req pollhttp.AddQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.AddQuestionHandler(r.Context(), r.PathValue("poll_id"), req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetQuestions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.GetQuestionsHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEditQuestion(w http.ResponseWriter, r *http.Request) {
	var req pollhttp.EditQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.EditQuestionHandler(
		r.Context(),
		r.PathValue("poll_id"),
		r.PathValue("question_id"),
		req,
	)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.DeleteQuestionHandler(
		r.Context(),
		r.PathValue("poll_id"),
		r.PathValue("question_id"),
	)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writePollDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pollerrors.ErrPollNotFound):
		writePollError(w, http.StatusNotFound, "poll_not_found", err.Error())
	case errors.Is(err, pollerrors.ErrQuestionNotFound):
		writePollError(w, http.StatusNotFound, "question_not_found", err.Error())
	case errors.Is(err, pollerrors.ErrQuestionSetReleased):
		writePollError(w, http.StatusConflict, "question_set_released", err.Error())
	case errors.Is(err, pollerrors.ErrPollIDRequired),
		errors.Is(err, pollerrors.ErrTitleBlank),
		errors.Is(err, pollerrors.ErrEditFieldsRequired),
		errors.Is(err, pollerrors.ErrCreatorRequired),
		errors.Is(err, pollerrors.ErrInvalidRecurrence),
		errors.Is(err, pollerrors.ErrInvalidQuestionInput):
		writePollError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writePollError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePollError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, pollhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
