package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	releaseerrors "pollsmith/contexts/survey/release-service/domain/errors"
	releasehttp "pollsmith/contexts/survey/release-service/transport/http"
)

func (s *Server) registerReleaseRoutes() {
	s.mux.HandleFunc("POST /polls/{poll_id}/versions", s.handleCreateVersion)
	s.mux.HandleFunc("GET /polls/{poll_id}/versions", s.handleListVersions)
	s.mux.HandleFunc("GET /polls/{poll_id}/versions/latest", s.handleLatestVersion)
	s.mux.HandleFunc("GET /polls/{poll_id}/versions/{version}/questions", s.handleVersionQuestions)

	s.mux.HandleFunc("POST /polls/{poll_id}/releases", s.handleCreateRelease)
	s.mux.HandleFunc("GET /polls/{poll_id}/releases", s.handleListReleases)
	s.mux.HandleFunc("GET /polls/{poll_id}/releases/latest", s.handleLatestRelease)
	s.mux.HandleFunc("GET /polls/{poll_id}/releases/{release}/questions", s.handleReleaseQuestions)
}

func (s *Server) handleCreateVersion(w http.ResponseWriter, r *http.Request) {
	resp, err := s.releases.Handler.CreateVersionHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writeReleaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.releases.Handler.ListVersionsHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writeReleaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatestVersion(w http.ResponseWriter, r *http.Request) {
	resp, err := s.releases.Handler.LatestVersionHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writeReleaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVersionQuestions(w http.ResponseWriter, r *http.Request) {
	number, ok := parseSequence(w, r.PathValue("version"))
	if !ok {
		return
	}
	resp, err := s.releases.Handler.VersionQuestionsHandler(r.Context(), r.PathValue("poll_id"), number)
	if err != nil {
		writeReleaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateRelease(w http.ResponseWriter, r *http.Request) {
	resp, err := s.releases.Handler.CreateReleaseHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writeReleaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListReleases(w http.ResponseWriter, r *http.Request) {
	resp, err := s.releases.Handler.ListReleasesHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writeReleaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatestRelease(w http.ResponseWriter, r *http.Request) {
	resp, err := s.releases.Handler.LatestReleaseHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writeReleaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReleaseQuestions(w http.ResponseWriter, r *http.Request) {
	number, ok := parseSequence(w, r.PathValue("release"))
	if !ok {
		return
	}
	resp, err := s.releases.Handler.ReleaseQuestionsHandler(r.Context(), r.PathValue("poll_id"), number)
	if err != nil {
		writeReleaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseSequence(w http.ResponseWriter, raw string) (int64, bool) {
	number, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeReleaseError(w, http.StatusBadRequest, "invalid_sequence", "sequence number must be an integer")
		return 0, false
	}
	return number, true
}

func writeReleaseDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, releaseerrors.ErrPollNotFound):
		writeReleaseError(w, http.StatusNotFound, "poll_not_found", err.Error())
	case errors.Is(err, releaseerrors.ErrVersionNotFound):
		writeReleaseError(w, http.StatusNotFound, "version_not_found", err.Error())
	case errors.Is(err, releaseerrors.ErrReleaseNotFound):
		writeReleaseError(w, http.StatusNotFound, "release_not_found", err.Error())
	case errors.Is(err, releaseerrors.ErrQuestionSetUnavailable):
		writeReleaseError(w, http.StatusNotFound, "question_set_unavailable", err.Error())
	case errors.Is(err, releaseerrors.ErrPollClosed):
		writeReleaseError(w, http.StatusConflict, "poll_closed", err.Error())
	case errors.Is(err, releaseerrors.ErrEmptyQuestionSet):
		writeReleaseError(w, http.StatusConflict, "empty_question_set", err.Error())
	case errors.Is(err, releaseerrors.ErrSequenceConflict):
		writeReleaseError(w, http.StatusConflict, "sequence_conflict", err.Error())
	case errors.Is(err, releaseerrors.ErrPollIDRequired),
		errors.Is(err, releaseerrors.ErrInvalidSequenceNumber):
		writeReleaseError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeReleaseError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeReleaseError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, releasehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
