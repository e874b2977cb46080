package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	pollservice "pollsmith/contexts/survey/poll-service"
	releaseservice "pollsmith/contexts/survey/release-service"
	reportservice "pollsmith/contexts/survey/report-service"
	votingservice "pollsmith/contexts/survey/voting-service"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "pollsmith/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	polls    pollservice.Module
	releases releaseservice.Module
	votes    votingservice.Module
	reports  reportservice.Module
}

func New(
	polls pollservice.Module,
	releases releaseservice.Module,
	votes votingservice.Module,
	reports reportservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		polls:    polls,
		releases: releases,
		votes:    votes,
		reports:  reports,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.registerPollRoutes()
	s.registerReleaseRoutes()
	s.registerVoteRoutes()
	s.registerReportRoutes()
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
