package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	pollservice "pollsmith/contexts/survey/poll-service"
	pollpg "pollsmith/contexts/survey/poll-service/adapters/postgres"
	releaseservice "pollsmith/contexts/survey/release-service"
	releasepg "pollsmith/contexts/survey/release-service/adapters/postgres"
	reportservice "pollsmith/contexts/survey/report-service"
	reportpg "pollsmith/contexts/survey/report-service/adapters/postgres"
	reportworkers "pollsmith/contexts/survey/report-service/application/workers"
	votingservice "pollsmith/contexts/survey/voting-service"
	votingpg "pollsmith/contexts/survey/voting-service/adapters/postgres"
	votingcommands "pollsmith/contexts/survey/voting-service/application/commands"
	votingworkers "pollsmith/contexts/survey/voting-service/application/workers"
	votingentities "pollsmith/contexts/survey/voting-service/domain/entities"
	"pollsmith/internal/platform/config"
	"pollsmith/internal/platform/db"
	"pollsmith/internal/platform/httpserver"
	"pollsmith/internal/platform/messaging"
	"pollsmith/internal/shared/recurrence"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres        *db.Postgres
	outboxRelay     votingworkers.OutboxRelay
	responses       reportworkers.ResponseConsumer
	pollInterval    time.Duration
	relayEnabled    bool
	consumerEnabled bool
	logger          *slog.Logger
}

// votingStatusWriter adapts the voting draft use case to the report
// service's status port, so recurrence status patches on the report surface
// go through the same forward-only state machine.
type votingStatusWriter struct {
	drafts votingcommands.DraftUseCase
}

func (w votingStatusWriter) UpdateVoterStatus(
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

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	pollModule := pollservice.NewModule(pollservice.Dependencies{
		Polls:  pollpg.NewRepository(pg.DB, logger),
		Clock:  pollpg.SystemClock{},
		IDGen:  pollpg.UUIDGenerator{},
		Logger: logger,
	})

	releaseModule := releaseservice.NewModule(releaseservice.Dependencies{
		Snapshots: releasepg.NewRepository(pg.DB, logger),
		Polls:     releasepg.NewPollSource(pg.DB, logger),
		Clock:     releasepg.SystemClock{},
		Logger:    logger,
	})

	votingRepo := votingpg.NewRepository(pg.DB, logger)
	votingModule := votingservice.NewModule(votingservice.Dependencies{
		Drafts: votingRepo,
		Outbox: votingRepo,
		Clock:  votingpg.SystemClock{},
		IDGen:  votingpg.UUIDGenerator{},
		Logger: logger,
	})

	reportModule := reportservice.NewModule(reportservice.Dependencies{
		Reports: reportpg.NewRepository(pg.DB, logger),
		Status:  votingStatusWriter{drafts: votingModule.Drafts},
		Clock:   reportpg.SystemClock{},
		Logger:  logger,
	})

	server := httpserver.New(
		pollModule,
		releaseModule,
		votingModule,
		reportModule,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	votingRepo := votingpg.NewRepository(pg.DB, logger)
	votingModule := votingservice.NewModule(votingservice.Dependencies{
		Drafts: votingRepo,
		Outbox: votingRepo,
		Clock:  votingpg.SystemClock{},
		IDGen:  votingpg.UUIDGenerator{},
		Logger: logger,
	})

	reportRepo := reportpg.NewRepository(pg.DB, logger)
	reportModule := reportservice.NewModule(reportservice.Dependencies{
		Reports: reportRepo,
		Status:  votingStatusWriter{drafts: votingModule.Drafts},
		Clock:   reportpg.SystemClock{},
		Logger:  logger,
	})

	return &WorkerApp{
		postgres: pg,
		outboxRelay: votingworkers.OutboxRelay{
			Outbox:    votingRepo,
			Publisher: kafka,
			Clock:     votingpg.SystemClock{},
			BatchSize: cfg.OutboxRelayBatchSize,
			Logger:    logger,
		},
		responses: reportworkers.ResponseConsumer{
			Subscriber: kafka,
			Dedup:      reportRepo,
			Aggregator: reportModule.Aggregates,
			Clock:      reportpg.SystemClock{},
			Logger:     logger,
		},
		pollInterval:    cfg.OutboxRelayInterval,
		relayEnabled:    cfg.EnableOutboxRelay,
		consumerEnabled: cfg.EnableResponseConsumer,
		logger:          logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.consumerEnabled {
		if err := w.responses.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.relayEnabled {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
