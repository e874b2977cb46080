package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "pollsmith/contexts/survey/report-service/application"
	"pollsmith/contexts/survey/report-service/application/commands"
	"pollsmith/contexts/survey/report-service/domain/entities"
	"pollsmith/contexts/survey/report-service/ports"
	"pollsmith/internal/shared/recurrence"
)

const (
	responseSubmittedTopic = "response.submitted"
	defaultResponseCG      = "report-service-response-cg"
	defaultDedupTTL        = 7 * 24 * time.Hour
)

// ResponseConsumer aggregates finalized responses arriving on the bus. The
// dedup reservation plus the engine's per-answer fencing makes redelivery
// harmless.
type ResponseConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Aggregator    commands.AggregateUseCase
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func (c ResponseConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultResponseCG
	}
	if err := c.Subscriber.Subscribe(ctx, responseSubmittedTopic, group, c.handleResponseSubmitted); err != nil {
		logger.Error("response consumer subscribe failed",
			"event", "report_response_consumer_subscribe_failed",
			"module", "survey/report-service",
			"layer", "worker",
			"topic", responseSubmittedTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("response consumer subscription active",
		"event", "report_response_consumer_started",
		"module", "survey/report-service",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c ResponseConsumer) handleResponseSubmitted(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	alreadyProcessed, err := c.reserveEvent(ctx, event)
	if err != nil {
		return err
	}
	if alreadyProcessed {
		logger.Debug("response.submitted replay skipped",
			"event", "report_response_submitted_replayed",
			"module", "survey/report-service",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var data struct {
		ResponseID string `json:"response_id"`
		PollID     string `json:"poll_id"`
		Version    int64  `json:"version"`
		StartDate  string `json:"start_date"`
		EndDate    string `json:"end_date"`
		VoterEmail string `json:"voter_email"`
		Answers    []struct {
			QuestionID string   `json:"question_id"`
			Values     []string `json:"values"`
		} `json:"answers"`
	}
	if err := json.Unmarshal(event.Data, &data); err != nil {
		logger.Error("response.submitted payload decode failed",
			"event", "report_response_submitted_decode_failed",
			"module", "survey/report-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	window, err := parseWindow(data.StartDate, data.EndDate)
	if err != nil {
		logger.Error("response.submitted window decode failed",
			"event", "report_response_submitted_window_failed",
			"module", "survey/report-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	answers := make([]entities.ResponseAnswer, 0, len(data.Answers))
	for _, answer := range data.Answers {
		answers = append(answers, entities.ResponseAnswer{
			QuestionID: answer.QuestionID,
			Values:     answer.Values,
		})
	}
	if err := c.Aggregator.AggregateResponse(ctx, commands.AggregateResponseCommand{
		Key: entities.RecurrenceKey{
			PollID:  data.PollID,
			Version: data.Version,
			Window:  window,
		},
		VoterEmail: data.VoterEmail,
		Answers:    answers,
	}); err != nil {
		return err
	}

	logger.Info("response.submitted consumed",
		"event", "report_response_submitted_consumed",
		"module", "survey/report-service",
		"layer", "worker",
		"event_id", event.EventID,
		"response_id", data.ResponseID,
		"poll_id", data.PollID,
	)
	return nil
}

func (c ResponseConsumer) reserveEvent(ctx context.Context, event ports.EventEnvelope) (bool, error) {
	ttl := c.DedupTTL
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}
	return c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), now.Add(ttl))
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func parseWindow(start string, end string) (recurrence.Window, error) {
	return recurrence.ParseKey(start + "_" + end)
}
