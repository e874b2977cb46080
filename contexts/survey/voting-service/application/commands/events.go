package commands

import (
	"encoding/json"
	"time"

	"pollsmith/contexts/survey/voting-service/ports"
)

// ResponseSubmittedTopic carries finalized responses to the aggregation side.
const ResponseSubmittedTopic = "response.submitted"

type submittedAnswer struct {
	QuestionID string   `json:"question_id"`
	Values     []string `json:"values"`
}

type responseSubmittedData struct {
	ResponseID string            `json:"response_id"`
	PollID     string            `json:"poll_id"`
	Version    int64             `json:"version"`
	StartDate  string            `json:"start_date"`
	EndDate    string            `json:"end_date"`
	VoterEmail string            `json:"voter_email"`
	Answers    []submittedAnswer `json:"answers"`
}

func newResponseSubmittedEnvelope(
	eventID string,
	occurredAt time.Time,
	data responseSubmittedData,
) (ports.EventEnvelope, error) {
	// Partitioned by poll so per-poll aggregation consumers see submissions in
	// a stable order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        ResponseSubmittedTopic,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "voting-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "poll_id",
		PartitionKey:     data.PollID,
		Data:             payload,
	}, nil
}
