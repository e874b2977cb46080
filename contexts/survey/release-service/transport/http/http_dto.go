package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SnapshotPayload struct {
	PollID    string    `json:"poll_id"`
	Number    int64     `json:"number"`
	CreatedAt time.Time `json:"created_at"`
}

type QuestionPayload struct {
	QuestionID string   `json:"question_id"`
	Type       string   `json:"type"`
	Content    string   `json:"content"`
	Required   bool     `json:"required"`
	Options    []string `json:"options,omitempty"`
	Position   int      `json:"position"`
}

type VersionResponse struct {
	Message string          `json:"message"`
	Version SnapshotPayload `json:"version"`
}

type VersionListResponse struct {
	Message  string            `json:"message"`
	Versions []SnapshotPayload `json:"versions"`
}

type ReleaseResponse struct {
	Message string          `json:"message"`
	Release SnapshotPayload `json:"release"`
}

type ReleaseListResponse struct {
	Message  string            `json:"message"`
	Releases []SnapshotPayload `json:"releases"`
}

type QuestionSetResponse struct {
	Message   string            `json:"message"`
	PollID    string            `json:"poll_id"`
	Number    int64             `json:"number"`
	Questions []QuestionPayload `json:"questions"`
}
