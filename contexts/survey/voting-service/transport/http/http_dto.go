package http

import "encoding/json"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type DraftPayload struct {
	PollID     string          `json:"poll_id"`
	Version    int64           `json:"version"`
	StartDate  string          `json:"start_date"`
	EndDate    string          `json:"end_date"`
	VoterEmail string          `json:"voter_email"`
	Content    json.RawMessage `json:"content"`
}

type DraftResponse struct {
	Message string        `json:"message"`
	Draft   *DraftPayload `json:"draft"`
	Status  string        `json:"status"`
}

type PutDraftRequest struct {
	Content json.RawMessage `json:"content"`
}

type DraftAnswerPayload struct {
	QuestionID      string   `json:"question_id"`
	SelectedOptions []string `json:"selected_options,omitempty"`
	FreeText        string   `json:"free_text,omitempty"`
}

type DraftAnswersResponse struct {
	Message string               `json:"message"`
	Answers []DraftAnswerPayload `json:"answers"`
}

type PutDraftAnswerRequest struct {
	QuestionID      string   `json:"question_id"`
	SelectedOptions []string `json:"selected_options,omitempty"`
	FreeText        string   `json:"free_text,omitempty"`
}

type StatusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type SubmitResponse struct {
	Message     string `json:"message"`
	ResponseID  string `json:"response_id"`
	AnswerCount int    `json:"answer_count"`
}
