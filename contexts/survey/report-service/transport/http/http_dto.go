package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AnswerTallyPayload struct {
	Answer string `json:"answer"`
	Count  int64  `json:"count"`
}

type QuestionTallyPayload struct {
	QuestionID string               `json:"question_id"`
	TotalVotes int64                `json:"total_votes"`
	Answers    []AnswerTallyPayload `json:"answers"`
}

type OverviewPayload struct {
	PollID    string                 `json:"poll_id"`
	Version   int64                  `json:"version"`
	StartDate string                 `json:"start_date"`
	EndDate   string                 `json:"end_date"`
	Questions []QuestionTallyPayload `json:"questions"`
}

type OverviewResponse struct {
	Message  string          `json:"message"`
	Overview OverviewPayload `json:"overview"`
}

type OverviewListResponse struct {
	Message         string            `json:"message"`
	OverviewReports []OverviewPayload `json:"overviewReports"`
}

type AnswerDetailPayload struct {
	Answer string   `json:"answer"`
	Count  int64    `json:"count"`
	Voters []string `json:"voters"`
}

type QuestionDetailPayload struct {
	QuestionID string                `json:"question_id"`
	Answers    []AnswerDetailPayload `json:"answers"`
}

type DetailResponse struct {
	Message   string                  `json:"message"`
	PollID    string                  `json:"poll_id"`
	Version   int64                   `json:"version"`
	StartDate string                  `json:"start_date"`
	EndDate   string                  `json:"end_date"`
	Questions []QuestionDetailPayload `json:"questions"`
}

type AnswerReportPayload struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	Count      int64  `json:"count"`
}

type AnswerReportListResponse struct {
	Message    string                `json:"message"`
	Reports    []AnswerReportPayload `json:"reports"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

type VoterListResponse struct {
	Message    string   `json:"message"`
	QuestionID string   `json:"question_id"`
	Answer     string   `json:"answer"`
	Voters     []string `json:"voters"`
}

type SubmitResponseRequest struct {
	VoterEmail string                `json:"voter_email"`
	Answers    []ResponseAnswerInput `json:"answers"`
}

type ResponseAnswerInput struct {
	QuestionID string   `json:"question_id"`
	Values     []string `json:"values"`
}

type UpdateStatusRequest struct {
	VoterEmail string `json:"voter_email"`
	Status     string `json:"status"`
}

type StatusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
