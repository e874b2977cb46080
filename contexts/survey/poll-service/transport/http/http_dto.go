package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type QuestionPayload struct {
	QuestionID string   `json:"question_id,omitempty"`
	Type       string   `json:"type"`
	Content    string   `json:"content"`
	Required   bool     `json:"required"`
	Options    []string `json:"options,omitempty"`
	Position   int      `json:"position,omitempty"`
}

type PollPayload struct {
	PollID       string            `json:"poll_id"`
	CreatorEmail string            `json:"creator_email"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	Status       string            `json:"status"`
	Recurrence   string            `json:"recurrence"`
	Questions    []QuestionPayload `json:"questions"`
}

type CreatePollRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Recurrence  string            `json:"recurrence,omitempty"`
	Questions   []QuestionPayload `json:"questions,omitempty"`
}

type EditPollInformationRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

type AddQuestionRequest struct {
	Type     string   `json:"type"`
	Content  string   `json:"content"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type EditQuestionRequest struct {
	Type     *string   `json:"type,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Required *bool     `json:"required,omitempty"`
	Options  *[]string `json:"options,omitempty"`
}

type PollResponse struct {
	Message string      `json:"message"`
	Poll    PollPayload `json:"poll"`
}

type PollListResponse struct {
	Message string        `json:"message"`
	Polls   []PollPayload `json:"polls"`
}

type QuestionResponse struct {
	Message  string          `json:"message"`
	Question QuestionPayload `json:"question"`
}

type QuestionListResponse struct {
	Message   string            `json:"message"`
	Questions []QuestionPayload `json:"questions"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
