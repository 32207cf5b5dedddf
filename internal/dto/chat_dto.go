package dto

// ChatTurnDTO is one prior exchange supplied by the client when it keeps
// history on its side.
type ChatTurnDTO struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// ChatRequest is the inbound chat payload. Older clients send "input"
// instead of "message"; both are accepted and normalized.
type ChatRequest struct {
	Message   string        `json:"message" validate:"required_without=Input"`
	Input     string        `json:"input" validate:"required_without=Message"`
	UserName  string        `json:"user_name"`
	SessionID string        `json:"session_id"`
	History   []ChatTurnDTO `json:"history"`
}

// Text returns the user utterance under either field name.
func (r *ChatRequest) Text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Input
}

type ChatResponse struct {
	Response  string `json:"response"`
	FileURL   string `json:"file_url,omitempty"`
	SessionID string `json:"session_id"`
}
