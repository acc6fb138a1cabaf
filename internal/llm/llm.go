package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single chat completion call. System, when set, is sent as the
// first message ahead of Messages.
type Request struct {
	System   string
	Messages []Message

	Temperature      float64
	TopP             float64
	PresencePenalty  float64
	FrequencyPenalty float64
}

// NewDeterministicRequest builds a request with temperature 0, top-p 1 and no
// penalties.
func NewDeterministicRequest(system string, messages ...Message) Request {
	return Request{
		System:      system,
		Messages:    messages,
		Temperature: 0,
		TopP:        1,
	}
}

// Generator produces the assistant's reply for a chat request. Implementations
// must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

func lastContent(req Request) string {
	if len(req.Messages) == 0 {
		return req.System
	}
	return req.Messages[len(req.Messages)-1].Content
}
