package domain

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Turn is one exchange: the human message and the generated reply.
type Turn struct {
	Human string
	AI    string
}

func (t Turn) Messages() []ChatMessage {
	return []ChatMessage{
		{Role: RoleUser, Content: t.Human},
		{Role: RoleAssistant, Content: t.AI},
	}
}

// ChatRequest is everything the backend needs to produce a conversational reply.
type ChatRequest struct {
	Text    string
	Persona string
	History []ChatMessage
}
