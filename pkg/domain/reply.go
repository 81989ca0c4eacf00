package domain

// Reply is the single outbound message produced for an event.
type Reply struct {
	Text   string
	Images []string
}

func TextReply(text string) *Reply {
	return &Reply{Text: text}
}
