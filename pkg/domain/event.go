package domain

type EventType string

const (
	EventTypeMessage EventType = "message"
	EventTypeOther   EventType = "other"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeAudio MessageType = "audio"
	MessageTypeOther MessageType = "other"
)

// Event is one inbound platform event, already stripped of SDK types.
type Event struct {
	Type       EventType
	Channel    string
	Source     Source
	UserID     string
	ReplyToken string
	Message    Message
}

type Message struct {
	Type  MessageType
	Text  string
	Audio *AudioRef
}

// AudioRef points at audio content owned by a channel.
type AudioRef struct {
	Channel string
	ID      string
}
