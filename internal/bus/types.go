package bus

// EventKind classifies an inbound transport event.
type EventKind string

const (
	KindText    EventKind = "text"
	KindPhoto   EventKind = "photo"
	KindVideo   EventKind = "video"
	KindCommand EventKind = "command"
)

// InboundEvent represents one normalized event received from the messaging
// transport. Exactly one of Text / MediaRef is meaningful depending on Kind.
type InboundEvent struct {
	SenderID    string    `json:"sender_id"`
	ChatID      string    `json:"chat_id"`
	DisplayName string    `json:"display_name"`
	Kind        EventKind `json:"kind"`
	Text        string    `json:"text,omitempty"`      // KindText: message text; KindCommand: full command line
	MediaRef    string    `json:"media_ref,omitempty"` // KindPhoto / KindVideo: opaque transport file reference
}

// OutboundNotice is a plain-text status message to deliver back to a sender.
type OutboundNotice struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}
