// Package events defines the transient event kinds pushed to live
// connections and the router that fans them out. Events are never
// persisted; a recipient that is offline at emission time misses the
// event and catches up from message history on reconnect.
package events

const (
	NewMessage      = "NEW_MESSAGE"
	NewMessageAlert = "NEW_MESSAGE_ALERT"
	Alert           = "ALERT"
	RefetchChats    = "REFETCH_CHATS"
	StartTyping     = "START_TYPING"
	StopTyping      = "STOP_TYPING"
)

// Envelope is the wire shape of every pushed event.
type Envelope struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload,omitempty"`
}

// MessagePayload accompanies NEW_MESSAGE.
type MessagePayload struct {
	ChatID  int `json:"chat_id"`
	Message any `json:"message"`
}

// ChatPayload accompanies NEW_MESSAGE_ALERT and the typing kinds.
type ChatPayload struct {
	ChatID int `json:"chat_id"`
}

// AlertPayload accompanies membership-change alerts.
type AlertPayload struct {
	ChatID  int    `json:"chat_id"`
	Message string `json:"message"`
}
