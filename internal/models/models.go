package models

import "time"

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// Chat is either a 1:1 conversation or a group. Name and CreatorID are
// meaningful only when IsGroup is set; direct chats always have exactly
// two members.
type Chat struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsGroup   bool   `json:"is_group"`
	CreatorID int    `json:"creator_id,omitempty"`
	Members   []int  `json:"members"`
}

// Attachment references a blob held by the object storage gateway.
// Key is used for deletion, URL for retrieval. Attachments are only ever
// deleted as part of deleting the owning chat's full history.
type Attachment struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Message is immutable once persisted. Exactly one of Content and
// Attachments is non-empty.
type Message struct {
	ID          int          `json:"id"`
	ChatID      int          `json:"chat_id"`
	SenderID    int          `json:"sender_id"`
	Sender      string       `json:"sender,omitempty"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
