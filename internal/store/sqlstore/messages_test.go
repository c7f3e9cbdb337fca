package sqlstore

import (
	"fmt"
	"testing"

	"github.com/rgoyal/huddle/internal/models"
)

func TestSaveMessage(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	a := mustUser(t, "a")
	b := mustUser(t, "b")
	chat := &models.Chat{Members: []int{a, b}}
	if err := testStore.CreateChat(chat); err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}

	msg := &models.Message{ChatID: chat.ID, SenderID: a, Content: "Hello"}
	if err := testStore.SaveMessage(msg); err != nil {
		t.Fatalf("Failed to save message: %v", err)
	}
	if msg.ID == 0 {
		t.Error("Expected non-zero message ID")
	}
	if msg.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}

	messages, totalPages, err := testStore.ChatMessages(chat.ID, 1, 20)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}
	if messages[0].Content != "Hello" {
		t.Errorf("Expected content 'Hello', got '%s'", messages[0].Content)
	}
	if messages[0].Sender != "a" {
		t.Errorf("Expected sender 'a', got '%s'", messages[0].Sender)
	}
	if totalPages != 1 {
		t.Errorf("Expected 1 total page, got %d", totalPages)
	}
}

func TestSaveMessageWithAttachments(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	a := mustUser(t, "a")
	b := mustUser(t, "b")
	chat := &models.Chat{Members: []int{a, b}}
	if err := testStore.CreateChat(chat); err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}

	msg := &models.Message{
		ChatID:   chat.ID,
		SenderID: a,
		Attachments: []models.Attachment{
			{Key: "k1", URL: "http://x/k1"},
			{Key: "k2", URL: "http://x/k2"},
		},
	}
	if err := testStore.SaveMessage(msg); err != nil {
		t.Fatalf("Failed to save message: %v", err)
	}

	messages, _, err := testStore.ChatMessages(chat.ID, 1, 20)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}
	if len(messages[0].Attachments) != 2 {
		t.Fatalf("Expected 2 attachments, got %d", len(messages[0].Attachments))
	}
	if messages[0].Attachments[0].Key != "k1" || messages[0].Attachments[1].Key != "k2" {
		t.Errorf("Attachments out of order: %+v", messages[0].Attachments)
	}

	keys, err := testStore.ChatAttachmentKeys(chat.ID)
	if err != nil {
		t.Fatalf("ChatAttachmentKeys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("Expected 2 keys, got %v", keys)
	}
}

// 25 messages with page size 20: page 1 is the 20 most recent in
// chronological order, page 2 the remaining 5, totalPages 2.
func TestChatMessagesPagination(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	a := mustUser(t, "a")
	b := mustUser(t, "b")
	chat := &models.Chat{Members: []int{a, b}}
	if err := testStore.CreateChat(chat); err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}

	for i := 1; i <= 25; i++ {
		msg := &models.Message{ChatID: chat.ID, SenderID: a, Content: fmt.Sprintf("msg-%d", i)}
		if err := testStore.SaveMessage(msg); err != nil {
			t.Fatalf("Failed to save message %d: %v", i, err)
		}
	}

	page1, totalPages, err := testStore.ChatMessages(chat.ID, 1, 20)
	if err != nil {
		t.Fatalf("Failed to get page 1: %v", err)
	}
	if totalPages != 2 {
		t.Errorf("Expected 2 total pages, got %d", totalPages)
	}
	if len(page1) != 20 {
		t.Fatalf("Expected 20 messages on page 1, got %d", len(page1))
	}
	// Most recent window, oldest first within the page.
	if page1[0].Content != "msg-6" || page1[19].Content != "msg-25" {
		t.Errorf("Page 1 out of order: first=%s last=%s", page1[0].Content, page1[19].Content)
	}

	page2, _, err := testStore.ChatMessages(chat.ID, 2, 20)
	if err != nil {
		t.Fatalf("Failed to get page 2: %v", err)
	}
	if len(page2) != 5 {
		t.Fatalf("Expected 5 messages on page 2, got %d", len(page2))
	}
	if page2[0].Content != "msg-1" || page2[4].Content != "msg-5" {
		t.Errorf("Page 2 out of order: first=%s last=%s", page2[0].Content, page2[4].Content)
	}
}
