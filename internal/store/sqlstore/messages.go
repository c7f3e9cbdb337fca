package sqlstore

import (
	"time"

	"github.com/rgoyal/huddle/internal/models"
)

// SaveMessage persists the message row and its attachment references in
// one transaction, filling in the generated id and timestamp.
func (s *SQLStore) SaveMessage(msg *models.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	createdAt := time.Now().UTC()
	var id int
	query := s.rebind("INSERT INTO messages (chat_id, sender_id, content, created_at) VALUES (?, ?, ?, ?) RETURNING id")
	if err := tx.QueryRow(query, msg.ChatID, msg.SenderID, msg.Content, createdAt).Scan(&id); err != nil {
		return err
	}

	query = s.rebind("INSERT INTO attachments (message_id, storage_key, url) VALUES (?, ?, ?)")
	for _, a := range msg.Attachments {
		if _, err := tx.Exec(query, id, a.Key, a.URL); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	msg.ID = id
	msg.CreatedAt = createdAt
	return nil
}

// ChatMessages serves the page-th most-recent window of pageSize messages,
// reversed to chronological order, plus the total page count. Page 1 is
// the pageSize most recent messages, oldest first.
func (s *SQLStore) ChatMessages(chatID, page, pageSize int) ([]models.Message, int, error) {
	if page < 1 {
		page = 1
	}

	var total int
	query := s.rebind("SELECT COUNT(*) FROM messages WHERE chat_id = ?")
	if err := s.db.QueryRow(query, chatID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query = s.rebind(`
		SELECT m.id, m.chat_id, m.sender_id, u.username, m.content, m.created_at
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.chat_id = ?
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ? OFFSET ?
	`)
	rows, err := s.db.Query(query, chatID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range messages {
		if err := s.loadAttachments(&messages[i]); err != nil {
			return nil, 0, err
		}
	}

	// Newest-first window back to chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	totalPages := (total + pageSize - 1) / pageSize
	return messages, totalPages, nil
}

func (s *SQLStore) loadAttachments(msg *models.Message) error {
	query := s.rebind("SELECT storage_key, url FROM attachments WHERE message_id = ? ORDER BY id")
	rows, err := s.db.Query(query, msg.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.Key, &a.URL); err != nil {
			return err
		}
		msg.Attachments = append(msg.Attachments, a)
	}
	return rows.Err()
}

// ChatAttachmentKeys collects every storage key referenced by the chat's
// history, for blob cleanup ahead of chat deletion.
func (s *SQLStore) ChatAttachmentKeys(chatID int) ([]string, error) {
	query := s.rebind(`
		SELECT a.storage_key
		FROM attachments a
		JOIN messages m ON a.message_id = m.id
		WHERE m.chat_id = ?
	`)
	rows, err := s.db.Query(query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
