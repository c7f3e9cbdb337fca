package sqlstore

import (
	"database/sql"

	"github.com/rgoyal/huddle/internal/models"
)

// CreateChat inserts the chat and its initial membership in one
// transaction and fills in the generated id.
func (s *SQLStore) CreateChat(chat *models.Chat) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int
	query := s.rebind("INSERT INTO chats (name, is_group, creator_id) VALUES (?, ?, ?) RETURNING id")
	if err := tx.QueryRow(query, chat.Name, chat.IsGroup, chat.CreatorID).Scan(&id); err != nil {
		return err
	}

	query = s.rebind("INSERT INTO participants (chat_id, user_id) VALUES (?, ?)")
	for _, userID := range chat.Members {
		if _, err := tx.Exec(query, id, userID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	chat.ID = id
	return nil
}

// GetChat loads a chat with its full membership. Returns sql.ErrNoRows
// when the chat does not exist.
func (s *SQLStore) GetChat(chatID int) (*models.Chat, error) {
	var chat models.Chat
	query := s.rebind("SELECT id, name, is_group, creator_id FROM chats WHERE id = ?")
	err := s.db.QueryRow(query, chatID).Scan(&chat.ID, &chat.Name, &chat.IsGroup, &chat.CreatorID)
	if err != nil {
		return nil, err
	}

	query = s.rebind("SELECT user_id FROM participants WHERE chat_id = ? ORDER BY user_id")
	rows, err := s.db.Query(query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID int
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		chat.Members = append(chat.Members, userID)
	}
	return &chat, rows.Err()
}

func (s *SQLStore) GetUserChats(userID int) ([]models.Chat, error) {
	query := s.rebind(`
		SELECT c.id, c.name, c.is_group, c.creator_id
		FROM chats c
		JOIN participants p ON c.id = p.chat_id
		WHERE p.user_id = ?
	`)
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var chat models.Chat
		if err := rows.Scan(&chat.ID, &chat.Name, &chat.IsGroup, &chat.CreatorID); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range chats {
		full, err := s.GetChat(chats[i].ID)
		if err != nil {
			return nil, err
		}
		chats[i].Members = full.Members
	}
	return chats, nil
}

// GetUserGroups lists the group chats the user created, with membership
// loaded, for the group-management surface.
func (s *SQLStore) GetUserGroups(userID int) ([]models.Chat, error) {
	query := s.rebind("SELECT id, name, is_group, creator_id FROM chats WHERE is_group = ? AND creator_id = ?")
	rows, err := s.db.Query(query, true, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var chat models.Chat
		if err := rows.Scan(&chat.ID, &chat.Name, &chat.IsGroup, &chat.CreatorID); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range chats {
		full, err := s.GetChat(chats[i].ID)
		if err != nil {
			return nil, err
		}
		chats[i].Members = full.Members
	}
	return chats, nil
}

func (s *SQLStore) IsParticipant(chatID, userID int) (bool, error) {
	var exists bool
	query := s.rebind("SELECT EXISTS(SELECT 1 FROM participants WHERE chat_id = ? AND user_id = ?)")
	err := s.db.QueryRow(query, chatID, userID).Scan(&exists)
	return exists, err
}

func (s *SQLStore) AddParticipants(chatID int, userIDs []int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := s.rebind("INSERT INTO participants (chat_id, user_id) VALUES (?, ?)")
	for _, userID := range userIDs {
		if _, err := tx.Exec(query, chatID, userID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) RemoveParticipant(chatID, userID int) error {
	query := s.rebind("DELETE FROM participants WHERE chat_id = ? AND user_id = ?")
	_, err := s.db.Exec(query, chatID, userID)
	return err
}

func (s *SQLStore) SetCreator(chatID, userID int) error {
	query := s.rebind("UPDATE chats SET creator_id = ? WHERE id = ?")
	_, err := s.db.Exec(query, userID, chatID)
	return err
}

func (s *SQLStore) RenameChat(chatID int, name string) error {
	query := s.rebind("UPDATE chats SET name = ? WHERE id = ?")
	res, err := s.db.Exec(query, name, chatID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteChat removes the chat entity, its participants, and its entire
// message history including attachment references. Blob cleanup is the
// caller's concern and happens before this call.
func (s *SQLStore) DeleteChat(chatID int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := s.rebind("DELETE FROM attachments WHERE message_id IN (SELECT id FROM messages WHERE chat_id = ?)")
	if _, err := tx.Exec(query, chatID); err != nil {
		return err
	}

	query = s.rebind("DELETE FROM messages WHERE chat_id = ?")
	if _, err := tx.Exec(query, chatID); err != nil {
		return err
	}

	query = s.rebind("DELETE FROM participants WHERE chat_id = ?")
	if _, err := tx.Exec(query, chatID); err != nil {
		return err
	}

	query = s.rebind("DELETE FROM chats WHERE id = ?")
	if _, err := tx.Exec(query, chatID); err != nil {
		return err
	}
	return tx.Commit()
}
