package store

import "github.com/rgoyal/huddle/internal/models"

type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id int) (*models.User, error)
	SearchUsers(query string) ([]models.User, error)
	GetUsernames(ids []int) (map[int]string, error)

	// Chat operations
	CreateChat(chat *models.Chat) error
	GetChat(chatID int) (*models.Chat, error)
	GetUserChats(userID int) ([]models.Chat, error)
	GetUserGroups(userID int) ([]models.Chat, error)
	IsParticipant(chatID, userID int) (bool, error)
	AddParticipants(chatID int, userIDs []int) error
	RemoveParticipant(chatID, userID int) error
	SetCreator(chatID, userID int) error
	RenameChat(chatID int, name string) error
	// DeleteChat removes the chat, its participants, and its full message
	// history including attachment references, in one transaction.
	DeleteChat(chatID int) error

	// Message operations
	SaveMessage(msg *models.Message) error
	ChatMessages(chatID, page, pageSize int) ([]models.Message, int, error)
	ChatAttachmentKeys(chatID int) ([]string, error)
}
