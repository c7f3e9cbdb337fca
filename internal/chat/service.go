// Package chat owns chat entities and the message pipeline: membership
// invariants, authorization, persistence, and the event fan-out that
// follows every successful mutation.
package chat

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/rgoyal/huddle/internal/errs"
	"github.com/rgoyal/huddle/internal/events"
	"github.com/rgoyal/huddle/internal/models"
	"github.com/rgoyal/huddle/internal/storage"
	"github.com/rgoyal/huddle/internal/store"
)

const (
	// Group chats hold between MinGroupMembers and MaxGroupMembers
	// members at all times after creation.
	MinGroupMembers = 3
	MaxGroupMembers = 100

	// MaxAttachments bounds a single message.
	MaxAttachments = 5

	// PageSize is the message pagination window.
	PageSize = 20
)

type Service struct {
	store  store.Store
	blobs  storage.BlobStore
	router *events.Router
	locks  *chatLocks

	// pick selects a uniform-random index in [0, n); injectable so
	// creator succession is testable.
	pick func(n int) int
}

func NewService(st store.Store, blobs storage.BlobStore, router *events.Router) *Service {
	return &Service{
		store:  st,
		blobs:  blobs,
		router: router,
		locks:  newChatLocks(),
		pick:   rand.Intn,
	}
}

// NewGroupChat creates a group owned by creatorID with members ∪ {creator}.
func (s *Service) NewGroupChat(creatorID int, name string, memberIDs []int) (*models.Chat, error) {
	members := lo.Uniq(append(lo.Without(memberIDs, creatorID), creatorID))
	if len(members) < MinGroupMembers {
		return nil, errs.Invariant(fmt.Sprintf("Group must have at least %d members", MinGroupMembers))
	}
	if len(members) > MaxGroupMembers {
		return nil, errs.Invariant(fmt.Sprintf("Group members limit reached (%d)", MaxGroupMembers))
	}
	if err := s.ensureUsersExist(members); err != nil {
		return nil, err
	}

	chat := &models.Chat{
		Name:      name,
		IsGroup:   true,
		CreatorID: creatorID,
		Members:   members,
	}
	if err := s.store.CreateChat(chat); err != nil {
		return nil, err
	}

	s.router.Emit(members, events.Alert, events.AlertPayload{
		ChatID:  chat.ID,
		Message: fmt.Sprintf("Welcome to %s group", name),
	})
	s.router.Emit(lo.Without(members, creatorID), events.RefetchChats, nil)
	return chat, nil
}

// NewDirectChat creates a 1:1 chat between two distinct users. Direct
// chats have no name and no creator-authorization semantics.
func (s *Service) NewDirectChat(a, b int) (*models.Chat, error) {
	if a == b {
		return nil, errs.Invariant("Cannot create a chat with yourself")
	}
	if err := s.ensureUsersExist([]int{a, b}); err != nil {
		return nil, err
	}

	chat := &models.Chat{Members: []int{a, b}}
	if err := s.store.CreateChat(chat); err != nil {
		return nil, err
	}

	s.router.Emit(chat.Members, events.RefetchChats, nil)
	return chat, nil
}

// AddMembers adds deduplicated candidates to a group. Creator only; the
// whole operation fails before mutating state if the resulting size would
// exceed MaxGroupMembers.
func (s *Service) AddMembers(requesterID, chatID int, memberIDs []int) error {
	defer s.locks.lock(chatID)()

	chat, err := s.groupForMutation(chatID, requesterID, "You are not allowed to add members")
	if err != nil {
		return err
	}

	newIDs := lo.Uniq(lo.Filter(memberIDs, func(id int, _ int) bool {
		return !lo.Contains(chat.Members, id)
	}))
	if len(newIDs) == 0 {
		return errs.Invariant("No new members to add")
	}
	if err := s.ensureUsersExist(newIDs); err != nil {
		return err
	}
	if len(chat.Members)+len(newIDs) > MaxGroupMembers {
		return errs.Invariant(fmt.Sprintf("Group members limit reached (%d)", MaxGroupMembers))
	}

	if err := s.store.AddParticipants(chatID, newIDs); err != nil {
		return err
	}

	all := append(chat.Members, newIDs...)
	s.router.Emit(all, events.Alert, events.AlertPayload{
		ChatID:  chatID,
		Message: fmt.Sprintf("%s added to %s", s.usernameList(newIDs), chat.Name),
	})
	s.router.Emit(all, events.RefetchChats, nil)
	return nil
}

// RemoveMember removes the target unconditionally (no minimum-size check
// on removal). Creator only.
func (s *Service) RemoveMember(requesterID, chatID, userID int) error {
	defer s.locks.lock(chatID)()

	chat, err := s.groupForMutation(chatID, requesterID, "You are not allowed to remove members")
	if err != nil {
		return err
	}
	if !lo.Contains(chat.Members, userID) {
		return errs.NotFound("User is not a member of this chat")
	}

	if err := s.store.RemoveParticipant(chatID, userID); err != nil {
		return err
	}

	remaining := lo.Without(chat.Members, userID)
	s.router.Emit(remaining, events.Alert, events.AlertPayload{
		ChatID:  chatID,
		Message: fmt.Sprintf("%s has been removed from %s", s.usernameList([]int{userID}), chat.Name),
	})
	s.router.Emit(remaining, events.RefetchChats, nil)
	return nil
}

// LeaveGroup removes the requester. The resulting membership must still
// hold MinGroupMembers; a departing creator hands off to a uniform-random
// successor among the remaining members before the leave is committed.
func (s *Service) LeaveGroup(requesterID, chatID int) error {
	defer s.locks.lock(chatID)()

	chat, err := s.getChat(chatID)
	if err != nil {
		return err
	}
	if !chat.IsGroup {
		return errs.Invariant("This is not a group chat")
	}
	if !lo.Contains(chat.Members, requesterID) {
		return errs.Forbidden("You are not a member of this chat")
	}

	remaining := lo.Without(chat.Members, requesterID)
	if len(remaining) < MinGroupMembers {
		return errs.Invariant(fmt.Sprintf("Group must have at least %d members", MinGroupMembers))
	}

	if chat.CreatorID == requesterID {
		successor := remaining[s.pick(len(remaining))]
		if err := s.store.SetCreator(chatID, successor); err != nil {
			return err
		}
	}
	if err := s.store.RemoveParticipant(chatID, requesterID); err != nil {
		return err
	}

	s.router.Emit(remaining, events.Alert, events.AlertPayload{
		ChatID:  chatID,
		Message: fmt.Sprintf("%s has left the group", s.usernameList([]int{requesterID})),
	})
	return nil
}

// Rename replaces the group name. Creator only; refresh signal only.
func (s *Service) Rename(requesterID, chatID int, name string) error {
	defer s.locks.lock(chatID)()

	chat, err := s.groupForMutation(chatID, requesterID, "Only creator can rename group")
	if err != nil {
		return err
	}

	if err := s.store.RenameChat(chatID, name); err != nil {
		return err
	}

	s.router.Emit(chat.Members, events.RefetchChats, nil)
	return nil
}

// Delete removes the chat, its history, and its stored attachments.
// Creator only for groups; either member for direct chats. Blob cleanup
// is best-effort and never blocks the deletion itself.
func (s *Service) Delete(requesterID, chatID int) error {
	defer s.locks.lock(chatID)()

	chat, err := s.getChat(chatID)
	if err != nil {
		return err
	}
	if chat.IsGroup {
		if chat.CreatorID != requesterID {
			return errs.Forbidden("Only creator can delete group")
		}
	} else if !lo.Contains(chat.Members, requesterID) {
		return errs.Forbidden("You are not a member of this chat")
	}

	keys, err := s.store.ChatAttachmentKeys(chatID)
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		if err := s.blobs.DeleteMany(keys); err != nil {
			// Orphaned blobs are harmless; the chat deletion proceeds.
			log.Printf("Error deleting blobs for chat %d: %v", chatID, err)
		}
	}

	if err := s.store.DeleteChat(chatID); err != nil {
		return err
	}

	s.router.Emit(chat.Members, events.RefetchChats, nil)
	return nil
}

// SendMessage is the durable message path: upload attachments
// (all-or-nothing), persist, then emit NEW_MESSAGE and NEW_MESSAGE_ALERT
// to the membership.
func (s *Service) SendMessage(senderID, chatID int, content string, files []storage.File) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(files) == 0 {
		return nil, errs.Invariant("Message cannot be empty")
	}
	if content != "" && len(files) > 0 {
		return nil, errs.Invariant("Message cannot mix text and attachments")
	}
	if len(files) > MaxAttachments {
		return nil, errs.Invariant(fmt.Sprintf("Files can't be more than %d", MaxAttachments))
	}

	chat, err := s.getChat(chatID)
	if err != nil {
		return nil, err
	}
	if !lo.Contains(chat.Members, senderID) {
		return nil, errs.Forbidden("Not authorized for this chat")
	}

	var attachments []models.Attachment
	if len(files) > 0 {
		attachments, err = storage.UploadAll(s.blobs, files)
		if err != nil {
			// Nothing was persisted; the whole message creation aborts.
			return nil, errs.Storage("Error uploading files")
		}
	}

	sender, err := s.store.GetUserByID(senderID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ChatID:      chatID,
		SenderID:    senderID,
		Sender:      sender.Username,
		Content:     content,
		Attachments: attachments,
	}
	if err := s.store.SaveMessage(msg); err != nil {
		return nil, err
	}

	s.router.Emit(chat.Members, events.NewMessage, events.MessagePayload{ChatID: chatID, Message: msg})
	s.router.Emit(chat.Members, events.NewMessageAlert, events.ChatPayload{ChatID: chatID})
	return msg, nil
}

// Messages returns the page-th most-recent window in chronological order
// plus the total page count. Membership-gated.
func (s *Service) Messages(requesterID, chatID, page int) ([]models.Message, int, error) {
	chat, err := s.getChat(chatID)
	if err != nil {
		return nil, 0, err
	}
	if !lo.Contains(chat.Members, requesterID) {
		return nil, 0, errs.Forbidden("Not authorized for this chat")
	}
	return s.store.ChatMessages(chatID, page, PageSize)
}

// ChatByID returns a chat the requester belongs to.
func (s *Service) ChatByID(requesterID, chatID int) (*models.Chat, error) {
	chat, err := s.getChat(chatID)
	if err != nil {
		return nil, err
	}
	if !lo.Contains(chat.Members, requesterID) {
		return nil, errs.Forbidden("Not authorized for this chat")
	}
	return chat, nil
}

func (s *Service) UserChats(userID int) ([]models.Chat, error) {
	return s.store.GetUserChats(userID)
}

// UserGroups lists the groups the user created, the set they are allowed
// to manage.
func (s *Service) UserGroups(userID int) ([]models.Chat, error) {
	return s.store.GetUserGroups(userID)
}

func (s *Service) getChat(chatID int) (*models.Chat, error) {
	chat, err := s.store.GetChat(chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("Chat not found")
	}
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// groupForMutation loads the chat and runs the shared group/creator
// authorization gate. All checks happen before any mutation.
func (s *Service) groupForMutation(chatID, requesterID int, forbiddenMsg string) (*models.Chat, error) {
	chat, err := s.getChat(chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroup {
		return nil, errs.Invariant("This is not a group chat")
	}
	if chat.CreatorID != requesterID {
		return nil, errs.Forbidden(forbiddenMsg)
	}
	return chat, nil
}

// ensureUsersExist resolves every id against the user table so no
// membership mutation can reference a nonexistent user.
func (s *Service) ensureUsersExist(ids []int) error {
	names, err := s.store.GetUsernames(ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			return errs.NotFound(fmt.Sprintf("User %d not found", id))
		}
	}
	return nil
}

// usernameList renders ids as a comma-separated name list for alerts,
// falling back to the id when the lookup fails.
func (s *Service) usernameList(ids []int) string {
	names, err := s.store.GetUsernames(ids)
	if err != nil {
		log.Printf("Error resolving usernames: %v", err)
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			out = append(out, name)
		} else {
			out = append(out, fmt.Sprintf("user %d", id))
		}
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}
