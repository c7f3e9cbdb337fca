package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rgoyal/huddle/internal/chat"
	"github.com/rgoyal/huddle/internal/middleware"
	"github.com/rgoyal/huddle/internal/models"
	"github.com/rgoyal/huddle/internal/storage"
)

// maxUploadBytes bounds one multipart attachment request.
const maxUploadBytes = 25 << 20

type ChatHandler struct {
	Service *chat.Service
}

type CreateGroupRequest struct {
	Name    string `json:"name" validate:"required"`
	Members []int  `json:"members" validate:"required,min=2"`
}

type CreateDirectRequest struct {
	UserID int `json:"user_id" validate:"required"`
}

type AddMembersRequest struct {
	Members []int `json:"members" validate:"required,min=1"`
}

type RenameRequest struct {
	Name string `json:"name" validate:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

func (h *ChatHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID := requesterID(r)

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Name and at least 2 members are required", http.StatusBadRequest)
		return
	}

	created, err := h.Service.NewGroupChat(userID, req.Name, req.Members)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		response
		Chat *models.Chat `json:"chat"`
	}{response{Success: true, Message: "Group Created"}, created})
}

func (h *ChatHandler) CreateDirect(w http.ResponseWriter, r *http.Request) {
	userID := requesterID(r)

	var req CreateDirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	created, err := h.Service.NewDirectChat(userID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		response
		Chat *models.Chat `json:"chat"`
	}{response{Success: true, Message: "Chat created"}, created})
}

func (h *ChatHandler) GetChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.Service.UserChats(requesterID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool          `json:"success"`
		Chats   []models.Chat `json:"chats"`
	}{true, chats})
}

// GetGroups lists only the groups the requester created.
func (h *ChatHandler) GetGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.UserGroups(requesterID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if groups == nil {
		groups = []models.Chat{}
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool          `json:"success"`
		Groups  []models.Chat `json:"groups"`
	}{true, groups})
}

func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	got, err := h.Service.ChatByID(requesterID(r), chatID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool         `json:"success"`
		Chat    *models.Chat `json:"chat"`
	}{true, got})
}

func (h *ChatHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	if err := h.Service.Rename(requesterID(r), chatID(r), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Group renamed successfully")
}

func (h *ChatHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	var req AddMembersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "At least one member is required", http.StatusBadRequest)
		return
	}

	if err := h.Service.AddMembers(requesterID(r), chatID(r), req.Members); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Members added successfully")
}

func (h *ChatHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	target, _ := strconv.Atoi(mux.Vars(r)["userId"])

	if err := h.Service.RemoveMember(requesterID(r), chatID(r), target); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Member removed successfully")
}

func (h *ChatHandler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.LeaveGroup(requesterID(r), chatID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Left group successfully")
}

func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(requesterID(r), chatID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Chat deleted successfully")
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.Service.SendMessage(requesterID(r), chatID(r), req.Content, nil)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool            `json:"success"`
		Message *models.Message `json:"message"`
	}{true, msg})
}

// SendAttachments accepts a multipart form with 1-5 "files" parts.
func (h *ChatHandler) SendAttachments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	parts := r.MultipartForm.File["files"]
	if len(parts) < 1 {
		http.Error(w, "Please upload at least one file", http.StatusBadRequest)
		return
	}

	files := make([]storage.File, 0, len(parts))
	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}
		files = append(files, storage.File{
			Name:        part.Filename,
			ContentType: part.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	msg, err := h.Service.SendMessage(requesterID(r), chatID(r), "", files)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool            `json:"success"`
		Message *models.Message `json:"message"`
	}{true, msg})
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	messages, totalPages, err := h.Service.Messages(requesterID(r), chatID(r), page)
	if err != nil {
		writeError(w, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	writeJSON(w, http.StatusOK, struct {
		Success    bool             `json:"success"`
		Messages   []models.Message `json:"messages"`
		TotalPages int              `json:"total_pages"`
	}{true, messages, totalPages})
}

func requesterID(r *http.Request) int {
	id, _ := r.Context().Value(middleware.UserIDKey).(int)
	return id
}

func chatID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}
