package main

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rgoyal/huddle/internal/auth"
	"github.com/rgoyal/huddle/internal/chat"
	"github.com/rgoyal/huddle/internal/config"
	"github.com/rgoyal/huddle/internal/events"
	"github.com/rgoyal/huddle/internal/handlers"
	"github.com/rgoyal/huddle/internal/middleware"
	"github.com/rgoyal/huddle/internal/registry"
	"github.com/rgoyal/huddle/internal/storage"
	"github.com/rgoyal/huddle/internal/store/sqlstore"
	"github.com/rgoyal/huddle/internal/ws"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	store, err := sqlstore.New(cfg.DBDriver, cfg.DBSource)
	if err != nil {
		log.Fatal(err)
	}

	blobs, err := storage.NewDiskStore(cfg.BlobDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatal(err)
	}

	// Live-connection plumbing: registry holds who is connected, router
	// fans events out to them.
	reg := registry.New()
	router := events.NewRouter(reg)

	service := chat.NewService(store, blobs, router)

	authHandler := &handlers.AuthHandler{Store: store}
	chatHandler := &handlers.ChatHandler{Service: service}

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)

	// Auth boundary
	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/users/search", authHandler.SearchUsers).Methods("GET")

	// Chat mutation boundary
	api := r.NewRoute().Subrouter()
	api.Use(middleware.AuthMiddleware)
	api.HandleFunc("/chats", chatHandler.GetChats).Methods("GET")
	api.HandleFunc("/chats/group", chatHandler.CreateGroup).Methods("POST")
	api.HandleFunc("/chats/direct", chatHandler.CreateDirect).Methods("POST")
	api.HandleFunc("/chats/groups", chatHandler.GetGroups).Methods("GET")
	api.HandleFunc("/chats/{id}", chatHandler.GetChat).Methods("GET")
	api.HandleFunc("/chats/{id}", chatHandler.Rename).Methods("PUT")
	api.HandleFunc("/chats/{id}", chatHandler.DeleteChat).Methods("DELETE")
	api.HandleFunc("/chats/{id}/members", chatHandler.AddMembers).Methods("POST")
	api.HandleFunc("/chats/{id}/members/{userId}", chatHandler.RemoveMember).Methods("DELETE")
	api.HandleFunc("/chats/{id}/leave", chatHandler.LeaveGroup).Methods("POST")
	api.HandleFunc("/chats/{id}/messages", chatHandler.GetMessages).Methods("GET")
	api.HandleFunc("/chats/{id}/messages", chatHandler.SendMessage).Methods("POST")
	api.HandleFunc("/chats/{id}/attachments", chatHandler.SendAttachments).Methods("POST")

	// WebSocket endpoint
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("user_id")
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		value, err := auth.VerifyCookie(cookie.Value)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		userID, err := strconv.Atoi(value)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ws.ServeWs(reg, router, w, r, userID)
	})

	// Stored attachments
	r.PathPrefix("/blobs/").Handler(
		http.StripPrefix("/blobs/", http.FileServer(http.Dir(cfg.BlobDir))))

	log.Println("Starting server on", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, r))
}
