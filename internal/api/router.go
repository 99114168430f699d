package api

import (
	"net/http"

	"github.com/huzaifa003/docuchat/internal/middleware"

	"github.com/gorilla/mux"
)

func SetupRoutes(h *Handler) *mux.Router {
	r := mux.NewRouter()

	// Middleware order: tracing first, then recovery, then CORS.
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.ErrorRecoveryMiddleware)
	r.Use(middleware.CORSMiddleware)

	// Health check stays outside the identity requirement.
	r.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.IdentityMiddleware)

	// Document endpoints
	api.HandleFunc("/documents", h.UploadDocument).Methods("POST")
	api.HandleFunc("/documents", h.ListDocuments).Methods("GET")
	api.HandleFunc("/documents/{id}", h.DeleteDocument).Methods("DELETE")

	// Conversation endpoints
	api.HandleFunc("/conversations", h.CreateConversation).Methods("POST")
	api.HandleFunc("/conversations", h.ListConversations).Methods("GET")
	api.HandleFunc("/conversations/{id}", h.GetConversation).Methods("GET")
	api.HandleFunc("/conversations/{id}", h.RenameConversation).Methods("PUT")
	api.HandleFunc("/conversations/{id}", h.DeleteConversation).Methods("DELETE")
	api.HandleFunc("/conversations/{id}/messages", h.CreateMessage).Methods("POST")

	return r
}
