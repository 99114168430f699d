package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/huzaifa003/docuchat/internal/blob"
	"github.com/huzaifa003/docuchat/internal/middleware"
	"github.com/huzaifa003/docuchat/internal/models"
	"github.com/huzaifa003/docuchat/internal/repository"

	"github.com/gorilla/mux"
)

// Handler handles HTTP requests. Identity arrives via middleware; every
// operation below is scoped to that user.
type Handler struct {
	docRepo      *repository.DocumentRepositoryImpl
	convoRepo    *repository.ConversationRepositoryImpl
	blobStore    *blob.Store
	vectorIndex  VectorIndex
	ingestion    IngestionService
	conversation ConversationService
}

func NewHandler(
	docRepo *repository.DocumentRepositoryImpl,
	convoRepo *repository.ConversationRepositoryImpl,
	blobStore *blob.Store,
	vectorIndex VectorIndex,
	ingestion IngestionService,
	conversation ConversationService,
) *Handler {
	return &Handler{
		docRepo:      docRepo,
		convoRepo:    convoRepo,
		blobStore:    blobStore,
		vectorIndex:  vectorIndex,
		ingestion:    ingestion,
		conversation: conversation,
	}
}

// Document handlers

// UploadDocument accepts a multipart PDF upload, stores it and runs the
// full ingestion pipeline before responding.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	originalName := header.Filename
	if originalName == "" {
		originalName = "uploaded.pdf"
	}

	path, err := h.blobStore.SaveUpload(file, originalName)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	doc := &models.Document{
		OwnerID:      userID,
		OriginalName: originalName,
		StoragePath:  path,
	}
	if err := h.docRepo.Create(r.Context(), doc); err != nil {
		_ = h.blobStore.Remove(path)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stored, err := h.ingestion.Ingest(r.Context(), userID, doc.ID, path)
	if err != nil {
		// Nothing was indexed; roll the upload back so a broken file
		// does not linger as an empty document.
		if delErr := h.docRepo.Delete(r.Context(), doc.ID, userID); delErr != nil {
			log.Printf("failed to roll back document %s: %v", doc.ID, delErr)
		}
		_ = h.blobStore.Remove(path)

		if errors.Is(err, models.ErrSourceUnreadable) {
			respondError(w, http.StatusBadRequest, "Could not read the uploaded PDF")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"document":       doc,
		"chunks_indexed": stored,
	})
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	documents, err := h.docRepo.ListByOwner(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"documents": documents})
}

// DeleteDocument purges the document's vector-index entries, its stored
// file and finally the record itself.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := mux.Vars(r)["id"]

	doc, err := h.docRepo.GetOwned(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Document not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.vectorIndex.DeleteDocument(r.Context(), userID, doc.ID); err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	if err := h.blobStore.Remove(doc.StoragePath); err != nil {
		log.Printf("failed to remove blob for document %s: %v", doc.ID, err)
	}

	if err := h.docRepo.Delete(r.Context(), doc.ID, userID); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Conversation handlers

func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	convo := &models.Conversation{
		OwnerID: userID,
		Title:   req.Title,
	}
	if err := h.convoRepo.Create(r.Context(), convo); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, convo)
}

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convos, err := h.convoRepo.ListByOwner(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"conversations": convos})
}

// GetConversation returns the conversation together with its messages in
// display order.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := mux.Vars(r)["id"]

	convo, err := h.convoRepo.GetOwned(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	messages, err := h.convoRepo.ListMessages(r.Context(), convo.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"conversation": convo,
		"messages":     messages,
	})
}

func (h *Handler) RenameConversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := mux.Vars(r)["id"]

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	convo, err := h.convoRepo.Rename(r.Context(), id, userID, req.Title)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, convo)
}

func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.convoRepo.Delete(r.Context(), id, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateMessage runs one question/answer turn in the conversation.
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID := mux.Vars(r)["id"]

	var req struct {
		Message     string   `json:"message"`
		TopK        int      `json:"top_k"`
		DocumentIDs []string `json:"document_ids"`
		DocumentID  string   `json:"document_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	question := strings.TrimSpace(req.Message)
	if question == "" {
		respondError(w, http.StatusBadRequest, "message required")
		return
	}

	// Accept a single id or a list.
	docIDs := req.DocumentIDs
	if len(docIDs) == 0 && strings.TrimSpace(req.DocumentID) != "" {
		docIDs = []string{strings.TrimSpace(req.DocumentID)}
	}

	assistant, hits, err := h.conversation.Ask(r.Context(), userID, conversationID, question, req.TopK, docIDs)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			respondError(w, http.StatusNotFound, "Conversation not found")
		case errors.Is(err, models.ErrUnauthorizedScope):
			respondError(w, http.StatusBadRequest, "No matching documents owned by user.")
		case errors.Is(err, models.ErrIndexUnavailable):
			respondError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, models.ErrSynthesisFailed):
			respondError(w, http.StatusBadGateway, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"assistant": assistant,
		"retrieved": hits,
	})
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
