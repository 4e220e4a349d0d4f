package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/middleware"
	"github.com/buildhive/buildhive-backend/internal/models"
	"github.com/buildhive/buildhive-backend/internal/services"
)

// MessagesResponse is one page of the project thread's chat messages.
type MessagesResponse struct {
	Success  bool                        `json:"success"`
	Messages []models.CommunicationEntry `json:"messages"`
	Total    int                         `json:"total"`
	Page     int                         `json:"page"`
	Limit    int                         `json:"limit"`
}

// ListMessages returns paginated chat messages for a project.
// Query params: page (default 1), limit (default 50, max 100).
func ListMessages(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	page := 1
	if pStr := r.URL.Query().Get("page"); pStr != "" {
		if parsed, err := strconv.Atoi(pStr); err == nil && parsed > 0 {
			page = parsed
		}
	}
	limit := 50
	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if parsed, err := strconv.Atoi(lStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	messages, total, err := eng.ListMessages(r.Context(), actor, id, page, limit)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, MessagesResponse{
		Success:  true,
		Messages: messages,
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

type PostMessageRequest struct {
	Type        models.EntryType `json:"type,omitempty"` // message (default), file or milestone
	Content     string           `json:"content"`
	Attachments []string         `json:"attachments,omitempty"`
}

// PostMessage appends an entry to the project thread. status-update entries
// are written by the engine only and cannot be posted directly.
func PostMessage(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Type == "" {
		req.Type = models.EntryMessage
	}
	if req.Type == models.EntryStatusUpdate {
		respondError(w, http.StatusBadRequest, "type: status-update entries are reserved")
		return
	}

	entry, err := eng.AppendCommunication(r.Context(), actor, id, req.Type, req.Content, req.Attachments)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	_ = services.PublishProjectEvent(r.Context(), services.ProjectEvent{
		Type:        services.EventTypeMessage,
		ProjectID:   id.Hex(),
		EntryID:     entry.ID.Hex(),
		EntryType:   string(entry.Type),
		UserID:      actor.ID.Hex(),
		Content:     entry.Content,
		Attachments: entry.Attachments,
		Timestamp:   entry.Timestamp,
	})

	respondJSON(w, http.StatusCreated, Response{Success: true, Message: "Message sent", Data: entry})
}

// MarkMessageRead records a read receipt. Calling it again for the same
// entry is a no-op.
func MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	entryID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "entryID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}

	if err := eng.MarkRead(r.Context(), actor, id, entryID); err != nil {
		respondEngineError(w, err)
		return
	}

	_ = services.PublishProjectEvent(r.Context(), services.ProjectEvent{
		Type:      services.EventTypeRead,
		ProjectID: id.Hex(),
		EntryID:   entryID.Hex(),
		UserID:    actor.ID.Hex(),
	})

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Marked as read"})
}

// UnreadCount returns how many chat messages the caller has not read yet.
func UnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	count, err := eng.UnreadCount(r.Context(), actor, id)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: map[string]int{"unread": count}})
}
