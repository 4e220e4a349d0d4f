package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/engine"
	"github.com/buildhive/buildhive-backend/internal/middleware"
	"github.com/buildhive/buildhive-backend/internal/models"
	"github.com/buildhive/buildhive-backend/internal/services"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// ChatClientMessage represents frames coming from the frontend over WebSocket.
type ChatClientMessage struct {
	Type        string   `json:"type"` // "message", "read", "ping"
	Content     string   `json:"content,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
	EntryID     string   `json:"entry_id,omitempty"`
}

// ProjectChatWebSocket is the realtime gateway for a project thread.
// Authentication uses the same bearer token as the REST API; browser clients
// may pass it as a `token` query parameter. The connection is bound to one
// project via `project_id`.
func ProjectChatWebSocket(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
	}

	claims, err := tokens.Verify(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	uid, err := primitive.ObjectIDFromHex(claims.UID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	actor := engine.Actor{ID: uid, Role: models.Role(claims.Role)}

	projectIDHex := r.URL.Query().Get("project_id")
	projID, err := primitive.ObjectIDFromHex(projectIDHex)
	if err != nil {
		respondError(w, http.StatusBadRequest, "project_id is required")
		return
	}

	// The thread predicate gates the socket: owner or assigned developer only.
	project, err := db.ProjectByID(r.Context(), projID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if !engine.CanAccessThread(actor, project) {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}

	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, unsubscribe := services.SubscribeProject(projID.Hex())
	defer unsubscribe()

	// Writer goroutine: forward hub events to this connection.
	go func() {
		for evt := range events {
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
	}()

	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))

		var msg ChatClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "message":
			entry, err := eng.AppendCommunication(r.Context(), actor, projID, models.EntryMessage, msg.Content, msg.Attachments)
			if err != nil {
				_ = conn.WriteJSON(map[string]interface{}{"type": "error", "message": err.Error()})
				continue
			}
			_ = services.PublishProjectEvent(r.Context(), services.ProjectEvent{
				Type:        services.EventTypeMessage,
				ProjectID:   projID.Hex(),
				EntryID:     entry.ID.Hex(),
				EntryType:   string(entry.Type),
				UserID:      actor.ID.Hex(),
				Content:     entry.Content,
				Attachments: entry.Attachments,
				Timestamp:   entry.Timestamp,
			})
		case "read":
			entryID, err := primitive.ObjectIDFromHex(msg.EntryID)
			if err != nil {
				continue
			}
			if err := eng.MarkRead(r.Context(), actor, projID, entryID); err != nil {
				continue
			}
			_ = services.PublishProjectEvent(r.Context(), services.ProjectEvent{
				Type:      services.EventTypeRead,
				ProjectID: projID.Hex(),
				EntryID:   entryID.Hex(),
				UserID:    actor.ID.Hex(),
			})
		case "ping":
			_ = conn.WriteJSON(map[string]string{"type": services.EventTypePong})
		}
	}
}
