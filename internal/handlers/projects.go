package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/engine"
	"github.com/buildhive/buildhive-backend/internal/middleware"
	"github.com/buildhive/buildhive-backend/internal/models"
	"github.com/buildhive/buildhive-backend/internal/services"
)

// projectID parses the {id} URL parameter. An unparseable id behaves like a
// missing project.
func projectID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

type CreateProjectRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Category    models.ProjectCategory `json:"category"`
	Priority    models.Priority        `json:"priority"`
	Features    []models.Feature       `json:"features,omitempty"`
	Budget      models.Budget          `json:"budget"`
	Timeline    models.Timeline        `json:"timeline"`
	AIPrompt    string                 `json:"ai_prompt,omitempty"`
}

// CreateProject creates a draft project owned by the caller.
func CreateProject(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	project, err := eng.CreateProject(r.Context(), actor, engine.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Features:    req.Features,
		Budget:      req.Budget,
		Timeline:    req.Timeline,
		AIPrompt:    req.AIPrompt,
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{Success: true, Message: "Project created", Data: project})
}

// ListProjects returns the projects the caller owns or is assigned to.
func ListProjects(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())

	projects, err := db.ProjectsForUser(r.Context(), actor.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load projects")
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: projects})
}

// GetProject returns one project the caller may view.
func GetProject(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	project, err := eng.GetProject(r.Context(), actor, id)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: project})
}

type UpdateProjectRequest struct {
	Title       *string                 `json:"title,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Category    *models.ProjectCategory `json:"category,omitempty"`
	Priority    *models.Priority        `json:"priority,omitempty"`
	Features    *[]models.Feature       `json:"features,omitempty"`
	Budget      *models.Budget          `json:"budget,omitempty"`
	Timeline    *models.Timeline        `json:"timeline,omitempty"`
}

// UpdateProject applies owner-level field edits.
func UpdateProject(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	project, err := eng.UpdateProjectFields(r.Context(), actor, id, engine.UpdateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Features:    req.Features,
		Budget:      req.Budget,
		Timeline:    req.Timeline,
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Project updated", Data: project})
}

// DeleteProject removes a project (owner only).
func DeleteProject(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	if err := eng.DeleteProject(r.Context(), actor, id); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Project deleted"})
}

// TransitionStatus moves the project through its state machine.
func TransitionStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	var req struct {
		Status models.ProjectStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	project, err := eng.TransitionStatus(r.Context(), actor, id, req.Status)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	// Notify thread subscribers; delivery is best-effort.
	_ = services.PublishProjectEvent(r.Context(), services.ProjectEvent{
		Type:      services.EventTypeStatusUpdate,
		ProjectID: project.ID.Hex(),
		UserID:    actor.ID.Hex(),
		Status:    string(project.Status),
	})

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Status updated", Data: project})
}

// AssignDeveloper puts a developer on a project (admin only).
func AssignDeveloper(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	var req struct {
		DeveloperID string `json:"developer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	devID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.DeveloperID))
	if err != nil {
		respondError(w, http.StatusBadRequest, "developer_id: invalid id")
		return
	}

	project, err := eng.AssignDeveloper(r.Context(), actor, id, devID)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	_ = services.PublishProjectEvent(r.Context(), services.ProjectEvent{
		Type:      services.EventTypeAssigned,
		ProjectID: project.ID.Hex(),
		UserID:    devID.Hex(),
		Status:    string(project.Status),
	})

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Developer assigned", Data: project})
}

// SuggestProjectFeatures regenerates the feature list from a prompt,
// replacing the previous list as a whole.
func SuggestProjectFeatures(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	project, err := eng.RegenerateFeatures(r.Context(), actor, id, req.Prompt)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Features generated", Data: project})
}
