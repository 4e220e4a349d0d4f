package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/middleware"
	"github.com/buildhive/buildhive-backend/internal/models"
)

// AdminStats is the dashboard summary.
type AdminStats struct {
	TotalUsers       int64                          `json:"total_users"`
	UsersByRole      map[models.Role]int64          `json:"users_by_role"`
	TotalProjects    int64                          `json:"total_projects"`
	ProjectsByStatus map[models.ProjectStatus]int64 `json:"projects_by_status"`
}

// GetAdminStats returns platform-wide counts for the dashboard.
func GetAdminStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := AdminStats{
		UsersByRole:      make(map[models.Role]int64),
		ProjectsByStatus: make(map[models.ProjectStatus]int64),
	}

	total, err := db.CountUsers(ctx, "")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	stats.TotalUsers = total

	for _, role := range []models.Role{models.RoleUser, models.RoleDeveloper, models.RoleAdmin} {
		n, err := db.CountUsers(ctx, role)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to load stats")
			return
		}
		stats.UsersByRole[role] = n
	}

	totalProjects, err := db.CountProjects(ctx, "")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	stats.TotalProjects = totalProjects

	for _, status := range []models.ProjectStatus{
		models.StatusDraft, models.StatusPrototype, models.StatusInDevelopment,
		models.StatusTesting, models.StatusDeployed, models.StatusCancelled,
	} {
		n, err := db.CountProjects(ctx, status)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to load stats")
			return
		}
		stats.ProjectsByStatus[status] = n
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: stats})
}

// GetUsers lists users, optionally filtered by ?role=.
func GetUsers(w http.ResponseWriter, r *http.Request) {
	role := models.Role(strings.TrimSpace(r.URL.Query().Get("role")))
	if role != "" && !role.Valid() {
		respondError(w, http.StatusBadRequest, "role: unknown role")
		return
	}

	users, err := db.ListUsers(r.Context(), role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load users")
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: users})
}

// GetAllProjects lists projects across all owners, optionally filtered by
// ?status=.
func GetAllProjects(w http.ResponseWriter, r *http.Request) {
	status := models.ProjectStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !status.Valid() {
		respondError(w, http.StatusBadRequest, "status: unknown status")
		return
	}

	projects, err := db.ListProjects(r.Context(), status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load projects")
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: projects})
}

// UpdateUserRole changes a user's role (e.g. promoting a developer).
func UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string      `json:"user_id"`
		Role   models.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Role.Valid() {
		respondError(w, http.StatusBadRequest, "role: unknown role")
		return
	}
	userID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.UserID))
	if err != nil {
		respondError(w, http.StatusBadRequest, "user_id: invalid id")
		return
	}

	if err := db.UpdateUserFields(r.Context(), userID, map[string]interface{}{"role": req.Role}); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Role updated"})
}

// UnblockIP lifts a temporary rate-limit block on an IP.
func UnblockIP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.IP = strings.TrimSpace(req.IP)
	if net.ParseIP(req.IP) == nil {
		respondError(w, http.StatusBadRequest, "ip: invalid address")
		return
	}

	if err := middleware.UnblockIP(req.IP); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to unblock IP")
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "IP unblocked"})
}
