package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildhive/buildhive-backend/internal/engine"
	"github.com/buildhive/buildhive-backend/internal/middleware"
	"github.com/buildhive/buildhive-backend/internal/models"
	"github.com/buildhive/buildhive-backend/pkg/utils"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"` // "user" (default) or "developer"
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the user document and a bearer token.
type AuthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *models.User `json:"user,omitempty"`
	Token   string       `json:"token,omitempty"`
}

// Register creates an account. Admin accounts cannot be self-registered.
func Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Name, email, and password are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	role := models.RoleUser
	if req.Role != "" {
		role = models.Role(req.Role)
		if role != models.RoleUser && role != models.RoleDeveloper {
			respondError(w, http.StatusBadRequest, "Role must be user or developer")
			return
		}
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	verificationToken := uuid.NewString()
	now := time.Now().UTC()
	user := &models.User{
		CreatedAt:         now,
		UpdatedAt:         now,
		Name:              req.Name,
		Email:             req.Email,
		Password:          hashedPassword,
		Avatar:            engine.DeriveAvatar(req.Name).DataURI,
		Role:              role,
		VerificationToken: &verificationToken,
	}

	if err := db.InsertUser(r.Context(), user); err != nil {
		if errors.Is(err, engine.ErrConflict) {
			respondError(w, http.StatusConflict, "User with this email already exists")
			return
		}
		log.Printf("ERROR: failed to create user: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	// Verification email is best-effort; the account works either way.
	if mailer != nil {
		if err := mailer.SendVerificationEmail(user.Email, user.Name, verificationToken); err != nil {
			log.Printf("⚠️  WARNING: failed to send verification email to %s: %v", user.Email, err)
		}
	} else {
		log.Println("⚠️  WARNING: mailer not configured, skipping verification email")
	}

	token, err := tokens.Issue(user.ID.Hex(), string(user.Role))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	respondJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "User created successfully",
		User:    user,
		Token:   token,
	})
}

// Login verifies credentials and issues a bearer token.
func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := db.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		respondError(w, http.StatusInternalServerError, "Database error")
		return
	}

	valid, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil || !valid {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := tokens.Issue(user.ID.Hex(), string(user.Role))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		User:    user,
		Token:   token,
	})
}

// Me returns the authenticated user's document.
func Me(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())
	user, err := db.UserByID(r.Context(), actor.ID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: user})
}

// VerifyEmail consumes a one-time verification token.
func VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		respondError(w, http.StatusBadRequest, "Token is required")
		return
	}

	user, err := db.UserByVerificationToken(r.Context(), strings.TrimSpace(req.Token))
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			respondError(w, http.StatusBadRequest, "Invalid or already used verification token")
			return
		}
		respondError(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := db.MarkUserVerified(r.Context(), user.ID); err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Email verified"})
}

// UpdateProfile renames the user. The avatar is re-derived so it stays a
// pure function of the current name.
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}

	fields := map[string]interface{}{
		"name":   req.Name,
		"avatar": engine.DeriveAvatar(req.Name).DataURI,
	}
	if err := db.UpdateUserFields(r.Context(), actor.ID, fields); err != nil {
		respondEngineError(w, err)
		return
	}

	user, err := db.UserByID(r.Context(), actor.ID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Profile updated", Data: user})
}

// ChangePassword verifies the current password before setting a new one.
func ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.NewPassword) < 8 {
		respondError(w, http.StatusBadRequest, "New password must be at least 8 characters")
		return
	}

	user, err := db.UserByID(r.Context(), actor.ID)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	valid, err := utils.VerifyPassword(req.CurrentPassword, user.Password)
	if err != nil || !valid {
		respondError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	if err := db.UpdateUserFields(r.Context(), actor.ID, map[string]interface{}{"password": hashed}); err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Password changed"})
}
