package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/buildhive/buildhive-backend/internal/config"
	"github.com/buildhive/buildhive-backend/internal/engine"
	"github.com/buildhive/buildhive-backend/internal/services"
	"github.com/buildhive/buildhive-backend/internal/store"
)

// Package-level collaborators, wired once from main.
var (
	cfg    *config.Config
	db     *store.Store
	eng    *engine.Engine
	tokens *services.TokenService
	mailer *services.Mailer
)

// Init wires the handler package. mailerSvc may be nil (emails skipped).
func Init(c *config.Config, s *store.Store, e *engine.Engine, t *services.TokenService, mailerSvc *services.Mailer) {
	cfg = c
	db = s
	eng = e
	tokens = t
	mailer = mailerSvc
}

// Response is the JSON envelope every handler writes.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Response{Success: false, Message: message})
}

// respondEngineError maps the engine's error taxonomy to HTTP. AccessDenied
// is deliberately indistinguishable from NotFound so callers cannot probe
// for projects they have no relationship to.
func respondEngineError(w http.ResponseWriter, err error) {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, engine.ErrAccessDenied):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, engine.ErrConflict):
		respondError(w, http.StatusConflict, "Already exists")
	default:
		log.Printf("ERROR: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
