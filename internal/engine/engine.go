// Package engine owns the project lifecycle: the status state machine, the
// embedded communication thread and the access rules that gate both. All
// route handlers go through this package; none of them talk to the store or
// re-derive authorization on their own.
package engine

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/models"
)

// Store is the persistence surface the engine needs. The Mongo
// implementation lives in internal/store; tests use an in-memory one.
//
// Atomicity contract: TransitionProject and CreditProjectBudget apply their
// field updates and the thread append in a single document update,
// MarkEntryRead must not produce a duplicate receipt even when called
// concurrently, and MarkPaymentEventProcessed returns ErrConflict for an
// event id it has seen before.
type Store interface {
	ProjectByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)

	InsertProject(ctx context.Context, p *models.Project) error
	UpdateProjectFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) error
	TransitionProject(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}, entry models.CommunicationEntry) error
	AppendCommunication(ctx context.Context, id primitive.ObjectID, entry models.CommunicationEntry) error
	MarkEntryRead(ctx context.Context, projectID, entryID primitive.ObjectID, receipt models.ReadReceipt) error
	CreditProjectBudget(ctx context.Context, id primitive.ObjectID, amount float64, entry models.CommunicationEntry) error
	MarkPaymentEventProcessed(ctx context.Context, eventID string) error
	DeleteProject(ctx context.Context, id primitive.ObjectID) error
}

// Actor is the authenticated identity a request acts as.
type Actor struct {
	ID   primitive.ObjectID
	Role models.Role
}

type Engine struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Engine {
	return &Engine{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// GetProject loads a project the actor is allowed to see.
func (e *Engine) GetProject(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Project, error) {
	p, err := e.store.ProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, p) {
		return nil, ErrAccessDenied
	}
	return p, nil
}
