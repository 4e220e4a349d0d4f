package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/models"
)

// RecordPayment credits a successful payment against the project budget and
// drops a milestone entry into the thread, in one atomic increment so
// concurrent deliveries never lose a credit. eventID guards against the
// payment provider's at-least-once delivery: a redelivered event returns
// ErrConflict and credits nothing.
func (e *Engine) RecordPayment(ctx context.Context, eventID string, projectID primitive.ObjectID, amount float64, currency string) (*models.CommunicationEntry, error) {
	p, err := e.store.ProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := e.store.MarkPaymentEventProcessed(ctx, eventID); err != nil {
		return nil, err
	}

	entry := models.CommunicationEntry{
		ID:        primitive.NewObjectID(),
		Type:      models.EntryMilestone,
		Content:   fmt.Sprintf("Payment received: %s %s", strings.ToUpper(currency), strconv.FormatFloat(amount, 'f', 2, 64)),
		Author:    p.Owner,
		Timestamp: e.now(),
	}
	if err := e.store.CreditProjectBudget(ctx, projectID, amount, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
