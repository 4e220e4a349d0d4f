package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/models"
)

func TestRecordPaymentIncrementsBudget(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	p := seedProject(s, owner.ID, models.StatusInDevelopment)
	p.Budget = models.Budget{Planned: 500, Actual: 100}

	entry, err := e.RecordPayment(context.Background(), "evt_1", p.ID, 50, "usd")
	require.NoError(t, err)
	assert.Equal(t, models.EntryMilestone, entry.Type)
	assert.Equal(t, "Payment received: USD 50.00", entry.Content)
	assert.Equal(t, owner.ID, entry.Author)

	// A second payment adds to the first instead of overwriting it.
	_, err = e.RecordPayment(context.Background(), "evt_2", p.ID, 50, "usd")
	require.NoError(t, err)

	stored, err := s.ProjectByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, stored.Budget.Actual)
	require.Len(t, stored.Communication, 2)
}

func TestRecordPaymentSkipsRedeliveredEvent(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	p := seedProject(s, owner.ID, models.StatusInDevelopment)
	p.Budget = models.Budget{Planned: 500, Actual: 100}

	_, err := e.RecordPayment(context.Background(), "evt_1", p.ID, 50, "usd")
	require.NoError(t, err)

	_, err = e.RecordPayment(context.Background(), "evt_1", p.ID, 50, "usd")
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := s.ProjectByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, stored.Budget.Actual)
	assert.Len(t, stored.Communication, 1)
}

func TestRecordPaymentUnknownProject(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	p := seedProject(s, owner.ID, models.StatusInDevelopment)

	_, err := e.RecordPayment(context.Background(), "evt_1", primitive.NewObjectID(), 50, "usd")
	assert.ErrorIs(t, err, ErrNotFound)

	// The failed delivery did not consume the event id.
	_, err = e.RecordPayment(context.Background(), "evt_1", p.ID, 50, "usd")
	require.NoError(t, err)
}
