package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/engine"
	"github.com/buildhive/buildhive-backend/internal/models"
)

func TestIntentVisibleTo(t *testing.T) {
	creatorID := primitive.NewObjectID()
	creator := engine.Actor{ID: creatorID, Role: models.RoleUser}
	other := engine.Actor{ID: primitive.NewObjectID(), Role: models.RoleUser}
	admin := engine.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	metadata := map[string]string{
		"user_id":    creatorID.Hex(),
		"project_id": primitive.NewObjectID().Hex(),
	}

	assert.True(t, intentVisibleTo(creator, metadata))
	assert.False(t, intentVisibleTo(other, metadata))
	assert.True(t, intentVisibleTo(admin, metadata))

	// An intent without user metadata is visible to admins only.
	assert.False(t, intentVisibleTo(creator, map[string]string{}))
	assert.True(t, intentVisibleTo(admin, map[string]string{}))
}
