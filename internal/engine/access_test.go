package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/models"
)

func TestAccessPredicates(t *testing.T) {
	ownerID := primitive.NewObjectID()
	devID := primitive.NewObjectID()
	adminID := primitive.NewObjectID()
	strangerID := primitive.NewObjectID()

	owner := Actor{ID: ownerID, Role: models.RoleUser}
	dev := Actor{ID: devID, Role: models.RoleDeveloper}
	admin := Actor{ID: adminID, Role: models.RoleAdmin}
	stranger := Actor{ID: strangerID, Role: models.RoleUser}

	p := &models.Project{
		ID:                primitive.NewObjectID(),
		Owner:             ownerID,
		AssignedDeveloper: &devID,
	}

	tests := []struct {
		name   string
		actor  Actor
		view   bool
		mutate bool
		status bool
		thread bool
	}{
		{"owner", owner, true, true, false, true},
		{"assigned developer", dev, true, false, true, true},
		{"admin", admin, true, false, true, false},
		{"stranger", stranger, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.view, CanView(tt.actor, p), "CanView")
			assert.Equal(t, tt.mutate, CanMutateOwnerFields(tt.actor, p), "CanMutateOwnerFields")
			assert.Equal(t, tt.status, CanChangeStatus(tt.actor, p), "CanChangeStatus")
			assert.Equal(t, tt.thread, CanAccessThread(tt.actor, p), "CanAccessThread")
		})
	}

	assert.True(t, CanAssignDeveloper(admin))
	assert.False(t, CanAssignDeveloper(owner))
	assert.False(t, CanAssignDeveloper(dev))

	// An unassigned project grants the developer nothing.
	unassigned := &models.Project{ID: primitive.NewObjectID(), Owner: ownerID}
	assert.False(t, CanView(dev, unassigned))
	assert.False(t, CanChangeStatus(dev, unassigned))
	assert.False(t, CanAccessThread(dev, unassigned))
}
