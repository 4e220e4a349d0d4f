package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/models"
)

func TestCreateProjectStartsAsDraft(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)

	p, err := e.CreateProject(context.Background(), Actor{ID: owner.ID, Role: owner.Role}, CreateProjectInput{
		Title:    "Recipe sharing app",
		Category: models.CategoryMobileApp,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusDraft, p.Status)
	assert.Equal(t, owner.ID, p.Owner)
	assert.Equal(t, models.PriorityMedium, p.Priority)
	assert.False(t, p.AIGenerated.Flag)
	assert.False(t, p.ID.IsZero())

	stored, err := s.ProjectByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, stored.Status)
}

func TestCreateProjectWithPromptGeneratesFeatures(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)

	p, err := e.CreateProject(context.Background(), Actor{ID: owner.ID, Role: owner.Role}, CreateProjectInput{
		Title:    "Marketplace",
		Category: models.CategoryWebApp,
		AIPrompt: "A shop with checkout and user login",
	})
	require.NoError(t, err)

	require.Len(t, p.Features, 2)
	assert.Equal(t, "User Authentication", p.Features[0].Name)
	assert.Equal(t, "Payments & Checkout", p.Features[1].Name)
	assert.True(t, p.AIGenerated.Flag)
	assert.Equal(t, "A shop with checkout and user login", p.AIGenerated.Prompt)
	require.NotNil(t, p.AIGenerated.GeneratedAt)
	assert.InDelta(t, 0.8, p.AIGenerated.Confidence, 1e-9)
}

func TestCreateProjectValidation(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	actor := Actor{ID: owner.ID, Role: owner.Role}

	_, err := e.CreateProject(context.Background(), actor, CreateProjectInput{Title: "   "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	_, err = e.CreateProject(context.Background(), actor, CreateProjectInput{
		Title: strings.Repeat("x", 201),
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	_, err = e.CreateProject(context.Background(), actor, CreateProjectInput{
		Title:    "ok",
		Category: "spaceship",
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category", verr.Field)
}

func TestUpdateProjectFieldsOwnerOnly(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	stranger := s.addUser("Sam Ortiz", models.RoleUser)
	p := seedProject(s, owner.ID, models.StatusDraft)

	title := "Renamed project"
	_, err := e.UpdateProjectFields(context.Background(), Actor{ID: stranger.ID, Role: stranger.Role}, p.ID, UpdateProjectInput{Title: &title})
	assert.ErrorIs(t, err, ErrAccessDenied)

	// Admins are viewers, not editors, of owner fields.
	admin := s.addUser("Ada Ng", models.RoleAdmin)
	_, err = e.UpdateProjectFields(context.Background(), Actor{ID: admin.ID, Role: admin.Role}, p.ID, UpdateProjectInput{Title: &title})
	assert.ErrorIs(t, err, ErrAccessDenied)

	updated, err := e.UpdateProjectFields(context.Background(), Actor{ID: owner.ID, Role: owner.Role}, p.ID, UpdateProjectInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed project", updated.Title)

	stored, err := s.ProjectByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed project", stored.Title)
}

func TestTransitionStatusAppendsEntryAtomically(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	admin := s.addUser("Ada Ng", models.RoleAdmin)
	p := seedProject(s, owner.ID, models.StatusDraft)

	updated, err := e.TransitionStatus(context.Background(), Actor{ID: admin.ID, Role: admin.Role}, p.ID, models.StatusPrototype)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPrototype, updated.Status)

	stored, err := s.ProjectByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPrototype, stored.Status)
	require.Len(t, stored.Communication, 1)
	entry := stored.Communication[0]
	assert.Equal(t, models.EntryStatusUpdate, entry.Type)
	assert.Equal(t, "Status changed from draft to prototype", entry.Content)
	assert.Equal(t, admin.ID, entry.Author)
}

func TestTransitionToDeployedStampsActualEnd(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	admin := s.addUser("Ada Ng", models.RoleAdmin)
	p := seedProject(s, owner.ID, models.StatusTesting)

	updated, err := e.TransitionStatus(context.Background(), Actor{ID: admin.ID, Role: admin.Role}, p.ID, models.StatusDeployed)
	require.NoError(t, err)
	require.NotNil(t, updated.Timeline.ActualEnd)
	assert.Equal(t, updated.UpdatedAt, *updated.Timeline.ActualEnd)

	stored, err := s.ProjectByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Timeline.ActualEnd)
}

func TestTransitionStatusDeniedLeavesProjectUntouched(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	p := seedProject(s, owner.ID, models.StatusDraft)

	// The owner cannot drive the state machine.
	_, err := e.TransitionStatus(context.Background(), Actor{ID: owner.ID, Role: owner.Role}, p.ID, models.StatusPrototype)
	assert.ErrorIs(t, err, ErrAccessDenied)

	stored, err := s.ProjectByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, stored.Status)
	assert.Empty(t, stored.Communication)
}

func TestTransitionStatusByAssignedDeveloper(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	dev := s.addUser("Lee Chen", models.RoleDeveloper)
	other := s.addUser("Max Ruiz", models.RoleDeveloper)
	p := seedProject(s, owner.ID, models.StatusInDevelopment)
	devID := dev.ID
	p.AssignedDeveloper = &devID

	_, err := e.TransitionStatus(context.Background(), Actor{ID: other.ID, Role: other.Role}, p.ID, models.StatusTesting)
	assert.ErrorIs(t, err, ErrAccessDenied)

	updated, err := e.TransitionStatus(context.Background(), Actor{ID: dev.ID, Role: dev.Role}, p.ID, models.StatusTesting)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTesting, updated.Status)
}

func TestTransitionStatusRejectsTerminalAndSelf(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	admin := s.addUser("Ada Ng", models.RoleAdmin)
	actor := Actor{ID: admin.ID, Role: admin.Role}

	deployed := seedProject(s, owner.ID, models.StatusDeployed)
	_, err := e.TransitionStatus(context.Background(), actor, deployed.ID, models.StatusTesting)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	cancelled := seedProject(s, owner.ID, models.StatusCancelled)
	_, err = e.TransitionStatus(context.Background(), actor, cancelled.ID, models.StatusDraft)
	require.ErrorAs(t, err, &verr)

	draft := seedProject(s, owner.ID, models.StatusDraft)
	_, err = e.TransitionStatus(context.Background(), actor, draft.ID, models.StatusDraft)
	require.ErrorAs(t, err, &verr)

	_, err = e.TransitionStatus(context.Background(), actor, draft.ID, "shipped")
	require.ErrorAs(t, err, &verr)
}

func TestTransitionStatusUnknownProject(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	admin := s.addUser("Ada Ng", models.RoleAdmin)

	_, err := e.TransitionStatus(context.Background(), Actor{ID: admin.ID, Role: admin.Role}, primitive.NewObjectID(), models.StatusPrototype)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAssignDeveloperMovesDraftToInDevelopment(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	admin := s.addUser("Ada Ng", models.RoleAdmin)
	dev := s.addUser("Lee Chen", models.RoleDeveloper)
	p := seedProject(s, owner.ID, models.StatusDraft)

	updated, err := e.AssignDeveloper(context.Background(), Actor{ID: admin.ID, Role: admin.Role}, p.ID, dev.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedDeveloper)
	assert.Equal(t, dev.ID, *updated.AssignedDeveloper)
	assert.Equal(t, models.StatusInDevelopment, updated.Status)

	stored, err := s.ProjectByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, stored.Communication, 1)
	assert.Equal(t, "Lee Chen was assigned to the project; status moved to in-development", stored.Communication[0].Content)
	assert.Equal(t, admin.ID, stored.Communication[0].Author)
}

func TestReassignDeveloperKeepsStatus(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	admin := s.addUser("Ada Ng", models.RoleAdmin)
	first := s.addUser("Lee Chen", models.RoleDeveloper)
	second := s.addUser("Max Ruiz", models.RoleDeveloper)
	p := seedProject(s, owner.ID, models.StatusTesting)
	firstID := first.ID
	p.AssignedDeveloper = &firstID

	updated, err := e.AssignDeveloper(context.Background(), Actor{ID: admin.ID, Role: admin.Role}, p.ID, second.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedDeveloper)
	assert.Equal(t, second.ID, *updated.AssignedDeveloper)
	assert.Equal(t, models.StatusTesting, updated.Status)

	stored, err := s.ProjectByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, stored.Communication, 1)
	assert.Equal(t, "Max Ruiz was assigned to the project", stored.Communication[0].Content)
}

func TestAssignDeveloperGuards(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	admin := s.addUser("Ada Ng", models.RoleAdmin)
	dev := s.addUser("Lee Chen", models.RoleDeveloper)
	p := seedProject(s, owner.ID, models.StatusDraft)

	// Only admins assign.
	_, err := e.AssignDeveloper(context.Background(), Actor{ID: owner.ID, Role: owner.Role}, p.ID, dev.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	adminActor := Actor{ID: admin.ID, Role: admin.Role}

	// The assignee must hold the developer role.
	_, err = e.AssignDeveloper(context.Background(), adminActor, p.ID, owner.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "developer_id", verr.Field)

	_, err = e.AssignDeveloper(context.Background(), adminActor, p.ID, primitive.NewObjectID())
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "developer_id", verr.Field)

	// Terminal projects are closed to assignment.
	cancelled := seedProject(s, owner.ID, models.StatusCancelled)
	_, err = e.AssignDeveloper(context.Background(), adminActor, cancelled.ID, dev.ID)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)
}

func TestDeleteProjectOwnerOnly(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	admin := s.addUser("Ada Ng", models.RoleAdmin)
	p := seedProject(s, owner.ID, models.StatusDraft)

	err := e.DeleteProject(context.Background(), Actor{ID: admin.ID, Role: admin.Role}, p.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	err = e.DeleteProject(context.Background(), Actor{ID: owner.ID, Role: owner.Role}, p.ID)
	require.NoError(t, err)

	_, err = s.ProjectByID(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegenerateFeaturesReplacesList(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	p := seedProject(s, owner.ID, models.StatusDraft)
	p.Features = []models.Feature{{Name: "Old feature"}}

	updated, err := e.RegenerateFeatures(context.Background(), Actor{ID: owner.ID, Role: owner.Role}, p.ID, "photo gallery with search")
	require.NoError(t, err)

	require.Len(t, updated.Features, 2)
	assert.Equal(t, "Media Upload & Gallery", updated.Features[0].Name)
	assert.Equal(t, "Search & Filtering", updated.Features[1].Name)
	assert.True(t, updated.AIGenerated.Flag)

	stored, err := s.ProjectByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Features, stored.Features)
}
