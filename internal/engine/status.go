package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/models"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
)

// CreateProjectInput carries everything a client may set at creation time.
// Status is not in here: every project starts as draft.
type CreateProjectInput struct {
	Title       string
	Description string
	Category    models.ProjectCategory
	Priority    models.Priority
	Features    []models.Feature
	Budget      models.Budget
	Timeline    models.Timeline
	AIPrompt    string
}

// CreateProject creates a project owned by the actor. When AIPrompt is set
// the feature list is produced by the suggestion rules and the ai_generated
// metadata records prompt, time and confidence.
func (e *Engine) CreateProject(ctx context.Context, actor Actor, in CreateProjectInput) (*models.Project, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, invalid("title", "title is required")
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLength {
		return nil, invalid("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLength {
		return nil, invalid("description", fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}
	if in.Category == "" {
		in.Category = models.CategoryOther
	}
	if !in.Category.Valid() {
		return nil, invalid("category", "unknown category")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, invalid("priority", "unknown priority")
	}

	now := e.now()
	p := &models.Project{
		CreatedAt:   now,
		UpdatedAt:   now,
		Owner:       actor.ID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Status:      models.StatusDraft,
		Priority:    in.Priority,
		Features:    in.Features,
		Budget:      in.Budget,
		Timeline:    in.Timeline,
	}

	if prompt := strings.TrimSpace(in.AIPrompt); prompt != "" {
		features, confidence := SuggestFeatures(prompt, in.Category)
		generatedAt := now
		p.Features = features
		p.AIGenerated = models.AIGenerated{
			Flag:        true,
			Prompt:      prompt,
			GeneratedAt: &generatedAt,
			Confidence:  confidence,
		}
	}

	if err := e.store.InsertProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProjectInput holds optional owner-level field updates. Nil fields are
// left untouched; a non-nil Features pointer replaces the whole list.
type UpdateProjectInput struct {
	Title       *string
	Description *string
	Category    *models.ProjectCategory
	Priority    *models.Priority
	Features    *[]models.Feature
	Budget      *models.Budget
	Timeline    *models.Timeline
}

// UpdateProjectFields applies owner-level edits. Status and the thread are
// out of reach here; they have their own operations.
func (e *Engine) UpdateProjectFields(ctx context.Context, actor Actor, id primitive.ObjectID, in UpdateProjectInput) (*models.Project, error) {
	p, err := e.store.ProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutateOwnerFields(actor, p) {
		return nil, ErrAccessDenied
	}

	fields := map[string]interface{}{"updated_at": e.now()}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, invalid("title", "title cannot be empty")
		}
		if utf8.RuneCountInString(title) > maxTitleLength {
			return nil, invalid("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
		}
		fields["title"] = title
		p.Title = title
	}
	if in.Description != nil {
		if utf8.RuneCountInString(*in.Description) > maxDescriptionLength {
			return nil, invalid("description", fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
		}
		fields["description"] = *in.Description
		p.Description = *in.Description
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return nil, invalid("category", "unknown category")
		}
		fields["category"] = *in.Category
		p.Category = *in.Category
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, invalid("priority", "unknown priority")
		}
		fields["priority"] = *in.Priority
		p.Priority = *in.Priority
	}
	if in.Features != nil {
		fields["features"] = *in.Features
		p.Features = *in.Features
	}
	if in.Budget != nil {
		fields["budget"] = *in.Budget
		p.Budget = *in.Budget
	}
	if in.Timeline != nil {
		fields["timeline"] = *in.Timeline
		p.Timeline = *in.Timeline
	}

	if err := e.store.UpdateProjectFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProject removes a project. Owner only; not even admins delete other
// people's projects.
func (e *Engine) DeleteProject(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	p, err := e.store.ProjectByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsOwner(actor.ID) {
		return ErrAccessDenied
	}
	return e.store.DeleteProject(ctx, id)
}

// TransitionStatus moves the project to next. Admins and the assigned
// developer may transition; entering deployed stamps timeline.actual_end.
// The status-update thread entry is written in the same document update as
// the status itself, so a failed request changes nothing.
func (e *Engine) TransitionStatus(ctx context.Context, actor Actor, id primitive.ObjectID, next models.ProjectStatus) (*models.Project, error) {
	p, err := e.store.ProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanChangeStatus(actor, p) {
		return nil, ErrAccessDenied
	}
	if !next.Valid() {
		return nil, invalid("status", "unknown status")
	}
	if p.Status.Terminal() {
		return nil, invalid("status", fmt.Sprintf("project is %s and can no longer change status", p.Status))
	}
	if next == p.Status {
		return nil, invalid("status", "project is already in that status")
	}

	now := e.now()
	fields := map[string]interface{}{
		"status":     next,
		"updated_at": now,
	}
	if next == models.StatusDeployed {
		fields["timeline.actual_end"] = now
	}

	entry := models.CommunicationEntry{
		ID:        primitive.NewObjectID(),
		Type:      models.EntryStatusUpdate,
		Content:   fmt.Sprintf("Status changed from %s to %s", p.Status, next),
		Author:    actor.ID,
		Timestamp: now,
	}

	if err := e.store.TransitionProject(ctx, id, fields, entry); err != nil {
		return nil, err
	}

	p.Status = next
	p.UpdatedAt = now
	if next == models.StatusDeployed {
		end := now
		p.Timeline.ActualEnd = &end
	}
	p.Communication = append(p.Communication, entry)
	return p, nil
}

// AssignDeveloper puts a developer on a project (admin only). The first
// assignment of an unassigned early-stage project implicitly moves it to
// in-development; reassignment swaps the developer and leaves status alone.
// Either way the thread records the assignment as the acting admin.
func (e *Engine) AssignDeveloper(ctx context.Context, actor Actor, projectID, developerID primitive.ObjectID) (*models.Project, error) {
	if !CanAssignDeveloper(actor) {
		return nil, ErrAccessDenied
	}
	p, err := e.store.ProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.Status.Terminal() {
		return nil, invalid("status", fmt.Sprintf("cannot assign a developer to a %s project", p.Status))
	}

	dev, err := e.store.UserByID(ctx, developerID)
	if err != nil {
		if err == ErrNotFound {
			return nil, invalid("developer_id", "developer not found")
		}
		return nil, err
	}
	if dev.Role != models.RoleDeveloper {
		return nil, invalid("developer_id", "user is not a developer")
	}

	now := e.now()
	fields := map[string]interface{}{
		"assigned_developer": dev.ID,
		"updated_at":         now,
	}
	content := fmt.Sprintf("%s was assigned to the project", dev.Name)

	firstAssignment := p.AssignedDeveloper == nil
	movesToDevelopment := firstAssignment &&
		(p.Status == models.StatusDraft || p.Status == models.StatusPrototype)
	if movesToDevelopment {
		fields["status"] = models.StatusInDevelopment
		content += "; status moved to in-development"
	}

	entry := models.CommunicationEntry{
		ID:        primitive.NewObjectID(),
		Type:      models.EntryStatusUpdate,
		Content:   content,
		Author:    actor.ID,
		Timestamp: now,
	}

	if err := e.store.TransitionProject(ctx, projectID, fields, entry); err != nil {
		return nil, err
	}

	devID := dev.ID
	p.AssignedDeveloper = &devID
	p.UpdatedAt = now
	if movesToDevelopment {
		p.Status = models.StatusInDevelopment
	}
	p.Communication = append(p.Communication, entry)
	return p, nil
}

// RegenerateFeatures replaces the feature list from a fresh prompt (owner
// only). The whole list is swapped atomically; there is no merge.
func (e *Engine) RegenerateFeatures(ctx context.Context, actor Actor, id primitive.ObjectID, prompt string) (*models.Project, error) {
	p, err := e.store.ProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutateOwnerFields(actor, p) {
		return nil, ErrAccessDenied
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, invalid("prompt", "prompt is required")
	}

	now := e.now()
	features, confidence := SuggestFeatures(prompt, p.Category)
	generatedAt := now
	ai := models.AIGenerated{
		Flag:        true,
		Prompt:      prompt,
		GeneratedAt: &generatedAt,
		Confidence:  confidence,
	}

	fields := map[string]interface{}{
		"features":     features,
		"ai_generated": ai,
		"updated_at":   now,
	}
	if err := e.store.UpdateProjectFields(ctx, id, fields); err != nil {
		return nil, err
	}

	p.Features = features
	p.AIGenerated = ai
	p.UpdatedAt = now
	return p, nil
}
