package engine

import "github.com/buildhive/buildhive-backend/internal/models"

// Authorization lives here and nowhere else. Handlers and the engine's own
// operations call these predicates instead of building their own filters.

// CanView reports whether the actor may read the project at all.
func CanView(actor Actor, p *models.Project) bool {
	return p.IsOwner(actor.ID) || p.IsAssignedDeveloper(actor.ID) || actor.Role == models.RoleAdmin
}

// CanMutateOwnerFields covers title, description, category, priority,
// features, budget and the planned timeline. Owner only.
func CanMutateOwnerFields(actor Actor, p *models.Project) bool {
	return p.IsOwner(actor.ID)
}

// CanChangeStatus covers the status state machine.
func CanChangeStatus(actor Actor, p *models.Project) bool {
	return actor.Role == models.RoleAdmin || p.IsAssignedDeveloper(actor.ID)
}

// CanAssignDeveloper is admin only.
func CanAssignDeveloper(actor Actor) bool {
	return actor.Role == models.RoleAdmin
}

// CanAccessThread gates every thread operation. Admins are deliberately not
// included: admin-driven operations (assignment, status changes) write their
// entries through the engine itself rather than reading the thread.
func CanAccessThread(actor Actor, p *models.Project) bool {
	return p.IsOwner(actor.ID) || p.IsAssignedDeveloper(actor.ID)
}
