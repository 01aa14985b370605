// Package access holds the pure authorization logic: computing a caller's
// effective role from already-loaded entities and classifying token grants.
// Nothing in this package touches a store or returns transport errors;
// callers map classifications to responses.
package access

import (
	"github.com/taskhive/taskhive-api/internal/models"
)

// RoleOf computes the caller's effective role on a project. The owner_id
// field is authoritative: it is checked before the membership set, so a
// stray duplicate membership entry can never demote or promote the owner.
// ok=false means the caller is not a member and has no access.
func RoleOf(p models.Project, userID string) (models.Role, bool) {
	if userID == "" {
		return "", false
	}
	if p.OwnerID == userID {
		return models.RoleOwner, true
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// CanEdit reports whether the role permits mutations. Viewers may read but
// not write.
func CanEdit(role models.Role) bool {
	return role == models.RoleOwner || role == models.RoleEditor
}

// TaskRole resolves the caller's role on a task. For personal tasks
// (project is nil) only the task owner has access, with an implicit owner
// role. For project tasks the role always comes from the project's current
// membership, never from data cached on the task, so a membership change
// takes effect on every task in the project at once.
//
// Callers are responsible for distinguishing "task not found" and "project
// not found" before calling; ok=false here means the entities exist but the
// caller has no role (forbidden).
func TaskRole(task models.Task, project *models.Project, userID string) (models.Role, bool) {
	if task.ProjectID == nil {
		if userID != "" && task.OwnerID == userID {
			return models.RoleOwner, true
		}
		return "", false
	}
	if project == nil {
		return "", false
	}
	return RoleOf(*project, userID)
}
