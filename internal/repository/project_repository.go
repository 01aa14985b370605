package repository

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/taskhive/taskhive-api/internal/models"
)

type ProjectRepository interface {
	CreateProject(name, ownerID, inviteToken string) (models.Project, error)
	GetProjectByID(id string) (models.Project, error)
	GetProjectByInviteToken(token string) (models.Project, error)
	ListProjectsForUser(userID string) ([]models.Project, error)
	// AddMember inserts the membership entry if absent. The insert is a
	// single atomically-checked statement, so concurrent accepts of the same
	// invite cannot produce a duplicate entry.
	AddMember(projectID, userID string, role models.Role) error
	// SetInviteTokenIfAbsent stamps a share-link token only when none is
	// live, making repeated issuance idempotent, and returns the project's
	// current state either way.
	SetInviteTokenIfAbsent(projectID, token string) (models.Project, error)
	// ResetInviteToken unconditionally replaces the share-link token,
	// invalidating the previous one immediately.
	ResetInviteToken(projectID, token string) (models.Project, error)
	// DeleteProject removes the project and everything scoped to it
	// (invites, tasks, memberships) in one transaction.
	DeleteProject(projectID string) error
}

type projectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `id, name, owner_id, invite_token, invite_token_created_at, created_at`

func (r *projectRepository) scanProject(row *sql.Row) (models.Project, error) {
	var project models.Project
	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.OwnerID,
		&project.InviteToken,
		&project.InviteTokenCreatedAt,
		&project.CreatedAt,
	)
	if err != nil {
		return models.Project{}, err
	}

	project.Members, err = r.loadMembers(project.ID)
	if err != nil {
		return models.Project{}, err
	}
	return project, nil
}

func (r *projectRepository) loadMembers(projectID string) ([]models.Member, error) {
	const query = `
		SELECT pm.user_id, u.name, u.email, pm.role, pm.added_at
		FROM project_members pm
		JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = $1
		ORDER BY pm.added_at;
	`
	rows, err := r.db.Query(query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.Role, &m.AddedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *projectRepository) CreateProject(name, ownerID, inviteToken string) (models.Project, error) {
	const query = `
		INSERT INTO projects (name, owner_id, invite_token, invite_token_created_at)
		VALUES ($1, $2, $3, now())
		RETURNING ` + projectColumns + `;
	`
	return r.scanProject(r.db.QueryRow(query, name, ownerID, inviteToken))
}

func (r *projectRepository) GetProjectByID(id string) (models.Project, error) {
	const query = `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE id = $1;
	`
	return r.scanProject(r.db.QueryRow(query, id))
}

func (r *projectRepository) GetProjectByInviteToken(token string) (models.Project, error) {
	const query = `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE invite_token = $1;
	`
	return r.scanProject(r.db.QueryRow(query, token))
}

func (r *projectRepository) ListProjectsForUser(userID string) ([]models.Project, error) {
	// Owner OR member: a set union, not a simple owner filter.
	const query = `
		SELECT ` + projectColumns + `
		FROM projects p
		WHERE p.owner_id = $1
		   OR EXISTS (
			SELECT 1 FROM project_members pm
			WHERE pm.project_id = p.id AND pm.user_id = $1
		   )
		ORDER BY p.created_at DESC;
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var project models.Project
		if err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.OwnerID,
			&project.InviteToken,
			&project.InviteTokenCreatedAt,
			&project.CreatedAt,
		); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range projects {
		projects[i].Members, err = r.loadMembers(projects[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return projects, nil
}

func (r *projectRepository) AddMember(projectID, userID string, role models.Role) error {
	const query = `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, user_id) DO NOTHING;
	`
	_, err := r.db.Exec(query, projectID, userID, role)
	return err
}

func (r *projectRepository) SetInviteTokenIfAbsent(projectID, token string) (models.Project, error) {
	const query = `
		UPDATE projects
		SET invite_token = $2, invite_token_created_at = now()
		WHERE id = $1 AND (invite_token IS NULL OR invite_token = '');
	`
	if _, err := r.db.Exec(query, projectID, token); err != nil {
		return models.Project{}, err
	}
	// Re-read regardless of whether this call won; a concurrent issuer's
	// token is just as valid.
	return r.GetProjectByID(projectID)
}

func (r *projectRepository) ResetInviteToken(projectID, token string) (models.Project, error) {
	const query = `
		UPDATE projects
		SET invite_token = $2, invite_token_created_at = now()
		WHERE id = $1;
	`
	result, err := r.db.Exec(query, projectID, token)
	if err != nil {
		return models.Project{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return models.Project{}, err
	}
	if affected == 0 {
		return models.Project{}, sql.ErrNoRows
	}
	return r.GetProjectByID(projectID)
}

func (r *projectRepository) DeleteProject(projectID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin project delete")
	}
	defer tx.Rollback()

	// Children first; the whole cascade commits or rolls back as one unit,
	// so tasks can never outlive their project.
	if _, err := tx.Exec(`DELETE FROM invites WHERE project_id = $1`, projectID); err != nil {
		return errors.Wrap(err, "delete project invites")
	}
	if _, err := tx.Exec(`DELETE FROM tasks WHERE project_id = $1`, projectID); err != nil {
		return errors.Wrap(err, "delete project tasks")
	}
	if _, err := tx.Exec(`DELETE FROM project_members WHERE project_id = $1`, projectID); err != nil {
		return errors.Wrap(err, "delete project members")
	}

	result, err := tx.Exec(`DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return errors.Wrap(err, "delete project")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete project")
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return errors.Wrap(tx.Commit(), "commit project delete")
}
