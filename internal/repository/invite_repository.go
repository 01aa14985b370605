package repository

import (
	"database/sql"

	"github.com/taskhive/taskhive-api/internal/models"
)

type InviteRepository interface {
	CreateInvite(invite models.Invite) (models.Invite, error)
	GetInviteByToken(token string) (models.Invite, error)
	GetInviteByID(inviteID string) (models.Invite, error)
	ListPendingByProject(projectID string) ([]models.Invite, error)
	// MarkInviteAccepted performs the pending -> accepted transition. The
	// state check is part of the statement, so only one of any number of
	// concurrent accepts can win; the rest see sql.ErrNoRows.
	MarkInviteAccepted(inviteID string) (models.Invite, error)
	// RevokeInvite performs the pending -> revoked transition, same rules.
	RevokeInvite(inviteID, projectID string) (models.Invite, error)
}

type inviteRepository struct {
	db *sql.DB
}

func NewInviteRepository(db *sql.DB) InviteRepository {
	return &inviteRepository{db: db}
}

const inviteColumns = `id, project_id, email, token, invited_by, status, expires_at, created_at`

func scanInvite(row *sql.Row) (models.Invite, error) {
	var invite models.Invite
	err := row.Scan(
		&invite.ID,
		&invite.ProjectID,
		&invite.Email,
		&invite.Token,
		&invite.InvitedBy,
		&invite.Status,
		&invite.ExpiresAt,
		&invite.CreatedAt,
	)
	if err != nil {
		return models.Invite{}, err
	}
	return invite, nil
}

func (r *inviteRepository) CreateInvite(invite models.Invite) (models.Invite, error) {
	const query = `
		INSERT INTO invites (project_id, email, token, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + inviteColumns + `;
	`
	return scanInvite(r.db.QueryRow(query,
		invite.ProjectID,
		invite.Email,
		invite.Token,
		invite.InvitedBy,
		invite.ExpiresAt,
	))
}

func (r *inviteRepository) GetInviteByToken(token string) (models.Invite, error) {
	const query = `
		SELECT ` + inviteColumns + `
		FROM invites
		WHERE token = $1;
	`
	return scanInvite(r.db.QueryRow(query, token))
}

func (r *inviteRepository) GetInviteByID(inviteID string) (models.Invite, error) {
	const query = `
		SELECT ` + inviteColumns + `
		FROM invites
		WHERE id = $1;
	`
	return scanInvite(r.db.QueryRow(query, inviteID))
}

func (r *inviteRepository) ListPendingByProject(projectID string) ([]models.Invite, error) {
	const query = `
		SELECT ` + inviteColumns + `
		FROM invites
		WHERE project_id = $1 AND status = 'pending'
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.Invite
	for rows.Next() {
		var invite models.Invite
		if err := rows.Scan(
			&invite.ID,
			&invite.ProjectID,
			&invite.Email,
			&invite.Token,
			&invite.InvitedBy,
			&invite.Status,
			&invite.ExpiresAt,
			&invite.CreatedAt,
		); err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

func (r *inviteRepository) MarkInviteAccepted(inviteID string) (models.Invite, error) {
	const query = `
		UPDATE invites
		SET status = 'accepted'
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + inviteColumns + `;
	`
	return scanInvite(r.db.QueryRow(query, inviteID))
}

func (r *inviteRepository) RevokeInvite(inviteID, projectID string) (models.Invite, error) {
	const query = `
		UPDATE invites
		SET status = 'revoked'
		WHERE id = $1 AND project_id = $2 AND status = 'pending'
		RETURNING ` + inviteColumns + `;
	`
	return scanInvite(r.db.QueryRow(query, inviteID, projectID))
}
