package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/taskhive/taskhive-api/internal/access"
	"github.com/taskhive/taskhive-api/internal/repository"
)

// errGrantNotFound: the token matches neither a targeted invite nor any
// project's standing share link. Reported as not-found, never forbidden.
var errGrantNotFound = errors.New("grant not found")

// resolveAccessGrant is the single resolution path for the two token
// variants: the targeted-invite branch is tried first, then the standing
// share link. When one literal string exists in both spaces the invite wins.
func resolveAccessGrant(inviteRepo repository.InviteRepository, projectRepo repository.ProjectRepository, token string) (access.Grant, error) {
	invite, err := inviteRepo.GetInviteByToken(token)
	switch {
	case err == nil:
		project, err := projectRepo.GetProjectByID(invite.ProjectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Invite points at a deleted project; nothing to grant.
				return access.Grant{}, errGrantNotFound
			}
			return access.Grant{}, err
		}
		return access.Grant{Kind: access.GrantInvite, Invite: &invite, Project: project}, nil

	case errors.Is(err, sql.ErrNoRows):
		project, err := projectRepo.GetProjectByInviteToken(token)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return access.Grant{}, errGrantNotFound
			}
			return access.Grant{}, err
		}
		return access.Grant{Kind: access.GrantShareLink, Project: project}, nil

	default:
		return access.Grant{}, err
	}
}

// writeGrantState maps a grant classification to a response. Returns true
// when the grant was unusable and a response has been written.
func writeGrantState(w http.ResponseWriter, grant access.Grant, token string) bool {
	switch grant.State(token, time.Now()) {
	case access.GrantInviteNotPending:
		http.Error(w, "Invite not pending", http.StatusBadRequest)
		return true
	case access.GrantInviteExpired:
		http.Error(w, "Invite expired", http.StatusBadRequest)
		return true
	case access.GrantLinkNotActive:
		http.Error(w, "Link not active", http.StatusBadRequest)
		return true
	}
	return false
}
