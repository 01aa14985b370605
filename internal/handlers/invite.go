package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/taskhive/taskhive-api/internal/access"
	"github.com/taskhive/taskhive-api/internal/authz"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/notification"
	"github.com/taskhive/taskhive-api/internal/repository"
)

const defaultInviteTTL = 7 * 24 * time.Hour

type InviteHandler struct {
	inviteRepo     repository.InviteRepository
	projectRepo    repository.ProjectRepository
	mailer         notification.InviteMailer
	frontendOrigin string
	logger         zerolog.Logger
}

type inviteRequest struct {
	ProjectID string `json:"projectId"`
	Email     string `json:"email"`
}

func NewInviteHandler(
	inviteRepo repository.InviteRepository,
	projectRepo repository.ProjectRepository,
	mailer notification.InviteMailer,
	frontendOrigin string,
	logger zerolog.Logger,
) *InviteHandler {
	return &InviteHandler{
		inviteRepo:     inviteRepo,
		projectRepo:    projectRepo,
		mailer:         mailer,
		frontendOrigin: frontendOrigin,
		logger:         logger,
	}
}

func (h *InviteHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var payload inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(strings.ToLower(payload.Email))
	if payload.ProjectID == "" || email == "" {
		http.Error(w, "projectId and email required", http.StatusBadRequest)
		return
	}

	project, err := h.projectRepo.GetProjectByID(payload.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load project: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if project.OwnerID != userID {
		http.Error(w, "Only owner can invite", http.StatusForbidden)
		return
	}

	token, err := generateOpaqueToken()
	if err != nil {
		http.Error(w, "Failed to generate invite token", http.StatusInternalServerError)
		return
	}

	expiresAt := time.Now().Add(defaultInviteTTL)
	invite, err := h.inviteRepo.CreateInvite(models.Invite{
		ProjectID: project.ID,
		Email:     email,
		Token:     token,
		InvitedBy: userID,
		ExpiresAt: &expiresAt,
	})
	if err != nil {
		http.Error(w, "Failed to create invite: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Mail delivery is best-effort and runs after the invite is durable.
	// The token and accept URL go back to the caller either way, so the
	// link can still be shared by hand.
	acceptURL := buildAcceptURL(h.frontendOrigin, invite.Token)
	if err := h.mailer.SendInvite(invite.Email, project.Name, acceptURL); err != nil {
		h.logger.Warn().Err(err).
			Str("invite_id", invite.ID).
			Str("recipient", invite.Email).
			Msg("invite email failed, continuing without it")
	}

	response := struct {
		ID        string     `json:"id"`
		ProjectID string     `json:"project_id"`
		Email     string     `json:"email"`
		Token     string     `json:"token"`
		AcceptURL string     `json:"accept_url"`
		ExpiresAt *time.Time `json:"expires_at"`
	}{
		ID:        invite.ID,
		ProjectID: invite.ProjectID,
		Email:     invite.Email,
		Token:     invite.Token,
		AcceptURL: acceptURL,
		ExpiresAt: invite.ExpiresAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// AcceptInvite handles both credential variants behind one token: a targeted
// invite joins the caller as an editor and consumes the invite; a standing
// share link joins the caller as an editor without consuming anything.
func (h *InviteHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(mux.Vars(r)["token"])
	if token == "" {
		http.Error(w, "Missing token", http.StatusBadRequest)
		return
	}

	grant, err := resolveAccessGrant(h.inviteRepo, h.projectRepo, token)
	if err != nil {
		if errors.Is(err, errGrantNotFound) {
			http.Error(w, "Invite not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to resolve invite: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if writeGrantState(w, grant, token) {
		return
	}

	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required to accept invite", http.StatusUnauthorized)
		return
	}

	// Membership add is idempotent: re-accepting as an existing member or
	// as the owner is a no-op, not an error.
	if _, alreadyMember := access.RoleOf(grant.Project, userID); !alreadyMember {
		if err := h.projectRepo.AddMember(grant.Project.ID, userID, models.RoleEditor); err != nil {
			http.Error(w, "Failed to join project: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	if grant.Kind == access.GrantInvite {
		if _, err := h.inviteRepo.MarkInviteAccepted(grant.Invite.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Lost the race against a concurrent accept; the invite is
				// no longer pending.
				http.Error(w, "Invite not pending", http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to finalize invite: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	project, err := h.projectRepo.GetProjectByID(grant.Project.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The project was deleted while this accept was in flight.
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load project: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"project": project})
}

func (h *InviteHandler) RevokeInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	inviteID := mux.Vars(r)["id"]
	invite, err := h.inviteRepo.GetInviteByID(inviteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Invite not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load invite: "+err.Error(), http.StatusInternalServerError)
		return
	}

	project, err := h.projectRepo.GetProjectByID(invite.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load project: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if project.OwnerID != userID {
		http.Error(w, "Only owner can revoke invites", http.StatusForbidden)
		return
	}

	revoked, err := h.inviteRepo.RevokeInvite(invite.ID, project.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Invite not pending", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to revoke invite: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(revoked)
}
